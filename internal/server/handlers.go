package server

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/ZayedShahcode/ChatPDF/internal/documents"
	"github.com/ZayedShahcode/ChatPDF/internal/extractor"
	"github.com/ZayedShahcode/ChatPDF/internal/llm"
	"github.com/ZayedShahcode/ChatPDF/internal/logger"
	"github.com/ZayedShahcode/ChatPDF/internal/vectorindex"
)

// Handler exposes the document service over HTTP.
type Handler struct {
	log  *logger.Logger
	docs *documents.Service
}

func NewHandler(log *logger.Logger, docs *documents.Service) *Handler {
	return &Handler{
		log:  log.With("handler", "documents"),
		docs: docs,
	}
}

// Root reports that the API is up.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "PDF Q&A API is running",
		"status":  "healthy",
	})
}

// Health reports service and storage health.
func (h *Handler) Health(c *gin.Context) {
	uploads, vectors := h.docs.DirsExist()
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"upload_dir": uploads,
		"vector_dir": vectors,
	})
}

// Upload accepts a multipart PDF, indexes it, and registers it under a new
// session.
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("a file is required: %w", err))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	defer src.Close()

	// Documents are stored and queried by base name, so the response must
	// echo the same key a later /ask call will use.
	filename := filepath.Base(fileHeader.Filename)

	sessionID, err := h.docs.Upload(c.Request.Context(), filename, src)
	if err != nil {
		h.log.Error("upload failed", "filename", filename, "error", err)
		respondError(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "PDF uploaded and indexed successfully",
		"filename":   filename,
		"session_id": sessionID,
		"status":     "success",
	})
}

// Ask answers a question about an uploaded PDF.
func (h *Handler) Ask(c *gin.Context) {
	filename := c.PostForm("filename")
	question := c.PostForm("question")
	if filename == "" || question == "" {
		respondError(c, http.StatusBadRequest, errors.New("filename and question are required"))
		return
	}

	answer, err := h.docs.Ask(c.Request.Context(), filename, question)
	if err != nil {
		if errors.Is(err, vectorindex.ErrIndexNotFound) {
			respondError(c, http.StatusNotFound, fmt.Errorf("no indexed document found for %s", filename))
			return
		}
		h.log.Error("ask failed", "filename", filename, "error", err)
		respondError(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":   answer,
		"filename": filename,
		"question": question,
		"status":   "success",
	})
}

// DeleteFile removes a document, its file, and its index.
func (h *Handler) DeleteFile(c *gin.Context) {
	filename := c.Param("filename")

	if err := h.docs.DeleteFile(c.Request.Context(), filename); err != nil {
		respondError(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("File %s deleted successfully", filename),
		"status":  "success",
	})
}

// DeleteSession removes every document uploaded under a session.
func (h *Handler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	if err := h.docs.DeleteSession(c.Request.Context(), sessionID); err != nil {
		respondError(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Session %s deleted successfully", sessionID),
		"status":  "success",
	})
}

// ListFiles lists uploaded files with their metadata.
func (h *Handler) ListFiles(c *gin.Context) {
	docs, err := h.docs.List(c.Request.Context())
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}

	files := make([]gin.H, 0, len(docs))
	for _, d := range docs {
		files = append(files, gin.H{
			"filename":         d.Filename,
			"upload_timestamp": d.UploadTimestamp,
			"session_id":       d.SessionID,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"files":  files,
		"status": "success",
	})
}

func respondError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{
		"message": err.Error(),
		"status":  "error",
	})
}

// statusFor maps core errors onto HTTP statuses. Index and document
// lookups map to 404, malformed input to 400, provider failures to 502.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vectorindex.ErrIndexNotFound):
		return http.StatusNotFound
	case errors.Is(err, extractor.ErrExtraction):
		return http.StatusBadRequest
	case errors.Is(err, llm.ErrEmbedding), errors.Is(err, llm.ErrCompletion):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
