package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZayedShahcode/ChatPDF/internal/answerer"
	"github.com/ZayedShahcode/ChatPDF/internal/chunker"
	"github.com/ZayedShahcode/ChatPDF/internal/documents"
	"github.com/ZayedShahcode/ChatPDF/internal/indexer"
	"github.com/ZayedShahcode/ChatPDF/internal/llm/llmtest"
	"github.com/ZayedShahcode/ChatPDF/internal/logger"
	"github.com/ZayedShahcode/ChatPDF/internal/registry"
	"github.com/ZayedShahcode/ChatPDF/internal/testpdf"
)

func newTestServer(t *testing.T) (*gin.Engine, *llmtest.Provider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	log := logger.NewNop()

	reg, err := registry.Open(filepath.Join(root, "metadata.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	require.NoError(t, reg.Init(context.Background()))

	provider := llmtest.New()
	builder := indexer.New(chunker.New(500, 100), provider, log)
	ans := answerer.New(provider, 4, log)

	docs, err := documents.NewService(log, reg, builder, ans,
		filepath.Join(root, "uploads"), filepath.Join(root, "vector_data"))
	require.NoError(t, err)

	return NewRouter(NewHandler(log, docs)), provider
}

func doUpload(t *testing.T, router *gin.Engine, filename, text string) map[string]interface{} {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(testpdf.Bytes(text))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)
}

func doAsk(t *testing.T, router *gin.Engine, filename, question string) (int, map[string]interface{}) {
	t.Helper()

	form := url.Values{"filename": {filename}, "question": {question}}
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec.Code, decode(t, rec)
}

func doDelete(t *testing.T, router *gin.Engine, path string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodDelete, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec.Code, decode(t, rec)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRootAndHealth(t *testing.T) {
	router, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["upload_dir"])
	assert.Equal(t, true, body["vector_dir"])
}

func TestUploadAndAsk(t *testing.T) {
	router, provider := newTestServer(t)
	provider.CompleteFunc = func(prompt string) string {
		if strings.Contains(prompt, "blue") {
			return "The sky is blue."
		}
		return "I don't have enough information."
	}

	body := doUpload(t, router, "sky.pdf", "The sky is blue. Grass is green.")
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "sky.pdf", body["filename"])
	assert.NotEmpty(t, body["session_id"])

	code, answer := doAsk(t, router, "sky.pdf", "What color is the sky?")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", answer["status"])
	assert.Contains(t, answer["answer"], "blue")
	assert.Equal(t, "sky.pdf", answer["filename"])
	assert.Equal(t, "What color is the sky?", answer["question"])
}

func TestUploadNormalizesPathBearingFilename(t *testing.T) {
	router, _ := newTestServer(t)

	body := doUpload(t, router, "nested/dir/doc.pdf", "Some content here.")
	assert.Equal(t, "doc.pdf", body["filename"])

	// The echoed name is the key later asks use.
	code, answer := doAsk(t, router, "doc.pdf", "anything?")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", answer["status"])
}

func TestAskUnknownDocument(t *testing.T) {
	router, _ := newTestServer(t)

	code, body := doAsk(t, router, "never-uploaded.pdf", "anything?")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["message"], "never-uploaded.pdf")
}

func TestAskMissingFields(t *testing.T) {
	router, _ := newTestServer(t)

	code, body := doAsk(t, router, "", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", body["status"])
}

func TestUploadWithoutFile(t *testing.T) {
	router, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", decode(t, rec)["status"])
}

func TestListFiles(t *testing.T) {
	router, _ := newTestServer(t)

	doUpload(t, router, "one.pdf", "First document.")
	doUpload(t, router, "two.pdf", "Second document.")

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	files, ok := body["files"].([]interface{})
	require.True(t, ok)
	assert.Len(t, files, 2)
}

func TestDeleteFileMakesAskFail(t *testing.T) {
	router, _ := newTestServer(t)

	doUpload(t, router, "doc.pdf", "Some content here.")

	code, body := doDelete(t, router, "/files/doc.pdf")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])

	code, body = doAsk(t, router, "doc.pdf", "anything?")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "error", body["status"])
}

func TestDeleteFileIsIdempotent(t *testing.T) {
	router, _ := newTestServer(t)

	// Deleting a document that was never uploaded still succeeds.
	code, body := doDelete(t, router, "/files/ghost.pdf")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
}

func TestDeleteSessionCascades(t *testing.T) {
	router, provider := newTestServer(t)
	provider.CompleteFunc = func(string) string { return "still here" }

	first := doUpload(t, router, "first.pdf", "Content of the first document.")
	doUpload(t, router, "second.pdf", "Content of the second document.")

	sessionID, ok := first["session_id"].(string)
	require.True(t, ok)

	code, body := doDelete(t, router, "/session/"+sessionID)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])

	code, _ = doAsk(t, router, "first.pdf", "anything?")
	assert.Equal(t, http.StatusNotFound, code)

	code, answer := doAsk(t, router, "second.pdf", "anything?")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "still here", answer["answer"])

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	files := decode(t, rec)["files"].([]interface{})
	assert.Len(t, files, 1)
}

func TestReuploadRebuildsIndex(t *testing.T) {
	router, provider := newTestServer(t)
	provider.CompleteFunc = func(prompt string) string {
		if strings.Contains(prompt, "second") {
			return "answer from the second version"
		}
		return "answer from the first version"
	}

	doUpload(t, router, "doc.pdf", "This is the first version.")
	doUpload(t, router, "doc.pdf", "This is the second version.")

	code, answer := doAsk(t, router, "doc.pdf", "Which version is this?")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, answer["answer"], "second")

	// The registry keeps a single row for the re-uploaded filename.
	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	files := decode(t, rec)["files"].([]interface{})
	assert.Len(t, files, 1)
}
