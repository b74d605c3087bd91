// Package documents orchestrates the document lifecycle: upload and index,
// question answering, listing, and cascading deletion.
package documents

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ZayedShahcode/ChatPDF/internal/answerer"
	"github.com/ZayedShahcode/ChatPDF/internal/extractor"
	"github.com/ZayedShahcode/ChatPDF/internal/indexer"
	"github.com/ZayedShahcode/ChatPDF/internal/logger"
	"github.com/ZayedShahcode/ChatPDF/internal/registry"
)

// Service ties the registry, upload storage, index builder, and answerer
// together. Upload and vector roots are created once at construction time
// so the core stays free of process-wide side effects.
type Service struct {
	log       *logger.Logger
	reg       *registry.Registry
	builder   *indexer.Builder
	answerer  *answerer.Answerer
	uploadDir string
	vectorDir string
}

func NewService(log *logger.Logger, reg *registry.Registry, builder *indexer.Builder, ans *answerer.Answerer, uploadDir, vectorDir string) (*Service, error) {
	for _, dir := range []string{uploadDir, vectorDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("documents: creating %s: %w", dir, err)
		}
	}
	return &Service{
		log:       log.With("component", "documents"),
		reg:       reg,
		builder:   builder,
		answerer:  ans,
		uploadDir: uploadDir,
		vectorDir: vectorDir,
	}, nil
}

// FilePath returns where a document's uploaded bytes live.
func (s *Service) FilePath(filename string) string {
	return filepath.Join(s.uploadDir, filepath.Base(filename))
}

// VectorPath returns the index subtree for a document. The path is derived
// deterministically from the filename.
func (s *Service) VectorPath(filename string) string {
	return filepath.Join(s.vectorDir, filepath.Base(filename))
}

// Upload stores the PDF bytes, extracts their text, builds and persists the
// vector index, and registers the document under a fresh session id.
// Re-uploading a filename rebuilds its index wholesale.
func (s *Service) Upload(ctx context.Context, filename string, src io.Reader) (string, error) {
	filename = filepath.Base(filename)
	filePath := s.FilePath(filename)

	if err := writeFile(filePath, src); err != nil {
		return "", fmt.Errorf("saving upload %s: %w", filename, err)
	}

	text, err := extractor.Extract(filePath)
	if err != nil {
		return "", err
	}

	vectorPath := s.VectorPath(filename)
	if err := s.builder.BuildAndPersist(ctx, text, vectorPath); err != nil {
		return "", err
	}

	sessionID := uuid.NewString()
	doc := &registry.Document{
		Filename:        filename,
		UploadTimestamp: time.Now().UTC(),
		FilePath:        filePath,
		VectorPath:      vectorPath,
		SessionID:       sessionID,
	}
	if err := s.reg.Upsert(ctx, doc); err != nil {
		return "", err
	}

	s.log.Info("document uploaded", "filename", filename, "session_id", sessionID)
	return sessionID, nil
}

// Ask answers a question against the named document's persisted index.
// vectorindex.ErrIndexNotFound propagates when the document was never
// indexed or its index was deleted.
func (s *Service) Ask(ctx context.Context, filename, question string) (string, error) {
	return s.answerer.Answer(ctx, question, s.VectorPath(filename))
}

// DeleteFile removes the registry record, the uploaded file, and the index
// subtree. Each part is removed independently of whether the others exist,
// so the operation is idempotent and converges even after a previous
// partial failure.
func (s *Service) DeleteFile(ctx context.Context, filename string) error {
	filename = filepath.Base(filename)

	if err := s.reg.DeleteByFilename(ctx, filename); err != nil {
		s.log.Warn("registry delete failed", "filename", filename, "error", err)
	}
	if err := os.Remove(s.FilePath(filename)); err != nil && !os.IsNotExist(err) {
		s.log.Warn("file delete failed", "filename", filename, "error", err)
	}
	if err := os.RemoveAll(s.VectorPath(filename)); err != nil {
		s.log.Warn("index delete failed", "filename", filename, "error", err)
	}

	s.log.Info("document deleted", "filename", filename)
	return nil
}

// DeleteSession removes every document registered under the session,
// best-effort per document. Documents under other sessions are untouched.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	docs, err := s.reg.ListBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
			s.log.Warn("file delete failed", "filename", doc.Filename, "error", err)
		}
		if err := os.RemoveAll(doc.VectorPath); err != nil {
			s.log.Warn("index delete failed", "filename", doc.Filename, "error", err)
		}
	}
	if err := s.reg.DeleteBySession(ctx, sessionID); err != nil {
		return err
	}

	s.log.Info("session deleted", "session_id", sessionID, "documents", len(docs))
	return nil
}

// List returns every registered document.
func (s *Service) List(ctx context.Context) ([]registry.Document, error) {
	return s.reg.List(ctx)
}

// DirsExist reports whether the storage roots are present, for health
// checks.
func (s *Service) DirsExist() (uploads bool, vectors bool) {
	_, err := os.Stat(s.uploadDir)
	uploads = err == nil
	_, err = os.Stat(s.vectorDir)
	vectors = err == nil
	return uploads, vectors
}

// ClearAll wipes the registry and recreates empty storage roots. Explicit
// administrative action, exposed only behind the -reset flag.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.reg.Reset(ctx); err != nil {
		return err
	}
	for _, dir := range []string{s.uploadDir, s.vectorDir} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("documents: clearing %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("documents: recreating %s: %w", dir, err)
		}
	}
	s.log.Info("all data cleared")
	return nil
}

func writeFile(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
