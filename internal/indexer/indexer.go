// Package indexer builds and persists a document's vector index.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/ZayedShahcode/ChatPDF/internal/chunker"
	"github.com/ZayedShahcode/ChatPDF/internal/llm"
	"github.com/ZayedShahcode/ChatPDF/internal/logger"
	"github.com/ZayedShahcode/ChatPDF/internal/vectorindex"
)

// Builder turns extracted text into a persisted vector index: chunk,
// embed, build, atomic save.
type Builder struct {
	splitter chunker.Splitter
	provider llm.Provider
	log      *logger.Logger
}

func New(splitter chunker.Splitter, provider llm.Provider, log *logger.Logger) *Builder {
	return &Builder{
		splitter: splitter,
		provider: provider,
		log:      log.With("component", "indexer"),
	}
}

// BuildAndPersist indexes text and installs the result at dir. Errors from
// chunking, embedding, or persistence propagate untouched; a failed build
// never leaves a readable half-written index because the save is a
// temp-dir-and-rename swap.
//
// Text with no extractable content still produces a valid empty index, so
// a question against an image-only PDF gets a graceful no-context answer
// instead of a missing-index error.
func (b *Builder) BuildAndPersist(ctx context.Context, text, dir string) error {
	start := time.Now()

	chunks := b.splitter.Split(text)

	vectors, err := b.provider.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}

	idx, err := vectorindex.Build(b.provider.Model(), chunks, vectors)
	if err != nil {
		return err
	}
	if err := idx.Save(dir); err != nil {
		return err
	}

	b.log.Info("index built",
		"path", dir,
		"chunks", len(chunks),
		"dimension", idx.Dim,
		"duration", time.Since(start),
	)
	return nil
}
