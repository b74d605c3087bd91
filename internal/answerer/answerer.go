// Package answerer resolves questions against a persisted vector index.
package answerer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZayedShahcode/ChatPDF/internal/llm"
	"github.com/ZayedShahcode/ChatPDF/internal/logger"
	"github.com/ZayedShahcode/ChatPDF/internal/vectorindex"
)

// NoContextAnswer is returned when the document's index holds no chunks,
// which happens for scanned or image-only PDFs.
const NoContextAnswer = "I couldn't find any text content in this document to answer your question."

// Answerer retrieves the chunks most relevant to a question and asks the
// language model to answer from them.
type Answerer struct {
	provider llm.Provider
	topK     int
	log      *logger.Logger
}

func New(provider llm.Provider, topK int, log *logger.Logger) *Answerer {
	if topK <= 0 {
		topK = vectorindex.DefaultTopK
	}
	return &Answerer{
		provider: provider,
		topK:     topK,
		log:      log.With("component", "answerer"),
	}
}

// Answer loads the index at indexDir, embeds the question with the same
// provider the index was built with, retrieves the top-k chunks, and
// returns the model's completion verbatim. vectorindex.ErrIndexNotFound
// propagates when no index exists at indexDir; provider failures propagate
// untouched with no retries at this layer.
func (a *Answerer) Answer(ctx context.Context, question, indexDir string) (string, error) {
	idx, err := vectorindex.Load(indexDir)
	if err != nil {
		return "", err
	}
	if err := idx.Match(a.provider.Model()); err != nil {
		return "", err
	}
	if len(idx.Chunks) == 0 {
		return NoContextAnswer, nil
	}

	vectors, err := a.provider.Embed(ctx, []string{question})
	if err != nil {
		return "", fmt.Errorf("embedding question: %w", err)
	}

	results, err := idx.Search(vectors[0], a.topK)
	if err != nil {
		return "", err
	}

	a.log.Debug("retrieved context", "index", indexDir, "chunks", len(results))

	answer, err := a.provider.Complete(ctx, buildPrompt(question, results))
	if err != nil {
		return "", err
	}
	return answer, nil
}

// buildPrompt stuffs the retrieved chunks ahead of the question.
func buildPrompt(question string, results []vectorindex.Result) string {
	var promptBuilder strings.Builder

	promptBuilder.WriteString("You are a helpful assistant answering questions about an uploaded document. ")
	promptBuilder.WriteString("Answer using only the provided context. ")
	promptBuilder.WriteString("If the answer is not in the context, say you don't have enough information.\n\n")

	promptBuilder.WriteString("Context from the document:\n")
	for i, r := range results {
		promptBuilder.WriteString(fmt.Sprintf("Context %d:\n", i+1))
		promptBuilder.WriteString(r.Chunk)
		promptBuilder.WriteString("\n\n")
	}

	promptBuilder.WriteString("Question: " + question + "\n\n")
	promptBuilder.WriteString("Answer: ")

	return promptBuilder.String()
}
