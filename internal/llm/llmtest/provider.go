// Package llmtest provides a deterministic in-process Provider for tests.
package llmtest

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Dimension of the fake embedding vectors.
const Dimension = 64

// Provider is a fake llm.Provider. Embeddings are hashed bag-of-words
// vectors, so texts sharing words land close together under cosine
// similarity, which makes retrieval tests behave like the real thing.
type Provider struct {
	ModelName    string
	EmbedErr     error
	CompleteErr  error
	CompleteFunc func(prompt string) string

	// Prompts records every prompt passed to Complete.
	Prompts []string
}

func New() *Provider {
	return &Provider{ModelName: "fake-embedder"}
}

func (p *Provider) Model() string { return p.ModelName }

func (p *Provider) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	vectors := make([][]float64, len(texts))
	for i, t := range texts {
		vectors[i] = wordVector(t)
	}
	return vectors, nil
}

func (p *Provider) Complete(_ context.Context, prompt string) (string, error) {
	if p.CompleteErr != nil {
		return "", p.CompleteErr
	}
	p.Prompts = append(p.Prompts, prompt)
	if p.CompleteFunc != nil {
		return p.CompleteFunc(prompt), nil
	}
	return "fake completion", nil
}

func wordVector(text string) []float64 {
	v := make([]float64, Dimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%Dimension]++
	}
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
	return v
}
