// Package llm provides the embedding and completion provider used to build
// and query document indexes.
package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned at construction time when the
	// selected provider requires an API key and none is configured. No
	// network call is attempted in that case.
	ErrMissingCredential = errors.New("llm: missing api credential")

	// ErrEmbedding wraps failures of the embedding endpoint.
	ErrEmbedding = errors.New("llm: embedding request failed")

	// ErrCompletion wraps failures of the completion endpoint.
	ErrCompletion = errors.New("llm: completion request failed")
)

// Provider maps text to embedding vectors and prompts to completions.
// Implementations must return one vector per input text, in input order,
// and be deterministic for a fixed model version.
type Provider interface {
	// Embed returns one embedding vector per input text, same order.
	Embed(ctx context.Context, texts []string) ([][]float64, error)

	// Complete sends a prompt to the language model and returns the
	// completion text verbatim.
	Complete(ctx context.Context, prompt string) (string, error)

	// Model identifies the embedding model. It is recorded into every
	// index built with this provider and validated again at query time.
	Model() string
}

// Config selects and configures a provider implementation.
type Config struct {
	Provider string // "openai" or "ollama"

	// OpenAI-compatible settings.
	APIKey     string
	BaseURL    string
	EmbedModel string
	ChatModel  string

	// Ollama settings.
	OllamaModel string
}

// New builds the configured provider.
func New(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAI(cfg)
	case "ollama":
		return NewOllama(cfg)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
