package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmorganca/ollama/api"
)

// Ollama runs embeddings and completions against a local Ollama server.
// No API credential is required; the host comes from OLLAMA_HOST.
type Ollama struct {
	client        *api.Client
	model         string
	maxRetries    int
	timeout       time.Duration
	maxConcurrent int
}

// NewOllama builds the client using the standard Ollama host resolution.
func NewOllama(cfg Config) (*Ollama, error) {
	model := cfg.OllamaModel
	if model == "" {
		model = "llama3.2"
	}
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, err
	}
	return &Ollama{
		client:        client,
		model:         model,
		maxRetries:    3,
		timeout:       30 * time.Second,
		maxConcurrent: 3,
	}, nil
}

func (o *Ollama) Model() string { return o.model }

// Embed embeds each text through the Ollama embeddings endpoint, keeping a
// bounded number of requests in flight. Results keep input order.
func (o *Ollama) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float64, len(texts))
	errChan := make(chan error, len(texts))
	semaphore := make(chan struct{}, o.maxConcurrent)
	var wg sync.WaitGroup

	for i := range texts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			embedding, err := o.embedOne(ctx, texts[i])
			if err != nil {
				errChan <- fmt.Errorf("%w: text %d: %v", ErrEmbedding, i, err)
				return
			}
			vectors[i] = embedding
		}(i)
	}

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, err
	}
	return vectors, nil
}

func (o *Ollama) embedOne(ctx context.Context, text string) ([]float64, error) {
	var embedding []float64
	var err error

	for retries := 0; retries <= o.maxRetries; retries++ {
		if retries > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(retries) * time.Second):
			}
		}

		embedding, err = o.createEmbedding(ctx, text)
		if err == nil {
			return embedding, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("after %d retries: %w", o.maxRetries, err)
}

func (o *Ollama) createEmbedding(ctx context.Context, text string) ([]float64, error) {
	req := api.EmbeddingRequest{
		Model:  o.model,
		Prompt: text,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.Embeddings(ctxWithTimeout, &req)
	if err != nil {
		return nil, err
	}
	return resp.Embedding, nil
}

// Complete generates a response, collecting the streamed output into a
// single string.
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	req := api.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Options: map[string]interface{}{
			"temperature": 0.0,
		},
	}

	var responseBuilder strings.Builder
	err := o.client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletion, err)
	}

	return responseBuilder.String(), nil
}
