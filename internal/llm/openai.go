package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI talks to an OpenAI-compatible API over HTTP. Any server exposing
// the /embeddings and /chat/completions shapes works through the BaseURL
// setting.
type OpenAI struct {
	baseURL    string
	apiKey     string
	embedModel string
	chatModel  string
	client     *http.Client
}

// NewOpenAI builds the client. A missing API key fails immediately with
// ErrMissingCredential, before any network call.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrMissingCredential)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = "gpt-4o-mini"
	}
	return &OpenAI{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		embedModel: embedModel,
		chatModel:  chatModel,
		client:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (o *OpenAI) Model() string { return o.embedModel }

// Embed sends the whole batch in one request and reorders the response by
// its index field, so the returned vectors line up with the input texts.
func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload := map[string]interface{}{
		"model": o.embedModel,
		"input": texts,
	}
	body, err := o.post(ctx, "/embeddings", payload, ErrEmbedding)
	if err != nil {
		return nil, err
	}

	var out struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrEmbedding, err)
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", ErrEmbedding, len(out.Data), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(texts) || len(d.Embedding) == 0 {
			return nil, fmt.Errorf("%w: malformed embedding at index %d", ErrEmbedding, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// Complete runs a single-turn chat completion and returns the first choice.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model": o.chatModel,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0,
	}
	body, err := o.post(ctx, "/chat/completions", payload, ErrCompletion)
	if err != nil {
		return "", err
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrCompletion, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", ErrCompletion)
	}
	return out.Choices[0].Message.Content, nil
}

func (o *OpenAI) post(ctx context.Context, path string, payload interface{}, sentinel error) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", sentinel, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", sentinel, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", sentinel, resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
