package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OpenAIEmbedder implements Embedder against an OpenAI-compatible
// /embeddings endpoint. The request pins the output dimensionality to
// [Dimensions] so any model that supports Matryoshka truncation
// (text-embedding-3 family) slots into the 768-dim store unchanged.
// It is safe for concurrent use.
type OpenAIEmbedder struct {
	// baseURL is the API base (e.g. "https://api.openai.com/v1").
	baseURL string
	// apiKey is the bearer token sent with each request.
	apiKey string
	// model is the embedding model name.
	model string
	// client is the shared HTTP client with a sensible timeout.
	client *http.Client
}

// OpenAIConfig holds the settings for constructing an OpenAIEmbedder.
type OpenAIConfig struct {
	// BaseURL is the API base URL (e.g. "https://api.openai.com/v1").
	BaseURL string
	// APIKey is the API key used as a bearer token.
	APIKey string
	// Model is the embedding model name (e.g. "text-embedding-3-small").
	Model string
}

// NewOpenAIEmbedder constructs an OpenAIEmbedder from the given config.
func NewOpenAIEmbedder(cfg *OpenAIConfig) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// EmbedPassage embeds a document chunk with the passage role tag.
func (e *OpenAIEmbedder) EmbedPassage(ctx context.Context, text string) ([]float32, error) {
	return e.embedOne(ctx, passagePrefix+text)
}

// EmbedQuery embeds a search question with the query role tag.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embedOne(ctx, queryPrefix+text)
}

// openaiEmbedRequest is the JSON body for POST {base}/embeddings.
type openaiEmbedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions"`
}

// openaiEmbedResponse is the JSON body returned from the embeddings endpoint.
type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// embedOne sends a single tagged text to the API and validates the result.
func (e *OpenAIEmbedder) embedOne(ctx context.Context, tagged string) ([]float32, error) {
	body := openaiEmbedRequest{
		Model:      e.model,
		Input:      []string{tagged},
		Dimensions: Dimensions,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openai embedder: marshal request: %w", err)
	}

	url := e.baseURL + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("openai embedder: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai embedder: %w: %w", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	var result openaiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("openai embedder: decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		return nil, fmt.Errorf("openai embedder: %w: %s", ErrBackendUnavailable, msg)
	}

	if len(result.Data) != 1 {
		return nil, fmt.Errorf("openai embedder: expected 1 embedding, got %d", len(result.Data))
	}
	if err := checkDimensions(result.Data[0].Embedding); err != nil {
		return nil, fmt.Errorf("openai embedder: model %q: %w", e.model, err)
	}

	return result.Data[0].Embedding, nil
}
