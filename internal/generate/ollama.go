package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OllamaGenerator implements Generator using the Ollama /api/generate
// endpoint in non-streaming mode. Safe for concurrent use.
type OllamaGenerator struct {
	host        string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// OllamaGenConfig holds the settings for constructing an OllamaGenerator.
type OllamaGenConfig struct {
	// Host is the Ollama server base URL (e.g. "http://localhost:11434").
	Host string
	// Model is the generation model name (e.g. "qwen2.5:3b-instruct").
	Model string
	// MaxNewTokens caps the generated completion length.
	MaxNewTokens int
	// Temperature controls sampling randomness.
	Temperature float64
	// Timeout bounds a single generation call. Zero selects two minutes.
	Timeout time.Duration
}

// NewOllamaGenerator constructs an OllamaGenerator from the given config.
func NewOllamaGenerator(cfg *OllamaGenConfig) *OllamaGenerator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &OllamaGenerator{
		host:        cfg.Host,
		model:       cfg.Model,
		maxTokens:   cfg.MaxNewTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

type ollamaGenOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaGenRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	Stream  bool             `json:"stream"`
	Options ollamaGenOptions `json:"options"`
}

type ollamaGenResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Generate completes the prompt on the configured model, or modelID when
// given.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt, modelID string) (string, error) {
	model := g.model
	if modelID != "" {
		model = modelID
	}
	body := ollamaGenRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaGenOptions{
			Temperature: g.temperature,
			NumPredict:  g.maxTokens,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ollama generator: marshal request: %w", err)
	}

	url := g.host + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ollama generator: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama generator: %w: %w", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	var result ollamaGenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("ollama generator: decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Error != "" {
			msg = result.Error
		}
		return "", fmt.Errorf("ollama generator: %w: %s", ErrBackendUnavailable, msg)
	}

	return result.Response, nil
}
