package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OpenAIGenerator implements Generator against an OpenAI-compatible
// /chat/completions endpoint. The prompt is sent as a single user message.
// Safe for concurrent use.
type OpenAIGenerator struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// OpenAIGenConfig holds the settings for constructing an OpenAIGenerator.
type OpenAIGenConfig struct {
	// BaseURL is the API base URL (e.g. "https://api.openai.com/v1").
	BaseURL string
	// APIKey is the API key used as a bearer token.
	APIKey string
	// Model is the chat model name (e.g. "gpt-4o-mini").
	Model string
	// MaxNewTokens caps the generated completion length.
	MaxNewTokens int
	// Temperature controls sampling randomness.
	Temperature float64
	// Timeout bounds a single generation call. Zero selects two minutes.
	Timeout time.Duration
}

// NewOpenAIGenerator constructs an OpenAIGenerator from the given config.
func NewOpenAIGenerator(cfg *OpenAIGenConfig) *OpenAIGenerator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &OpenAIGenerator{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxNewTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

type openaiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openaiChatMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message openaiChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate completes the prompt on the configured model, or modelID when
// given.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt, modelID string) (string, error) {
	model := g.model
	if modelID != "" {
		model = modelID
	}
	body := openaiChatRequest{
		Model:       model,
		Messages:    []openaiChatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("openai generator: marshal request: %w", err)
	}

	url := g.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openai generator: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai generator: %w: %w", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	var result openaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("openai generator: decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		return "", fmt.Errorf("openai generator: %w: %s", ErrBackendUnavailable, msg)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai generator: response contained no choices")
	}
	return result.Choices[0].Message.Content, nil
}
