package generate

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default generation settings per backend.
const (
	defaultOllamaGenModel = "qwen2.5:3b-instruct"
	defaultOpenAIGenModel = "gpt-4o-mini"
	defaultMaxNewTokens   = 400
	defaultTemperature    = 0.2
)

// NewFromEnv constructs a lazily-initialized Generator from environment
// variables.
//
// Resolution order:
//
//  1. GEN_PROVIDER — none (default), ollama, openai
//  2. GEN_MODEL_ID — overrides the default model for the resolved backend
//  3. GEN_ENDPOINT — overrides the backend's default endpoint
//  4. GEN_API_KEY — API key for remote backends (falls back to OPENAI_API_KEY)
//  5. GEN_MAX_NEW_TOKENS, GEN_TEMPERATURE — sampling parameters
//
// The "none" provider yields a Generator that returns ErrNotConfigured,
// which callers surface as a degraded answer alongside the retrieved
// context. The environment is read eagerly so misconfiguration is reported
// at startup; the HTTP client itself is only built on first use.
func NewFromEnv() (*Lazy, error) {
	provider := getEnvOrDefault("GEN_PROVIDER", "none")
	maxTokens := getEnvInt("GEN_MAX_NEW_TOKENS", defaultMaxNewTokens)
	temperature := getEnvFloat("GEN_TEMPERATURE", defaultTemperature)
	timeout := time.Duration(getEnvInt("GEN_TIMEOUT_SECONDS", 0)) * time.Second

	switch provider {
	case "none", "":
		return NewLazy(nil), nil

	case "ollama":
		host := getEnvOrDefault("GEN_ENDPOINT", getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434"))
		model := getEnvOrDefault("GEN_MODEL_ID", defaultOllamaGenModel)
		return NewLazy(func() (Generator, error) {
			return NewOllamaGenerator(&OllamaGenConfig{
				Host:         host,
				Model:        model,
				MaxNewTokens: maxTokens,
				Temperature:  temperature,
				Timeout:      timeout,
			}), nil
		}), nil

	case "openai":
		apiKey := os.Getenv("GEN_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("generate: openai requires OPENAI_API_KEY or GEN_API_KEY")
		}
		baseURL := getEnvOrDefault("GEN_ENDPOINT", "https://api.openai.com/v1")
		model := getEnvOrDefault("GEN_MODEL_ID", defaultOpenAIGenModel)
		return NewLazy(func() (Generator, error) {
			return NewOpenAIGenerator(&OpenAIGenConfig{
				BaseURL:      baseURL,
				APIKey:       apiKey,
				Model:        model,
				MaxNewTokens: maxTokens,
				Temperature:  temperature,
				Timeout:      timeout,
			}), nil
		}), nil

	default:
		return nil, fmt.Errorf("generate: unknown provider %q — valid values: none, ollama, openai", provider)
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
