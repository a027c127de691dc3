package embed

import (
	"fmt"
	"os"
)

// Default embedding models per backend. Both produce 768-dim vectors —
// nomic-embed-text natively, text-embedding-3-small via pinned dimensions.
const (
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"
)

// NewFromEnv constructs an Embedder from environment variables.
//
// Resolution order:
//
//  1. EMBEDDING_PROVIDER — deterministic (default), ollama, openai
//  2. EMBEDDING_MODEL — overrides the default model for the resolved backend
//  3. EMBEDDING_ENDPOINT — overrides the backend's default endpoint
//  4. EMBEDDING_API_KEY — API key for remote backends (falls back to OPENAI_API_KEY)
//
// The deterministic backend needs no configuration and is the default so the
// system runs end-to-end out of the box.
func NewFromEnv() (Embedder, error) {
	backend := getEnvOrDefault("EMBEDDING_PROVIDER", "deterministic")

	switch backend {
	case "deterministic":
		return NewDeterministic(), nil

	case "ollama":
		host := getEnvOrDefault("EMBEDDING_ENDPOINT", getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434"))
		model := getEnvOrDefault("EMBEDDING_MODEL", defaultOllamaModel)
		return NewOllamaEmbedder(&OllamaConfig{
			Host:  host,
			Model: model,
		}), nil

	case "openai":
		apiKey := os.Getenv("EMBEDDING_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embed: openai requires OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		baseURL := getEnvOrDefault("EMBEDDING_ENDPOINT", "https://api.openai.com/v1")
		model := getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel)
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL: baseURL,
			APIKey:  apiKey,
			Model:   model,
		}), nil

	default:
		return nil, fmt.Errorf("embed: unknown backend %q — valid values: deterministic, ollama, openai", backend)
	}
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
