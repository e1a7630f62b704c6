package llm

import "strings"

const defaultOllamaURL = "http://localhost:11434"

// NewOllamaProvider creates a provider for a local Ollama server through its
// OpenAI-compatible endpoint. Ollama needs no API key and has no default model.
func NewOllamaProvider(config Config) (*OpenAIProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}

	if config.Timeout == 0 {
		config.Timeout = 60 // local models are slower
	}

	return newChatProvider("ollama", "ollama", baseURL, config), nil
}
