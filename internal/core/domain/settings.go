package domain

// AIProvider identifies a text-generation backend.
type AIProvider string

// Supported providers.
const (
	AIProviderOpenAI AIProvider = "openai"
	AIProviderOllama AIProvider = "ollama"
)

// GenerationSettings configures the generation-service backend.
type GenerationSettings struct {
	// Provider selects the backend ("openai" or "ollama").
	Provider AIProvider

	// Model is the model name; empty selects the provider default.
	Model string

	// APIKey authenticates hosted providers. Unused by Ollama.
	APIKey string

	// BaseURL overrides the provider endpoint (Azure, compatible APIs,
	// non-default Ollama hosts).
	BaseURL string
}

// IsConfigured reports whether the settings can produce a usable
// service. Ollama needs no credentials; OpenAI requires an API key.
func (s *GenerationSettings) IsConfigured() bool {
	switch s.Provider {
	case AIProviderOllama:
		return true
	case AIProviderOpenAI:
		return s.APIKey != ""
	default:
		return false
	}
}
