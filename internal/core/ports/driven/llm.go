package driven

import (
	"context"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
)

// GenerationService is the external LLM text-generation collaborator.
// The core treats the model as an opaque, possibly-unreliable text
// transformation service: calls may fail and may omit usage data.
//
// Implementations may include:
//   - OpenAI (chat completions API)
//   - Ollama (local models)
type GenerationService interface {
	// Chat makes one non-streaming generation call with role-tagged
	// messages. The returned Usage pointer is nil when the service did
	// not report token counts.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (*GenerationResult, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures a generation call.
type ChatOptions struct {
	// MaxTokens is the upper bound on response length.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}

// GenerationResult is the outcome of one generation call.
type GenerationResult struct {
	// Text is the model output.
	Text string

	// Usage holds the reported token counts, or nil when the service
	// omitted them.
	Usage *domain.TokenUsage
}
