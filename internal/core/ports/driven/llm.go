package driven

import "context"

// LLMService drives the external text generation call.
//
// Implementations may include:
//   - OpenAI (gpt-4o family)
//   - Ollama (local models)
//   - Any chat-completions compatible inference server
type LLMService interface {
	// Generate produces a text completion from a prompt.
	// It is invoked once per request; retrying is the caller's call.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
