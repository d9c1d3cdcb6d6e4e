package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// GenerateOptions tune a single completion. Zero values mean provider defaults.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// Usage for a single chat call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// AIServiceAdapter is the port for LLM chat.
type AIServiceAdapter interface {
	// Provider is a short name such as "openai", "gemini" or "mock".
	Provider() string
	// Model is the default model used when the caller passes "".
	Model() string

	ListModels(ctx context.Context) ([]string, error)

	// CountTokens must return prompt tokens for the provided messages
	// (provider-specific counting; best-effort when exact isn't available).
	CountTokens(ctx context.Context, model string, messages []Message) (int, error)

	// Chat returns the assistant text plus usage as reported by the provider.
	Chat(ctx context.Context, model string, messages []Message, opts GenerateOptions) (string, Usage, error)

	// Probe checks that the provider is reachable with the configured credentials.
	Probe(ctx context.Context) error
}
