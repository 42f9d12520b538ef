package ai

import "context"

// Chat message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of conversation history sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest carries the ordered history, an optional model override
// and an optional system/grounding prompt.
type CompletionRequest struct {
	Messages     []Message
	Model        string
	SystemPrompt string
}

// ChatService is the interface for chat completion providers.
// Implement this interface to add new AI providers (Gemini, OpenAI, Ollama, etc.)
type ChatService interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
