package ai

import (
	"context"

	"nexus-backend/pkg/gemini"
)

// geminiChatService adapts pkg/gemini to the ChatService interface, mapping
// the assistant role to Gemini's "model" role.
type geminiChatService struct {
	svc *gemini.GeminiService
}

func newGeminiChatService(apiKey string) *geminiChatService {
	return &geminiChatService{svc: gemini.NewGeminiService(apiKey)}
}

func (s *geminiChatService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]gemini.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		messages = append(messages, gemini.ChatMessage{Role: role, Content: m.Content})
	}
	return s.svc.ChatCompletion(ctx, req.Model, req.SystemPrompt, messages)
}
