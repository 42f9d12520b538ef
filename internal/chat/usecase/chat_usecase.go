package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	chatdomain "nexus-backend/internal/chat/domain"
	chatdto "nexus-backend/internal/chat/dto"
	"nexus-backend/internal/chat/repository"
	groundingdomain "nexus-backend/internal/grounding/domain"
	groundingrepo "nexus-backend/internal/grounding/repository"
	groundingusecase "nexus-backend/internal/grounding/usecase"
	"nexus-backend/pkg/ai"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound  = errors.New("chat session not found")
	ErrScopeNotFound    = errors.New("sync scope not found")
	ErrContextRetrieval = errors.New("context retrieval failed")
	ErrProviderRejected = errors.New("provider rejected the request")
)

// historyReplayLimit caps how many stored turns are sent back to the LLM.
const historyReplayLimit = 20

// ChatUsecase drives assistant conversations, optionally grounded in the
// user's synchronized data.
type ChatUsecase interface {
	SendMessage(ctx context.Context, userID string, req *chatdto.ChatRequest) (*chatdto.ChatResponse, error)
	GetSessions(userID string) ([]*chatdomain.ChatSession, error)
	GetSessionMessages(userID, sessionID string, limit int) ([]*chatdomain.ChatMessage, error)
	DeleteSession(userID, sessionID string) error
	SetScopeLink(userID, sessionID, scopeID string, enabled bool) error
	GetScopeLinks(userID, sessionID string) ([]*chatdomain.ContextScopeLink, error)
}

type chatUsecase struct {
	sessionRepo repository.SessionRepository
	contextUC   groundingusecase.ContextUsecase
	registry    *ai.Registry
}

// NewChatUsecase creates a new instance of chatUsecase
func NewChatUsecase(sessionRepo repository.SessionRepository, contextUC groundingusecase.ContextUsecase, registry *ai.Registry) ChatUsecase {
	return &chatUsecase{
		sessionRepo: sessionRepo,
		contextUC:   contextUC,
		registry:    registry,
	}
}

// getOrCreateSession returns the user's session, creating it on the first
// message. A session belonging to another user reads as not found. Session
// IDs are always server-generated; a supplied ID only resumes an existing
// session.
func (u *chatUsecase) getOrCreateSession(userID, sessionID string) (*chatdomain.ChatSession, error) {
	if sessionID != "" {
		session, err := u.sessionRepo.FindByID(sessionID)
		if err != nil {
			return nil, err
		}
		if session != nil {
			if session.UserID != userID {
				return nil, ErrSessionNotFound
			}
			return session, nil
		}
	}

	session := &chatdomain.ChatSession{
		ID:     uuid.New().String(),
		UserID: userID,
	}
	if err := u.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (u *chatUsecase) SendMessage(ctx context.Context, userID string, req *chatdto.ChatRequest) (*chatdto.ChatResponse, error) {
	session, err := u.getOrCreateSession(userID, req.SessionID)
	if err != nil {
		return nil, err
	}

	service, err := u.registry.Resolve(req.Provider, req.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}

	if err := u.sessionRepo.AddMessage(&chatdomain.ChatMessage{
		SessionID: session.ID,
		Role:      ai.RoleUser,
		Content:   req.Message,
	}); err != nil {
		return nil, err
	}

	var systemPrompt string
	contextUsed := false
	if req.UseContext {
		summary, err := u.retrieveContext(ctx, session, req)
		if err != nil {
			// Fail loud: the handler decides whether to degrade or report
			return nil, fmt.Errorf("%w: %v", ErrContextRetrieval, err)
		}
		if summary != "" {
			systemPrompt = groundingPreamble + "\n\n" + summary
			contextUsed = true
		}
	}

	history, err := u.sessionRepo.FindRecentMessages(session.ID, historyReplayLimit)
	if err != nil {
		return nil, err
	}
	messages := make([]ai.Message, 0, len(history))
	for _, m := range history {
		messages = append(messages, ai.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := service.Complete(ctx, ai.CompletionRequest{
		Messages:     messages,
		Model:        req.Model,
		SystemPrompt: systemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if err := u.sessionRepo.AddMessage(&chatdomain.ChatMessage{
		SessionID: session.ID,
		Role:      ai.RoleAssistant,
		Content:   reply,
	}); err != nil {
		return nil, err
	}
	if err := u.sessionRepo.TouchActivity(session.ID, time.Now()); err != nil {
		log.Printf("[Chat] Failed to update session activity: %v", err)
	}

	return &chatdto.ChatResponse{
		SessionID:   session.ID,
		Reply:       reply,
		ContextUsed: contextUsed,
	}, nil
}

const groundingPreamble = "You are a personal assistant with access to the user's synchronized data. " +
	"Ground your answers in the context below when it is relevant; say so when it is not."

// retrieveContext builds and summarizes the context bundle for one turn. The
// session is already loaded, so its scopes are passed pre-fetched and the
// engine skips the redundant session lookup.
func (u *chatUsecase) retrieveContext(ctx context.Context, session *chatdomain.ChatSession, req *chatdto.ChatRequest) (string, error) {
	scopes, err := u.sessionRepo.FindEnabledScopes(session.ID)
	if err != nil {
		return "", err
	}

	bundle, err := u.contextUC.BuildContext(ctx, groundingdomain.ContextOptions{
		SessionID:             session.ID,
		TimeWindowDays:        req.TimeWindowDays,
		MaxItemsPerScope:      req.MaxItemsPerScope,
		TruncateContentLength: req.TruncateContentLength,
		Domains:               req.ContextDomains.Toggles(),
	}, &groundingrepo.SessionScopes{
		SessionID: session.ID,
		UserID:    session.UserID,
		Scopes:    scopes,
	})
	if err != nil {
		return "", err
	}
	if bundle == nil || bundle.IsEmpty() {
		return "", nil
	}
	return groundingusecase.SummarizeBundle(bundle), nil
}

func (u *chatUsecase) GetSessions(userID string) ([]*chatdomain.ChatSession, error) {
	return u.sessionRepo.FindByUserID(userID)
}

// ownedSession loads a session and enforces ownership.
func (u *chatUsecase) ownedSession(userID, sessionID string) (*chatdomain.ChatSession, error) {
	session, err := u.sessionRepo.FindByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (u *chatUsecase) GetSessionMessages(userID, sessionID string, limit int) ([]*chatdomain.ChatMessage, error) {
	if _, err := u.ownedSession(userID, sessionID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	return u.sessionRepo.FindRecentMessages(sessionID, limit)
}

func (u *chatUsecase) DeleteSession(userID, sessionID string) error {
	if _, err := u.ownedSession(userID, sessionID); err != nil {
		return err
	}
	return u.sessionRepo.Delete(sessionID)
}

func (u *chatUsecase) SetScopeLink(userID, sessionID, scopeID string, enabled bool) error {
	if _, err := u.ownedSession(userID, sessionID); err != nil {
		return err
	}
	owner, err := u.sessionRepo.FindScopeOwner(scopeID)
	if err != nil {
		return err
	}
	// A scope behind someone else's account reads as not found
	if owner == "" || owner != userID {
		return ErrScopeNotFound
	}
	return u.sessionRepo.UpsertScopeLink(sessionID, scopeID, enabled)
}

func (u *chatUsecase) GetScopeLinks(userID, sessionID string) ([]*chatdomain.ContextScopeLink, error) {
	if _, err := u.ownedSession(userID, sessionID); err != nil {
		return nil, err
	}
	return u.sessionRepo.FindScopeLinks(sessionID)
}
