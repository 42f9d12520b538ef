package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	accountdomain "nexus-backend/internal/account/domain"
	chatdomain "nexus-backend/internal/chat/domain"
	chatdto "nexus-backend/internal/chat/dto"
	groundingdomain "nexus-backend/internal/grounding/domain"
	groundingrepo "nexus-backend/internal/grounding/repository"
	"nexus-backend/pkg/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSessionRepo struct {
	sessions    map[string]*chatdomain.ChatSession
	messages    map[string][]*chatdomain.ChatMessage
	scopes      map[string][]*accountdomain.SyncScope
	links       map[string][]*chatdomain.ContextScopeLink
	scopeOwners map[string]string
	deleted     []string
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{
		sessions:    make(map[string]*chatdomain.ChatSession),
		messages:    make(map[string][]*chatdomain.ChatMessage),
		scopes:      make(map[string][]*accountdomain.SyncScope),
		links:       make(map[string][]*chatdomain.ContextScopeLink),
		scopeOwners: make(map[string]string),
	}
}

func (m *mockSessionRepo) Create(session *chatdomain.ChatSession) error {
	m.sessions[session.ID] = session
	return nil
}

func (m *mockSessionRepo) FindByID(id string) (*chatdomain.ChatSession, error) {
	return m.sessions[id], nil
}

func (m *mockSessionRepo) FindByUserID(userID string) ([]*chatdomain.ChatSession, error) {
	var out []*chatdomain.ChatSession
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSessionRepo) Delete(id string) error {
	delete(m.sessions, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockSessionRepo) TouchActivity(id string, at time.Time) error {
	return nil
}

func (m *mockSessionRepo) AddMessage(message *chatdomain.ChatMessage) error {
	m.messages[message.SessionID] = append(m.messages[message.SessionID], message)
	return nil
}

func (m *mockSessionRepo) FindRecentMessages(sessionID string, limit int) ([]*chatdomain.ChatMessage, error) {
	msgs := m.messages[sessionID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (m *mockSessionRepo) UpsertScopeLink(sessionID, scopeID string, enabled bool) error {
	m.links[sessionID] = append(m.links[sessionID], &chatdomain.ContextScopeLink{
		ChatSessionID: sessionID,
		SyncScopeID:   scopeID,
		Enabled:       enabled,
	})
	return nil
}

func (m *mockSessionRepo) FindScopeLinks(sessionID string) ([]*chatdomain.ContextScopeLink, error) {
	return m.links[sessionID], nil
}

func (m *mockSessionRepo) FindEnabledScopes(sessionID string) ([]*accountdomain.SyncScope, error) {
	return m.scopes[sessionID], nil
}

func (m *mockSessionRepo) FindScopeOwner(scopeID string) (string, error) {
	return m.scopeOwners[scopeID], nil
}

type stubContextUsecase struct {
	bundle        *groundingdomain.ContextBundle
	err           error
	gotOpts       groundingdomain.ContextOptions
	gotPrefetched *groundingrepo.SessionScopes
}

func (s *stubContextUsecase) ResolveScopes(ctx context.Context, sessionID string, prefetched *groundingrepo.SessionScopes, toggles groundingdomain.DomainToggles) ([]*accountdomain.SyncScope, error) {
	return nil, nil
}

func (s *stubContextUsecase) BuildContext(ctx context.Context, opts groundingdomain.ContextOptions, prefetched *groundingrepo.SessionScopes) (*groundingdomain.ContextBundle, error) {
	s.gotOpts = opts
	s.gotPrefetched = prefetched
	return s.bundle, s.err
}

// ollamaRequest captures what the chat usecase sent to the model server.
type ollamaRequest struct {
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestServerAndRegistry(t *testing.T, reply string, captured *ollamaRequest) *ai.Registry {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": reply},
			"done":    true,
		})
	}))
	t.Cleanup(server.Close)

	registry, err := ai.NewRegistry(ai.Config{
		Provider:         ai.ProviderOllama,
		GetOllamaBaseURL: func() string { return server.URL },
		GetOllamaModel:   func() string { return "llama3" },
	})
	require.NoError(t, err)
	return registry
}

func TestSendMessageCreatesSessionAndPersistsTurns(t *testing.T) {
	repo := newMockSessionRepo()
	registry := newTestServerAndRegistry(t, "hello there", nil)
	uc := NewChatUsecase(repo, &stubContextUsecase{}, registry)

	resp, err := uc.SendMessage(context.Background(), "user-1", &chatdto.ChatRequest{
		Message: "hi",
	})

	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "hello there", resp.Reply)
	assert.False(t, resp.ContextUsed)

	stored := repo.messages[resp.SessionID]
	require.Len(t, stored, 2)
	assert.Equal(t, ai.RoleUser, stored[0].Role)
	assert.Equal(t, "hi", stored[0].Content)
	assert.Equal(t, ai.RoleAssistant, stored[1].Role)
	assert.Equal(t, "hello there", stored[1].Content)
}

func TestSendMessageGroundsSystemPromptInContext(t *testing.T) {
	repo := newMockSessionRepo()
	var captured ollamaRequest
	registry := newTestServerAndRegistry(t, "grounded reply", &captured)
	contextUC := &stubContextUsecase{
		bundle: &groundingdomain.ContextBundle{
			Messages: []groundingdomain.ContextMessage{{Sender: "alice", Content: "ship it"}},
		},
	}
	uc := NewChatUsecase(repo, contextUC, registry)

	resp, err := uc.SendMessage(context.Background(), "user-1", &chatdto.ChatRequest{
		Message:    "what did alice say?",
		UseContext: true,
	})

	require.NoError(t, err)
	assert.True(t, resp.ContextUsed)
	require.NotEmpty(t, captured.Messages)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[0].Content, "Recent Messages (1):")
	assert.Contains(t, captured.Messages[0].Content, "alice: ship it...")
}

func TestSendMessagePassesRequestOptionsAndPrefetchedScopes(t *testing.T) {
	repo := newMockSessionRepo()
	repo.sessions["session-1"] = &chatdomain.ChatSession{ID: "session-1", UserID: "user-1"}
	repo.scopes["session-1"] = []*accountdomain.SyncScope{
		{ID: "scope-1", ConnectedAccountID: "acc-1", ScopeType: accountdomain.ScopeTypeGmailLabel, Enabled: true},
	}
	registry := newTestServerAndRegistry(t, "ok", nil)
	contextUC := &stubContextUsecase{bundle: &groundingdomain.ContextBundle{}}
	uc := NewChatUsecase(repo, contextUC, registry)

	disabled := false
	_, err := uc.SendMessage(context.Background(), "user-1", &chatdto.ChatRequest{
		SessionID:             "session-1",
		Message:               "hi",
		UseContext:            true,
		TimeWindowDays:        7,
		MaxItemsPerScope:      3,
		TruncateContentLength: 200,
		ContextDomains:        &chatdto.ContextDomains{Files: &disabled},
	})

	require.NoError(t, err)
	assert.Equal(t, "session-1", contextUC.gotOpts.SessionID)
	assert.Equal(t, 7, contextUC.gotOpts.TimeWindowDays)
	assert.Equal(t, 3, contextUC.gotOpts.MaxItemsPerScope)
	assert.Equal(t, 200, contextUC.gotOpts.TruncateContentLength)
	assert.True(t, contextUC.gotOpts.Domains.Emails)
	assert.False(t, contextUC.gotOpts.Domains.Files)

	require.NotNil(t, contextUC.gotPrefetched)
	assert.Equal(t, "session-1", contextUC.gotPrefetched.SessionID)
	require.Len(t, contextUC.gotPrefetched.Scopes, 1)
	assert.Equal(t, "scope-1", contextUC.gotPrefetched.Scopes[0].ID)
}

func TestSendMessageContextFailureFailsTheTurn(t *testing.T) {
	repo := newMockSessionRepo()
	registry := newTestServerAndRegistry(t, "never", nil)
	contextUC := &stubContextUsecase{err: errors.New("store down")}
	uc := NewChatUsecase(repo, contextUC, registry)

	_, err := uc.SendMessage(context.Background(), "user-1", &chatdto.ChatRequest{
		Message:    "hi",
		UseContext: true,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContextRetrieval)
}

func TestSendMessageRejectsUnknownProvider(t *testing.T) {
	repo := newMockSessionRepo()
	registry := newTestServerAndRegistry(t, "never", nil)
	uc := NewChatUsecase(repo, &stubContextUsecase{}, registry)

	_, err := uc.SendMessage(context.Background(), "user-1", &chatdto.ChatRequest{
		Message:  "hi",
		Provider: "gemini",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderRejected)
}

func TestSendMessageOtherUsersSessionReadsAsNotFound(t *testing.T) {
	repo := newMockSessionRepo()
	repo.sessions["session-1"] = &chatdomain.ChatSession{ID: "session-1", UserID: "user-2"}
	registry := newTestServerAndRegistry(t, "never", nil)
	uc := NewChatUsecase(repo, &stubContextUsecase{}, registry)

	_, err := uc.SendMessage(context.Background(), "user-1", &chatdto.ChatRequest{
		SessionID: "session-1",
		Message:   "hi",
	})

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteSessionEnforcesOwnership(t *testing.T) {
	repo := newMockSessionRepo()
	repo.sessions["session-1"] = &chatdomain.ChatSession{ID: "session-1", UserID: "user-2"}
	registry := newTestServerAndRegistry(t, "never", nil)
	uc := NewChatUsecase(repo, &stubContextUsecase{}, registry)

	err := uc.DeleteSession("user-1", "session-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = uc.DeleteSession("user-2", "session-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"session-1"}, repo.deleted)
}

func TestSetScopeLink(t *testing.T) {
	repo := newMockSessionRepo()
	repo.sessions["session-1"] = &chatdomain.ChatSession{ID: "session-1", UserID: "user-1"}
	repo.scopeOwners["scope-1"] = "user-1"
	registry := newTestServerAndRegistry(t, "never", nil)
	uc := NewChatUsecase(repo, &stubContextUsecase{}, registry)

	require.NoError(t, uc.SetScopeLink("user-1", "session-1", "scope-1", true))

	links, err := uc.GetScopeLinks("user-1", "session-1")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "scope-1", links[0].SyncScopeID)
	assert.True(t, links[0].Enabled)
}

func TestSetScopeLinkRejectsAnotherUsersScope(t *testing.T) {
	repo := newMockSessionRepo()
	repo.sessions["session-1"] = &chatdomain.ChatSession{ID: "session-1", UserID: "user-1"}
	repo.scopeOwners["scope-foreign"] = "user-2"
	registry := newTestServerAndRegistry(t, "never", nil)
	contextUC := &stubContextUsecase{bundle: &groundingdomain.ContextBundle{}}
	uc := NewChatUsecase(repo, contextUC, registry)

	err := uc.SetScopeLink("user-1", "session-1", "scope-foreign", true)
	assert.ErrorIs(t, err, ErrScopeNotFound)
	assert.Empty(t, repo.links["session-1"])

	// The rejected scope must never reach context retrieval
	_, err = uc.SendMessage(context.Background(), "user-1", &chatdto.ChatRequest{
		SessionID:  "session-1",
		Message:    "what is in my inbox?",
		UseContext: true,
	})
	require.NoError(t, err)
	require.NotNil(t, contextUC.gotPrefetched)
	assert.Empty(t, contextUC.gotPrefetched.Scopes)
}

func TestSetScopeLinkRejectsUnknownScope(t *testing.T) {
	repo := newMockSessionRepo()
	repo.sessions["session-1"] = &chatdomain.ChatSession{ID: "session-1", UserID: "user-1"}
	registry := newTestServerAndRegistry(t, "never", nil)
	uc := NewChatUsecase(repo, &stubContextUsecase{}, registry)

	err := uc.SetScopeLink("user-1", "session-1", "scope-missing", true)
	assert.ErrorIs(t, err, ErrScopeNotFound)
	assert.Empty(t, repo.links["session-1"])
}

func TestSendMessageOmittedDomainsEnableAllCategories(t *testing.T) {
	repo := newMockSessionRepo()
	registry := newTestServerAndRegistry(t, "ok", nil)
	contextUC := &stubContextUsecase{bundle: &groundingdomain.ContextBundle{}}
	uc := NewChatUsecase(repo, contextUC, registry)

	_, err := uc.SendMessage(context.Background(), "user-1", &chatdto.ChatRequest{
		Message:    "hi",
		UseContext: true,
	})

	require.NoError(t, err)
	assert.Equal(t, groundingdomain.AllDomains(), contextUC.gotOpts.Domains)
}

func TestSendMessageIgnoresUnknownSessionID(t *testing.T) {
	repo := newMockSessionRepo()
	registry := newTestServerAndRegistry(t, "ok", nil)
	uc := NewChatUsecase(repo, &stubContextUsecase{}, registry)

	resp, err := uc.SendMessage(context.Background(), "user-1", &chatdto.ChatRequest{
		SessionID: "client-chosen-id",
		Message:   "hi",
	})

	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionID)
	assert.NotEqual(t, "client-chosen-id", resp.SessionID)
}
