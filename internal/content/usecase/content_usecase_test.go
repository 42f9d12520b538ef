package usecase

import (
	"context"
	"testing"
	"time"

	accountdomain "nexus-backend/internal/account/domain"
	contentdomain "nexus-backend/internal/content/domain"
	"nexus-backend/internal/content/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockContentRepo struct {
	messages map[string]*contentdomain.Message
	subjects []string

	upsertedThreads  []*contentdomain.Thread
	upsertedMessages []*contentdomain.Message
	upsertedFiles    []*contentdomain.File
	upsertedPages    []*contentdomain.KnowledgePage
}

func newMockContentRepo() *mockContentRepo {
	return &mockContentRepo{messages: make(map[string]*contentdomain.Message)}
}

func (m *mockContentRepo) UpsertThread(thread *contentdomain.Thread) error {
	m.upsertedThreads = append(m.upsertedThreads, thread)
	return nil
}

func (m *mockContentRepo) UpsertMessage(message *contentdomain.Message) error {
	m.upsertedMessages = append(m.upsertedMessages, message)
	return nil
}

func (m *mockContentRepo) UpsertFile(file *contentdomain.File) error {
	m.upsertedFiles = append(m.upsertedFiles, file)
	return nil
}

func (m *mockContentRepo) UpsertKnowledgePage(page *contentdomain.KnowledgePage) error {
	m.upsertedPages = append(m.upsertedPages, page)
	return nil
}

func (m *mockContentRepo) FindMessageByID(id string) (*contentdomain.Message, error) {
	return m.messages[id], nil
}

func (m *mockContentRepo) FindMessagesByIDs(ids []string) ([]*contentdomain.Message, error) {
	// Deliberately returns in arbitrary (map) order, the usecase must re-sort
	var out []*contentdomain.Message
	for _, msg := range m.messages {
		for _, id := range ids {
			if msg.ID == id {
				out = append(out, msg)
				break
			}
		}
	}
	return out, nil
}

func (m *mockContentRepo) FindRecentSubjects(accountIDs []string, limit int) ([]string, error) {
	return m.subjects, nil
}

func (m *mockContentRepo) RecordSyncRun(history *contentdomain.SyncHistory) error {
	return nil
}

type mockAccountRepo struct {
	accounts map[string]*accountdomain.ConnectedAccount
}

func (m *mockAccountRepo) Create(account *accountdomain.ConnectedAccount) error { return nil }
func (m *mockAccountRepo) FindByID(id string) (*accountdomain.ConnectedAccount, error) {
	return m.accounts[id], nil
}
func (m *mockAccountRepo) FindByUserID(userID string) ([]*accountdomain.ConnectedAccount, error) {
	var out []*accountdomain.ConnectedAccount
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}
func (m *mockAccountRepo) FindByAddress(address string) (*accountdomain.ConnectedAccount, error) {
	return nil, nil
}
func (m *mockAccountRepo) Update(account *accountdomain.ConnectedAccount) error { return nil }
func (m *mockAccountRepo) MarkSynced(id string, at time.Time) error             { return nil }

type mockSearcher struct {
	ids      []string
	indexed  []string
	gotQuery string
	gotLimit int
}

func (m *mockSearcher) SemanticSearch(ctx context.Context, userID, query string, limit int) ([]string, []float64, error) {
	m.gotQuery = query
	m.gotLimit = limit
	return m.ids, nil, nil
}

func (m *mockSearcher) UpsertMessageEmbedding(ctx context.Context, messageID, userID, subject, content string) error {
	m.indexed = append(m.indexed, messageID)
	return nil
}

func TestSemanticSearchPreservesRelevanceOrder(t *testing.T) {
	contentRepo := newMockContentRepo()
	contentRepo.messages["msg-1"] = &contentdomain.Message{ID: "msg-1", Content: "first"}
	contentRepo.messages["msg-2"] = &contentdomain.Message{ID: "msg-2", Content: "second"}
	contentRepo.messages["msg-3"] = &contentdomain.Message{ID: "msg-3", Content: "third"}

	searcher := &mockSearcher{ids: []string{"msg-3", "msg-1", "msg-2"}}
	uc := NewContentUsecase(contentRepo, &mockAccountRepo{}, searcher)

	results, err := uc.SemanticSearch(context.Background(), "user-1", "query", 10)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "msg-3", results[0].ID)
	assert.Equal(t, "msg-1", results[1].ID)
	assert.Equal(t, "msg-2", results[2].ID)
}

func TestSemanticSearchSkipsVanishedMessages(t *testing.T) {
	contentRepo := newMockContentRepo()
	contentRepo.messages["msg-1"] = &contentdomain.Message{ID: "msg-1"}

	searcher := &mockSearcher{ids: []string{"msg-gone", "msg-1"}}
	uc := NewContentUsecase(contentRepo, &mockAccountRepo{}, searcher)

	results, err := uc.SemanticSearch(context.Background(), "user-1", "query", 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "msg-1", results[0].ID)
}

func TestSemanticSearchClampsLimit(t *testing.T) {
	searcher := &mockSearcher{}
	uc := NewContentUsecase(newMockContentRepo(), &mockAccountRepo{}, searcher)

	_, err := uc.SemanticSearch(context.Background(), "user-1", "query", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultSearchLimit, searcher.gotLimit)

	_, err = uc.SemanticSearch(context.Background(), "user-1", "query", 500)
	require.NoError(t, err)
	assert.Equal(t, maxSearchLimit, searcher.gotLimit)
}

func TestSemanticSearchWithoutSearcherFails(t *testing.T) {
	uc := NewContentUsecase(newMockContentRepo(), &mockAccountRepo{}, nil)

	_, err := uc.SemanticSearch(context.Background(), "user-1", "query", 10)
	assert.Error(t, err)
}

func TestIngestRejectsForeignAccount(t *testing.T) {
	accountRepo := &mockAccountRepo{accounts: map[string]*accountdomain.ConnectedAccount{
		"acc-1": {ID: "acc-1", UserID: "user-2", Provider: "slack"},
	}}
	uc := NewContentUsecase(newMockContentRepo(), accountRepo, nil)

	_, err := uc.Ingest(context.Background(), "user-1", &dto.IngestRequest{AccountID: "acc-1"})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = uc.Ingest(context.Background(), "user-1", &dto.IngestRequest{AccountID: "acc-missing"})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestIngestStoresNormalizedItemsAndIndexes(t *testing.T) {
	contentRepo := newMockContentRepo()
	accountRepo := &mockAccountRepo{accounts: map[string]*accountdomain.ConnectedAccount{
		"acc-1": {ID: "acc-1", UserID: "user-1", Provider: "slack"},
	}}
	searcher := &mockSearcher{}
	uc := NewContentUsecase(contentRepo, accountRepo, searcher)

	sentAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	stored, err := uc.Ingest(context.Background(), "user-1", &dto.IngestRequest{
		AccountID: "acc-1",
		Messages: []dto.IngestItem{
			{ID: "m-1", ThreadID: "t-1", ThreadSubject: "general", Sender: "alice", Content: "hello", SentAt: sentAt},
			{ID: "m-2", ThreadID: "t-1", ThreadSubject: "general", Sender: "bob", Content: "hey", SentAt: sentAt},
		},
		Files: []dto.IngestFile{{ID: "f-1", Name: "notes.txt"}},
		Pages: []dto.IngestPage{{ID: "p-1", Title: "Wiki", ResourceType: "page"}},
	})

	require.NoError(t, err)
	assert.Equal(t, 4, stored)

	// Thread upserted once despite two messages referencing it
	require.Len(t, contentRepo.upsertedThreads, 1)
	assert.Equal(t, "t-1", contentRepo.upsertedThreads[0].ID)
	assert.Equal(t, "slack", contentRepo.upsertedThreads[0].Provider)

	require.Len(t, contentRepo.upsertedMessages, 2)
	assert.Equal(t, "acc-1", contentRepo.upsertedMessages[0].AccountID)
	require.Len(t, contentRepo.upsertedFiles, 1)
	require.Len(t, contentRepo.upsertedPages, 1)

	assert.Equal(t, []string{"m-1", "m-2"}, searcher.indexed)
}

func TestIngestMessageWithoutThreadGetsOwnThread(t *testing.T) {
	contentRepo := newMockContentRepo()
	accountRepo := &mockAccountRepo{accounts: map[string]*accountdomain.ConnectedAccount{
		"acc-1": {ID: "acc-1", UserID: "user-1", Provider: "discord"},
	}}
	uc := NewContentUsecase(contentRepo, accountRepo, nil)

	stored, err := uc.Ingest(context.Background(), "user-1", &dto.IngestRequest{
		AccountID: "acc-1",
		Messages:  []dto.IngestItem{{ID: "m-1", Sender: "carol", Content: "ping"}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, stored)
	require.Len(t, contentRepo.upsertedThreads, 1)
	assert.Equal(t, "m-1", contentRepo.upsertedThreads[0].ID)
	assert.Equal(t, "m-1", contentRepo.upsertedMessages[0].ThreadID)
}
