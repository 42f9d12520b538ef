package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	accountdomain "nexus-backend/internal/account/domain"
	groundingdomain "nexus-backend/internal/grounding/domain"
	"nexus-backend/internal/grounding/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScopeReader struct {
	scopes *repository.SessionScopes
	err    error
}

func (s *stubScopeReader) FindSessionScopes(ctx context.Context, sessionID string) (*repository.SessionScopes, error) {
	return s.scopes, s.err
}

type stubMessageReader struct {
	messages []groundingdomain.ContextMessage
	err      error

	calls       int
	gotAccounts []string
	gotSince    time.Time
	gotLimit    int
}

func (s *stubMessageReader) FindRecentMessages(ctx context.Context, accountIDs []string, since time.Time, limit int) ([]groundingdomain.ContextMessage, error) {
	s.calls++
	s.gotAccounts = accountIDs
	s.gotSince = since
	s.gotLimit = limit
	return s.messages, s.err
}

type stubFileReader struct {
	files []groundingdomain.ContextFile
	err   error
	calls int
}

func (s *stubFileReader) FindRecentFiles(ctx context.Context, accountIDs []string, since time.Time, limit int) ([]groundingdomain.ContextFile, error) {
	s.calls++
	return s.files, s.err
}

type stubKnowledgeReader struct {
	pages []groundingdomain.ContextPage
	err   error
	calls int
}

func (s *stubKnowledgeReader) FindRecentKnowledgePages(ctx context.Context, accountIDs []string, since time.Time, limit int) ([]groundingdomain.ContextPage, error) {
	s.calls++
	return s.pages, s.err
}

type builderFixture struct {
	scopes    *stubScopeReader
	messages  *stubMessageReader
	files     *stubFileReader
	knowledge *stubKnowledgeReader
	uc        *contextUsecase
}

func newBuilderFixture(t *testing.T, scopes *repository.SessionScopes, partialResults bool) *builderFixture {
	t.Helper()
	f := &builderFixture{
		scopes:    &stubScopeReader{scopes: scopes},
		messages:  &stubMessageReader{},
		files:     &stubFileReader{},
		knowledge: &stubKnowledgeReader{},
	}
	uc := NewContextUsecase(Readers{
		Scopes:    f.scopes,
		Messages:  f.messages,
		Files:     f.files,
		Knowledge: f.knowledge,
	}, partialResults)
	f.uc = uc.(*contextUsecase)
	f.uc.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return f
}

func sessionWithScopes(scopes ...*accountdomain.SyncScope) *repository.SessionScopes {
	return &repository.SessionScopes{
		SessionID: "session-1",
		UserID:    "user-1",
		Scopes:    scopes,
	}
}

func enabledScope(accountID string, scopeType accountdomain.ScopeType) *accountdomain.SyncScope {
	return &accountdomain.SyncScope{
		ID:                 accountID + "-" + string(scopeType),
		ConnectedAccountID: accountID,
		ScopeType:          scopeType,
		Enabled:            true,
	}
}

func TestResolveScopesMissingSessionYieldsNil(t *testing.T) {
	f := newBuilderFixture(t, nil, false)

	scopes, err := f.uc.ResolveScopes(context.Background(), "unknown", nil, groundingdomain.AllDomains())

	require.NoError(t, err)
	assert.Nil(t, scopes)
}

func TestResolveScopesExistingSessionWithNoScopesYieldsEmptySlice(t *testing.T) {
	f := newBuilderFixture(t, sessionWithScopes(), false)

	scopes, err := f.uc.ResolveScopes(context.Background(), "session-1", nil, groundingdomain.AllDomains())

	require.NoError(t, err)
	require.NotNil(t, scopes)
	assert.Empty(t, scopes)
}

func TestResolveScopesFiltersDisabledAndUnknownAndToggledOff(t *testing.T) {
	disabled := enabledScope("acc-1", accountdomain.ScopeTypeGmailLabel)
	disabled.Enabled = false

	session := sessionWithScopes(
		disabled,
		enabledScope("acc-2", accountdomain.ScopeTypeGmailLabel),
		enabledScope("acc-3", accountdomain.ScopeType("telegram_chat")),
		enabledScope("acc-4", accountdomain.ScopeTypeDriveFolder),
	)
	f := newBuilderFixture(t, session, false)

	toggles := groundingdomain.DomainToggles{Emails: true, Chats: true, Files: false, Notion: true}
	scopes, err := f.uc.ResolveScopes(context.Background(), "session-1", nil, toggles)

	require.NoError(t, err)
	require.Len(t, scopes, 1)
	assert.Equal(t, "acc-2", scopes[0].ConnectedAccountID)
}

func TestResolveScopesUsesPrefetchedWithoutReaderCall(t *testing.T) {
	f := newBuilderFixture(t, nil, false)
	f.scopes.err = errors.New("reader must not be called")

	prefetched := sessionWithScopes(enabledScope("acc-1", accountdomain.ScopeTypeNotionPage))
	scopes, err := f.uc.ResolveScopes(context.Background(), "session-1", prefetched, groundingdomain.AllDomains())

	require.NoError(t, err)
	require.Len(t, scopes, 1)
}

func TestBuildContextMissingSessionYieldsNilBundle(t *testing.T) {
	f := newBuilderFixture(t, nil, false)

	bundle, err := f.uc.BuildContext(context.Background(), groundingdomain.ContextOptions{
		SessionID: "unknown",
		Domains:   groundingdomain.AllDomains(),
	}, nil)

	require.NoError(t, err)
	assert.Nil(t, bundle)
	assert.Zero(t, f.messages.calls)
}

func TestBuildContextSkipsFetchersForEmptyCategories(t *testing.T) {
	session := sessionWithScopes(enabledScope("acc-1", accountdomain.ScopeTypeGmailLabel))
	f := newBuilderFixture(t, session, false)
	f.messages.messages = []groundingdomain.ContextMessage{{Sender: "alice", Content: "hi"}}

	bundle, err := f.uc.BuildContext(context.Background(), groundingdomain.ContextOptions{
		SessionID: "session-1",
		Domains:   groundingdomain.AllDomains(),
	}, nil)

	require.NoError(t, err)
	require.NotNil(t, bundle)
	assert.Equal(t, 1, f.messages.calls)
	assert.Zero(t, f.files.calls)
	assert.Zero(t, f.knowledge.calls)
	assert.Len(t, bundle.Messages, 1)
	assert.Empty(t, bundle.Files)
	assert.Empty(t, bundle.KnowledgePages)
}

func TestBuildContextPassesGlobalLimitAndWindow(t *testing.T) {
	session := sessionWithScopes(
		enabledScope("acc-1", accountdomain.ScopeTypeGmailLabel),
		enabledScope("acc-2", accountdomain.ScopeTypeSlackChannel),
	)
	f := newBuilderFixture(t, session, false)

	_, err := f.uc.BuildContext(context.Background(), groundingdomain.ContextOptions{
		SessionID:        "session-1",
		TimeWindowDays:   7,
		MaxItemsPerScope: 25,
		Domains:          groundingdomain.AllDomains(),
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"acc-1", "acc-2"}, f.messages.gotAccounts)
	assert.Equal(t, 25, f.messages.gotLimit)
	wantSince := time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, wantSince, f.messages.gotSince)
}

func TestBuildContextAppliesDefaultWindow(t *testing.T) {
	session := sessionWithScopes(enabledScope("acc-1", accountdomain.ScopeTypeGmailLabel))
	f := newBuilderFixture(t, session, false)

	_, err := f.uc.BuildContext(context.Background(), groundingdomain.ContextOptions{
		SessionID: "session-1",
		Domains:   groundingdomain.AllDomains(),
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 10, f.messages.gotLimit)
	wantSince := time.Date(2025, 5, 16, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, wantSince, f.messages.gotSince)
}

func TestBuildContextTruncatesMessageContentByRunes(t *testing.T) {
	session := sessionWithScopes(enabledScope("acc-1", accountdomain.ScopeTypeGmailLabel))
	f := newBuilderFixture(t, session, false)
	f.messages.messages = []groundingdomain.ContextMessage{
		{Sender: "alice", Content: strings.Repeat("é", 250)},
		{Sender: "bob", Content: "short"},
	}

	bundle, err := f.uc.BuildContext(context.Background(), groundingdomain.ContextOptions{
		SessionID:             "session-1",
		TruncateContentLength: 200,
		Domains:               groundingdomain.AllDomains(),
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 200, len([]rune(bundle.Messages[0].Content)))
	assert.Equal(t, strings.Repeat("é", 200), bundle.Messages[0].Content)
	assert.Equal(t, "short", bundle.Messages[1].Content)
}

func TestBuildContextFetcherFailureFailsBuild(t *testing.T) {
	session := sessionWithScopes(
		enabledScope("acc-1", accountdomain.ScopeTypeGmailLabel),
		enabledScope("acc-2", accountdomain.ScopeTypeDriveFolder),
	)
	f := newBuilderFixture(t, session, false)
	f.files.err = errors.New("drive unavailable")

	bundle, err := f.uc.BuildContext(context.Background(), groundingdomain.ContextOptions{
		SessionID: "session-1",
		Domains:   groundingdomain.AllDomains(),
	}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "files fetch failed")
	assert.Nil(t, bundle)
}

func TestBuildContextPartialResultsOmitsFailedCategory(t *testing.T) {
	session := sessionWithScopes(
		enabledScope("acc-1", accountdomain.ScopeTypeGmailLabel),
		enabledScope("acc-2", accountdomain.ScopeTypeDriveFolder),
	)
	f := newBuilderFixture(t, session, true)
	f.messages.messages = []groundingdomain.ContextMessage{{Sender: "alice", Content: "hi"}}
	f.files.err = errors.New("drive unavailable")

	bundle, err := f.uc.BuildContext(context.Background(), groundingdomain.ContextOptions{
		SessionID: "session-1",
		Domains:   groundingdomain.AllDomains(),
	}, nil)

	require.NoError(t, err)
	require.NotNil(t, bundle)
	assert.Len(t, bundle.Messages, 1)
	assert.Empty(t, bundle.Files)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))
	assert.Equal(t, "", truncateRunes("", 3))
}
