package domain

import (
	"testing"

	accountdomain "nexus-backend/internal/account/domain"

	"github.com/stretchr/testify/assert"
)

func TestCategoryForScopeType(t *testing.T) {
	tests := []struct {
		scopeType accountdomain.ScopeType
		want      Category
	}{
		{accountdomain.ScopeTypeGmailLabel, CategoryMessages},
		{accountdomain.ScopeTypeSlackChannel, CategoryMessages},
		{accountdomain.ScopeTypeDiscordChannel, CategoryMessages},
		{accountdomain.ScopeTypeDriveFolder, CategoryFiles},
		{accountdomain.ScopeTypeNotionPage, CategoryKnowledge},
		{accountdomain.ScopeTypeNotionDatabase, CategoryKnowledge},
		{accountdomain.ScopeType("telegram_chat"), CategoryNone},
		{accountdomain.ScopeType(""), CategoryNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CategoryForScopeType(tt.scopeType), "scope type %q", tt.scopeType)
	}
}

func TestDomainTogglesAllows(t *testing.T) {
	toggles := DomainToggles{Emails: true, Chats: false, Files: true, Notion: false}

	assert.True(t, toggles.Allows(accountdomain.ScopeTypeGmailLabel))
	assert.False(t, toggles.Allows(accountdomain.ScopeTypeSlackChannel))
	assert.False(t, toggles.Allows(accountdomain.ScopeTypeDiscordChannel))
	assert.True(t, toggles.Allows(accountdomain.ScopeTypeDriveFolder))
	assert.False(t, toggles.Allows(accountdomain.ScopeTypeNotionPage))
	assert.False(t, toggles.Allows(accountdomain.ScopeTypeNotionDatabase))
}

func TestDomainTogglesNeverAllowUnknownTypes(t *testing.T) {
	all := AllDomains()
	assert.False(t, all.Allows(accountdomain.ScopeType("telegram_chat")))
	assert.False(t, all.Allows(accountdomain.ScopeType("")))
}

func TestGroupAccountsByCategoryDeduplicatesPerCategory(t *testing.T) {
	scopes := []*accountdomain.SyncScope{
		{ConnectedAccountID: "acc-1", ScopeType: accountdomain.ScopeTypeGmailLabel},
		{ConnectedAccountID: "acc-1", ScopeType: accountdomain.ScopeTypeGmailLabel},
		{ConnectedAccountID: "acc-2", ScopeType: accountdomain.ScopeTypeSlackChannel},
		{ConnectedAccountID: "acc-1", ScopeType: accountdomain.ScopeTypeDriveFolder},
		{ConnectedAccountID: "acc-3", ScopeType: accountdomain.ScopeTypeNotionPage},
		{ConnectedAccountID: "acc-3", ScopeType: accountdomain.ScopeTypeNotionDatabase},
		{ConnectedAccountID: "acc-4", ScopeType: accountdomain.ScopeType("telegram_chat")},
	}

	groups := GroupAccountsByCategory(scopes)

	assert.Equal(t, []string{"acc-1", "acc-2"}, groups.Messages)
	assert.Equal(t, []string{"acc-1"}, groups.Files)
	assert.Equal(t, []string{"acc-3"}, groups.Knowledge)
}

func TestGroupAccountsByCategoryPreservesFirstSeenOrder(t *testing.T) {
	scopes := []*accountdomain.SyncScope{
		{ConnectedAccountID: "acc-b", ScopeType: accountdomain.ScopeTypeSlackChannel},
		{ConnectedAccountID: "acc-a", ScopeType: accountdomain.ScopeTypeGmailLabel},
		{ConnectedAccountID: "acc-b", ScopeType: accountdomain.ScopeTypeDiscordChannel},
	}

	groups := GroupAccountsByCategory(scopes)
	assert.Equal(t, []string{"acc-b", "acc-a"}, groups.Messages)
}

func TestContextOptionsDefaults(t *testing.T) {
	opts := ContextOptions{}
	opts.ApplyDefaults()

	assert.Equal(t, DefaultTimeWindowDays, opts.TimeWindowDays)
	assert.Equal(t, DefaultMaxItemsPerScope, opts.MaxItemsPerScope)
	assert.Zero(t, opts.TruncateContentLength)
}
