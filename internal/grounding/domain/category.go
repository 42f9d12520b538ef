package domain

import (
	accountdomain "nexus-backend/internal/account/domain"
)

// Category is the aggregation bucket a scope feeds into.
type Category string

const (
	CategoryMessages  Category = "messages"
	CategoryFiles     Category = "files"
	CategoryKnowledge Category = "knowledge"
	// CategoryNone is the explicit fallback for unrecognized scope types;
	// such scopes are excluded from retrieval (default-deny).
	CategoryNone Category = "none"
)

// CategoryForScopeType maps a scope type to its aggregation category. Total:
// unknown types fall through to CategoryNone, never an error.
func CategoryForScopeType(t accountdomain.ScopeType) Category {
	switch t {
	case accountdomain.ScopeTypeGmailLabel,
		accountdomain.ScopeTypeSlackChannel,
		accountdomain.ScopeTypeDiscordChannel:
		return CategoryMessages
	case accountdomain.ScopeTypeDriveFolder:
		return CategoryFiles
	case accountdomain.ScopeTypeNotionPage,
		accountdomain.ScopeTypeNotionDatabase:
		return CategoryKnowledge
	default:
		return CategoryNone
	}
}

// Allows reports whether the toggles permit a scope of the given type.
// Unknown types are never allowed.
func (d DomainToggles) Allows(t accountdomain.ScopeType) bool {
	switch t {
	case accountdomain.ScopeTypeGmailLabel:
		return d.Emails
	case accountdomain.ScopeTypeSlackChannel, accountdomain.ScopeTypeDiscordChannel:
		return d.Chats
	case accountdomain.ScopeTypeDriveFolder:
		return d.Files
	case accountdomain.ScopeTypeNotionPage, accountdomain.ScopeTypeNotionDatabase:
		return d.Notion
	default:
		return false
	}
}

// CategoryAccounts holds the distinct account IDs contributing to each
// category for one request.
type CategoryAccounts struct {
	Messages  []string
	Files     []string
	Knowledge []string
}

// GroupAccountsByCategory partitions authorized scopes into per-category
// account ID sets. An account exposing several scopes of the same category
// appears once; first-seen order is preserved so queries are deterministic.
func GroupAccountsByCategory(scopes []*accountdomain.SyncScope) CategoryAccounts {
	var groups CategoryAccounts
	seen := map[Category]map[string]bool{
		CategoryMessages:  {},
		CategoryFiles:     {},
		CategoryKnowledge: {},
	}

	for _, scope := range scopes {
		category := CategoryForScopeType(scope.ScopeType)
		if category == CategoryNone {
			continue
		}
		if seen[category][scope.ConnectedAccountID] {
			continue
		}
		seen[category][scope.ConnectedAccountID] = true

		switch category {
		case CategoryMessages:
			groups.Messages = append(groups.Messages, scope.ConnectedAccountID)
		case CategoryFiles:
			groups.Files = append(groups.Files, scope.ConnectedAccountID)
		case CategoryKnowledge:
			groups.Knowledge = append(groups.Knowledge, scope.ConnectedAccountID)
		}
	}

	return groups
}
