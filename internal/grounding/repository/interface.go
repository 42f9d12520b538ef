package repository

import (
	"context"
	"time"

	accountdomain "nexus-backend/internal/account/domain"
	groundingdomain "nexus-backend/internal/grounding/domain"
)

// SessionScopes is a chat session's identity plus the sync scopes its
// session-enabled links point at. Global scope enablement and domain toggles
// are filtered later, by the authorizer.
type SessionScopes struct {
	SessionID string
	UserID    string
	Scopes    []*accountdomain.SyncScope
}

// ScopeReader loads a session's linked scopes. A missing session yields
// (nil, nil), never an error: callers treat that as "no grounding available".
type ScopeReader interface {
	FindSessionScopes(ctx context.Context, sessionID string) (*SessionScopes, error)
}

// MessageReader fetches recent conversational items for a set of accounts.
// The limit is global across the whole account set, not per account.
type MessageReader interface {
	FindRecentMessages(ctx context.Context, accountIDs []string, since time.Time, limit int) ([]groundingdomain.ContextMessage, error)
}

// FileReader fetches recent file metadata for a set of accounts.
type FileReader interface {
	FindRecentFiles(ctx context.Context, accountIDs []string, since time.Time, limit int) ([]groundingdomain.ContextFile, error)
}

// KnowledgeReader fetches recent knowledge-base pages for a set of accounts.
type KnowledgeReader interface {
	FindRecentKnowledgePages(ctx context.Context, accountIDs []string, since time.Time, limit int) ([]groundingdomain.ContextPage, error)
}
