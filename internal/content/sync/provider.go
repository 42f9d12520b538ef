package sync

import (
	"context"
	"time"

	accountdomain "nexus-backend/internal/account/domain"
	contentdomain "nexus-backend/internal/content/domain"
)

// FetchResult holds the normalized items one provider fetch produced.
type FetchResult struct {
	Threads        []*contentdomain.Thread
	Messages       []*contentdomain.Message
	Files          []*contentdomain.File
	KnowledgePages []*contentdomain.KnowledgePage
}

// ItemCount returns the total number of fetched items.
func (r *FetchResult) ItemCount() int {
	return len(r.Threads) + len(r.Messages) + len(r.Files) + len(r.KnowledgePages)
}

// ProviderClient fetches recent content for one connected account. One
// implementation exists per provider type; the worker dispatches on
// account.Provider.
type ProviderClient interface {
	FetchRecent(ctx context.Context, account *accountdomain.ConnectedAccount, since time.Time) (*FetchResult, error)
}
