package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	accountdomain "nexus-backend/internal/account/domain"
	groundingdomain "nexus-backend/internal/grounding/domain"
	"nexus-backend/internal/grounding/repository"

	"golang.org/x/sync/errgroup"
)

// ContextUsecase builds bounded, time-windowed context bundles for grounding
// chat turns in the user's synchronized data.
type ContextUsecase interface {
	// ResolveScopes computes the scopes a session may read. prefetched lets a
	// caller that already loaded the session's scopes skip the lookup; pass
	// nil to have the usecase fetch them. A missing session yields (nil, nil).
	ResolveScopes(ctx context.Context, sessionID string, prefetched *repository.SessionScopes, toggles groundingdomain.DomainToggles) ([]*accountdomain.SyncScope, error)
	// BuildContext aggregates the three categories concurrently. Returns nil
	// (no error) when the session does not exist.
	BuildContext(ctx context.Context, opts groundingdomain.ContextOptions, prefetched *repository.SessionScopes) (*groundingdomain.ContextBundle, error)
}

type contextUsecase struct {
	scopeReader     repository.ScopeReader
	messageReader   repository.MessageReader
	fileReader      repository.FileReader
	knowledgeReader repository.KnowledgeReader
	// partialResults turns a category fetcher failure into an empty category
	// plus a logged warning instead of failing the whole build.
	partialResults bool
	now            func() time.Time
}

// Readers bundles the stores a context build touches.
type Readers struct {
	Scopes    repository.ScopeReader
	Messages  repository.MessageReader
	Files     repository.FileReader
	Knowledge repository.KnowledgeReader
}

// NewContextUsecase creates a new instance of contextUsecase
func NewContextUsecase(readers Readers, partialResults bool) ContextUsecase {
	return &contextUsecase{
		scopeReader:     readers.Scopes,
		messageReader:   readers.Messages,
		fileReader:      readers.Files,
		knowledgeReader: readers.Knowledge,
		partialResults:  partialResults,
		now:             time.Now,
	}
}

func (u *contextUsecase) ResolveScopes(ctx context.Context, sessionID string, prefetched *repository.SessionScopes, toggles groundingdomain.DomainToggles) ([]*accountdomain.SyncScope, error) {
	sessionScopes := prefetched
	if sessionScopes == nil {
		var err error
		sessionScopes, err = u.scopeReader.FindSessionScopes(ctx, sessionID)
		if err != nil {
			return nil, err
		}
	}
	if sessionScopes == nil {
		// Unknown session: no grounding available, not a failure
		return nil, nil
	}

	authorized := make([]*accountdomain.SyncScope, 0, len(sessionScopes.Scopes))
	for _, scope := range sessionScopes.Scopes {
		if !scope.Enabled {
			continue
		}
		// Unrecognized scope types classify to CategoryNone and toggles
		// never allow them, so both checks exclude malformed scopes.
		if groundingdomain.CategoryForScopeType(scope.ScopeType) == groundingdomain.CategoryNone {
			continue
		}
		if !toggles.Allows(scope.ScopeType) {
			continue
		}
		authorized = append(authorized, scope)
	}
	return authorized, nil
}

func (u *contextUsecase) BuildContext(ctx context.Context, opts groundingdomain.ContextOptions, prefetched *repository.SessionScopes) (*groundingdomain.ContextBundle, error) {
	opts.ApplyDefaults()

	scopes, err := u.ResolveScopes(ctx, opts.SessionID, prefetched, opts.Domains)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scopes: %w", err)
	}
	if scopes == nil {
		return nil, nil
	}

	groups := groundingdomain.GroupAccountsByCategory(scopes)
	since := opts.Since(u.now())
	limit := opts.MaxItemsPerScope

	bundle := &groundingdomain.ContextBundle{
		Messages:       []groundingdomain.ContextMessage{},
		Files:          []groundingdomain.ContextFile{},
		KnowledgePages: []groundingdomain.ContextPage{},
	}

	// The three fetchers touch disjoint data and write disjoint bundle
	// fields, so they run concurrently with no locking.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if len(groups.Messages) == 0 {
			return nil
		}
		messages, err := u.messageReader.FindRecentMessages(gctx, groups.Messages, since, limit)
		if err != nil {
			return u.fetchErr("messages", err)
		}
		bundle.Messages = messages
		return nil
	})

	g.Go(func() error {
		if len(groups.Files) == 0 {
			return nil
		}
		files, err := u.fileReader.FindRecentFiles(gctx, groups.Files, since, limit)
		if err != nil {
			return u.fetchErr("files", err)
		}
		bundle.Files = files
		return nil
	})

	g.Go(func() error {
		if len(groups.Knowledge) == 0 {
			return nil
		}
		pages, err := u.knowledgeReader.FindRecentKnowledgePages(gctx, groups.Knowledge, since, limit)
		if err != nil {
			return u.fetchErr("knowledge pages", err)
		}
		bundle.KnowledgePages = pages
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.TruncateContentLength > 0 {
		for i := range bundle.Messages {
			bundle.Messages[i].Content = truncateRunes(bundle.Messages[i].Content, opts.TruncateContentLength)
		}
	}

	return bundle, nil
}

// fetchErr applies the configured failure policy for one category fetcher.
func (u *contextUsecase) fetchErr(category string, err error) error {
	if u.partialResults {
		log.Printf("[Context] WARN: %s fetch failed, omitting category: %v", category, err)
		return nil
	}
	return fmt.Errorf("%s fetch failed: %w", category, err)
}

// truncateRunes hard-cuts s to at most n characters. No ellipsis here; the
// summarizer owns display truncation.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
