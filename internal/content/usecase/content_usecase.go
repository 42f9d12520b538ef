package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	accountrepo "nexus-backend/internal/account/repository"
	contentdomain "nexus-backend/internal/content/domain"
	"nexus-backend/internal/content/dto"
	contentrepo "nexus-backend/internal/content/repository"
	"nexus-backend/pkg/fuzzy"
)

var ErrAccountNotFound = errors.New("connected account not found")

const (
	defaultSearchLimit   = 10
	maxSearchLimit       = 50
	suggestionPoolSize   = 200
	defaultSuggestionCap = 8
)

// VectorSearcher answers nearest-neighbor queries over indexed messages.
type VectorSearcher interface {
	SemanticSearch(ctx context.Context, userID, query string, limit int) ([]string, []float64, error)
	UpsertMessageEmbedding(ctx context.Context, messageID, userID, subject, content string) error
}

// ContentUsecase exposes search and ingest over synchronized content.
type ContentUsecase interface {
	SemanticSearch(ctx context.Context, userID, query string, limit int) ([]*contentdomain.Message, error)
	SuggestSubjects(userID, query string, limit int) ([]string, error)
	Ingest(ctx context.Context, userID string, req *dto.IngestRequest) (int, error)
}

type contentUsecase struct {
	contentRepo contentrepo.ContentRepository
	accountRepo accountrepo.AccountRepository
	searcher    VectorSearcher
}

// NewContentUsecase creates a new instance of contentUsecase. The searcher is
// optional; without it semantic search is unavailable.
func NewContentUsecase(contentRepo contentrepo.ContentRepository, accountRepo accountrepo.AccountRepository, searcher VectorSearcher) ContentUsecase {
	return &contentUsecase{
		contentRepo: contentRepo,
		accountRepo: accountRepo,
		searcher:    searcher,
	}
}

// SemanticSearch resolves vector matches back to stored messages, preserving
// relevance order.
func (u *contentUsecase) SemanticSearch(ctx context.Context, userID, query string, limit int) ([]*contentdomain.Message, error) {
	if u.searcher == nil {
		return nil, fmt.Errorf("semantic search is not configured")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	ids, _, err := u.searcher.SemanticSearch(ctx, userID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}
	if len(ids) == 0 {
		return []*contentdomain.Message{}, nil
	}

	messages, err := u.contentRepo.FindMessagesByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	byID := make(map[string]*contentdomain.Message, len(messages))
	for _, m := range messages {
		byID[m.ID] = m
	}
	ordered := make([]*contentdomain.Message, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			ordered = append(ordered, m)
		}
	}
	return ordered, nil
}

// SuggestSubjects ranks recent thread subjects against the typed query.
func (u *contentUsecase) SuggestSubjects(userID, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = defaultSuggestionCap
	}

	accounts, err := u.accountRepo.FindByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	accountIDs := make([]string, 0, len(accounts))
	for _, a := range accounts {
		accountIDs = append(accountIDs, a.ID)
	}

	subjects, err := u.contentRepo.FindRecentSubjects(accountIDs, suggestionPoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load subjects: %w", err)
	}

	return fuzzy.RankCandidates(query, subjects, limit), nil
}

// Ingest stores normalized items pushed by an external sync agent for one of
// the user's connected accounts.
func (u *contentUsecase) Ingest(ctx context.Context, userID string, req *dto.IngestRequest) (int, error) {
	account, err := u.accountRepo.FindByID(req.AccountID)
	if err != nil {
		return 0, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil || account.UserID != userID {
		return 0, ErrAccountNotFound
	}

	stored := 0
	seenThreads := make(map[string]bool)
	for _, item := range req.Messages {
		threadID := item.ThreadID
		if threadID == "" {
			threadID = item.ID
		}
		if !seenThreads[threadID] {
			seenThreads[threadID] = true
			err := u.contentRepo.UpsertThread(&contentdomain.Thread{
				ID:        threadID,
				AccountID: account.ID,
				Provider:  account.Provider,
				Subject:   item.ThreadSubject,
				UpdatedAt: item.SentAt,
			})
			if err != nil {
				log.Printf("[Ingest] Failed to upsert thread %s: %v", threadID, err)
				continue
			}
		}

		err := u.contentRepo.UpsertMessage(&contentdomain.Message{
			ID:        item.ID,
			AccountID: account.ID,
			ThreadID:  threadID,
			Provider:  account.Provider,
			Sender:    item.Sender,
			Content:   item.Content,
			SentAt:    item.SentAt,
		})
		if err != nil {
			log.Printf("[Ingest] Failed to upsert message %s: %v", item.ID, err)
			continue
		}
		stored++

		if u.searcher != nil {
			if err := u.searcher.UpsertMessageEmbedding(ctx, item.ID, userID, item.ThreadSubject, item.Content); err != nil {
				log.Printf("[Ingest] Failed to index message %s: %v", item.ID, err)
			}
		}
	}

	for _, item := range req.Files {
		err := u.contentRepo.UpsertFile(&contentdomain.File{
			ID:           item.ID,
			AccountID:    account.ID,
			Provider:     account.Provider,
			Name:         item.Name,
			MimeType:     item.MimeType,
			ViewLink:     item.ViewLink,
			ModifiedTime: item.ModifiedTime,
		})
		if err != nil {
			log.Printf("[Ingest] Failed to upsert file %s: %v", item.ID, err)
			continue
		}
		stored++
	}

	for _, item := range req.Pages {
		err := u.contentRepo.UpsertKnowledgePage(&contentdomain.KnowledgePage{
			ID:             item.ID,
			AccountID:      account.ID,
			Provider:       account.Provider,
			Title:          item.Title,
			ResourceType:   item.ResourceType,
			Excerpt:        item.Excerpt,
			URL:            item.URL,
			LastEditedTime: item.LastEditedTime,
		})
		if err != nil {
			log.Printf("[Ingest] Failed to upsert page %s: %v", item.ID, err)
			continue
		}
		stored++
	}

	return stored, nil
}
