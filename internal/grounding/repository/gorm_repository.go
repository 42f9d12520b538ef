package repository

import (
	"context"
	"errors"
	"time"

	accountdomain "nexus-backend/internal/account/domain"
	chatdomain "nexus-backend/internal/chat/domain"
	groundingdomain "nexus-backend/internal/grounding/domain"

	"gorm.io/gorm"
)

// gormGroundingRepository implements the grounding readers with GORM.
// Every query here is read-only.
type gormGroundingRepository struct {
	db *gorm.DB
}

// NewGroundingRepository creates a repository implementing ScopeReader,
// MessageReader, FileReader and KnowledgeReader.
func NewGroundingRepository(db *gorm.DB) *gormGroundingRepository {
	return &gormGroundingRepository{
		db: db,
	}
}

// FindSessionScopes loads the session and the scopes behind its enabled
// links. A missing session returns (nil, nil).
func (r *gormGroundingRepository) FindSessionScopes(ctx context.Context, sessionID string) (*SessionScopes, error) {
	var session chatdomain.ChatSession
	err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var scopes []*accountdomain.SyncScope
	err = r.db.WithContext(ctx).
		Joins("JOIN context_scope_links ON context_scope_links.sync_scope_id = sync_scopes.id").
		Where("context_scope_links.chat_session_id = ? AND context_scope_links.enabled = ?", sessionID, true).
		Find(&scopes).Error
	if err != nil {
		return nil, err
	}

	return &SessionScopes{
		SessionID: session.ID,
		UserID:    session.UserID,
		Scopes:    scopes,
	}, nil
}

// FindRecentMessages runs a single joined query over all accounts with one
// global LIMIT, so the item-count cap holds no matter how many accounts
// contribute. An empty account set issues no query: "IN ()" would otherwise
// be an impossible filter on some stores and match-everything on others.
func (r *gormGroundingRepository) FindRecentMessages(ctx context.Context, accountIDs []string, since time.Time, limit int) ([]groundingdomain.ContextMessage, error) {
	messages := []groundingdomain.ContextMessage{}
	if len(accountIDs) == 0 {
		return messages, nil
	}

	err := r.db.WithContext(ctx).
		Table("messages").
		Select("messages.provider, messages.sender, messages.content, messages.sent_at, threads.subject AS thread_subject").
		Joins("JOIN threads ON threads.id = messages.thread_id").
		Where("messages.account_id IN ?", accountIDs).
		Where("messages.sent_at >= ?", since).
		Order("messages.sent_at DESC").
		Limit(limit).
		Scan(&messages).Error
	return messages, err
}

func (r *gormGroundingRepository) FindRecentFiles(ctx context.Context, accountIDs []string, since time.Time, limit int) ([]groundingdomain.ContextFile, error) {
	files := []groundingdomain.ContextFile{}
	if len(accountIDs) == 0 {
		return files, nil
	}

	err := r.db.WithContext(ctx).
		Table("files").
		Select("provider, name, view_link, modified_time").
		Where("account_id IN ?", accountIDs).
		Where("modified_time >= ?", since).
		Order("modified_time DESC").
		Limit(limit).
		Scan(&files).Error
	return files, err
}

func (r *gormGroundingRepository) FindRecentKnowledgePages(ctx context.Context, accountIDs []string, since time.Time, limit int) ([]groundingdomain.ContextPage, error) {
	pages := []groundingdomain.ContextPage{}
	if len(accountIDs) == 0 {
		return pages, nil
	}

	err := r.db.WithContext(ctx).
		Table("knowledge_pages").
		Select("provider, title, resource_type, url, last_edited_time").
		Where("account_id IN ?", accountIDs).
		Where("last_edited_time >= ?", since).
		Order("last_edited_time DESC").
		Limit(limit).
		Scan(&pages).Error
	return pages, err
}
