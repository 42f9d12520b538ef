package repository

import (
	"errors"
	"time"

	accountdomain "nexus-backend/internal/account/domain"
	chatdomain "nexus-backend/internal/chat/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRepository defines the interface for chat session operations
type SessionRepository interface {
	Create(session *chatdomain.ChatSession) error
	FindByID(id string) (*chatdomain.ChatSession, error)
	FindByUserID(userID string) ([]*chatdomain.ChatSession, error)
	Delete(id string) error
	TouchActivity(id string, at time.Time) error

	AddMessage(message *chatdomain.ChatMessage) error
	FindRecentMessages(sessionID string, limit int) ([]*chatdomain.ChatMessage, error)

	UpsertScopeLink(sessionID, scopeID string, enabled bool) error
	FindScopeLinks(sessionID string) ([]*chatdomain.ContextScopeLink, error)
	FindEnabledScopes(sessionID string) ([]*accountdomain.SyncScope, error)
	FindScopeOwner(scopeID string) (string, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new instance of sessionRepository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{
		db: db,
	}
}

func (r *sessionRepository) Create(session *chatdomain.ChatSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	session.LastActivity = now
	return r.db.Create(session).Error
}

func (r *sessionRepository) FindByID(id string) (*chatdomain.ChatSession, error) {
	var session chatdomain.ChatSession
	err := r.db.Where("id = ?", id).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FindByUserID(userID string) ([]*chatdomain.ChatSession, error) {
	var sessions []*chatdomain.ChatSession
	err := r.db.Where("user_id = ?", userID).Order("last_activity DESC").Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&chatdomain.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_session_id = ?", id).Delete(&chatdomain.ContextScopeLink{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&chatdomain.ChatSession{}).Error
	})
}

func (r *sessionRepository) TouchActivity(id string, at time.Time) error {
	return r.db.Model(&chatdomain.ChatSession{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_activity": at,
			"updated_at":    at,
		}).Error
}

func (r *sessionRepository) AddMessage(message *chatdomain.ChatMessage) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()
	return r.db.Create(message).Error
}

// FindRecentMessages returns the last limit messages in chronological order.
func (r *sessionRepository) FindRecentMessages(sessionID string, limit int) ([]*chatdomain.ChatMessage, error) {
	var messages []*chatdomain.ChatMessage
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// Reverse into oldest-first for prompt replay
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *sessionRepository) UpsertScopeLink(sessionID, scopeID string, enabled bool) error {
	var link chatdomain.ContextScopeLink
	err := r.db.Where("chat_session_id = ? AND sync_scope_id = ?", sessionID, scopeID).First(&link).Error

	now := time.Now()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		link = chatdomain.ContextScopeLink{
			ID:            uuid.New().String(),
			ChatSessionID: sessionID,
			SyncScopeID:   scopeID,
			Enabled:       enabled,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return r.db.Create(&link).Error
	} else if err != nil {
		return err
	}

	link.Enabled = enabled
	link.UpdatedAt = now
	return r.db.Save(&link).Error
}

func (r *sessionRepository) FindScopeLinks(sessionID string) ([]*chatdomain.ContextScopeLink, error) {
	var links []*chatdomain.ContextScopeLink
	err := r.db.Preload("SyncScope").
		Where("chat_session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&links).Error
	return links, err
}

// FindEnabledScopes resolves the scopes behind the session's enabled links.
// Used as the pre-fetched input to context retrieval when the caller already
// holds the session.
func (r *sessionRepository) FindEnabledScopes(sessionID string) ([]*accountdomain.SyncScope, error) {
	var scopes []*accountdomain.SyncScope
	err := r.db.
		Joins("JOIN context_scope_links ON context_scope_links.sync_scope_id = sync_scopes.id").
		Where("context_scope_links.chat_session_id = ? AND context_scope_links.enabled = ?", sessionID, true).
		Find(&scopes).Error
	return scopes, err
}

// FindScopeOwner resolves the user owning a scope through its connected
// account. Returns "" when the scope does not exist.
func (r *sessionRepository) FindScopeOwner(scopeID string) (string, error) {
	var owners []string
	err := r.db.Model(&accountdomain.SyncScope{}).
		Joins("JOIN connected_accounts ON connected_accounts.id = sync_scopes.connected_account_id").
		Where("sync_scopes.id = ?", scopeID).
		Limit(1).
		Pluck("connected_accounts.user_id", &owners).Error
	if err != nil {
		return "", err
	}
	if len(owners) == 0 {
		return "", nil
	}
	return owners[0], nil
}
