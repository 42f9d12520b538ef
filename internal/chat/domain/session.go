package domain

import (
	"time"

	accountdomain "nexus-backend/internal/account/domain"
)

// ChatSession is one assistant conversation. Identity is immutable; only
// LastActivity and the message list change after creation.
type ChatSession struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"index;not null"`
	Title        string    `json:"title"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ChatMessage is one turn in a session's history.
type ChatMessage struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	SessionID string    `json:"session_id" gorm:"index;not null"`
	Role      string    `json:"role" gorm:"not null"` // "user" or "assistant"
	Content   string    `json:"content" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// ContextScopeLink binds a session to a sync scope with a session-local
// enabled flag, independent of the scope's own global enablement. Both must
// be true for the scope to feed context retrieval.
type ContextScopeLink struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	ChatSessionID string    `json:"chat_session_id" gorm:"index:idx_session_scope,unique;not null"`
	SyncScopeID   string    `json:"sync_scope_id" gorm:"index:idx_session_scope,unique;not null"`
	Enabled       bool      `json:"enabled" gorm:"default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	SyncScope *accountdomain.SyncScope `json:"sync_scope,omitempty" gorm:"foreignKey:SyncScopeID"`
}

func (ContextScopeLink) TableName() string {
	return "context_scope_links"
}
