package domain

import "time"

// Thread is one conversation container: an email thread, a Slack channel
// section, a Discord channel. Messages hang off it.
type Thread struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	AccountID string    `json:"account_id" gorm:"index;not null"`
	Provider  string    `json:"provider" gorm:"not null"`
	Subject   string    `json:"subject"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}

func (Thread) TableName() string {
	return "threads"
}

// Message is one synchronized conversational item (email, Slack message,
// Discord message), normalized across providers.
type Message struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	AccountID string    `json:"account_id" gorm:"index:idx_messages_account_sent;not null"`
	ThreadID  string    `json:"thread_id" gorm:"index;not null"`
	Provider  string    `json:"provider" gorm:"not null"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content" gorm:"type:text"`
	SentAt    time.Time `json:"sent_at" gorm:"index:idx_messages_account_sent"`
	CreatedAt time.Time `json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

// File is synchronized file/document metadata (Drive and friends).
type File struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	AccountID    string    `json:"account_id" gorm:"index:idx_files_account_modified;not null"`
	Provider     string    `json:"provider" gorm:"not null"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mime_type"`
	ViewLink     string    `json:"view_link"`
	ModifiedTime time.Time `json:"modified_time" gorm:"index:idx_files_account_modified"`
	CreatedAt    time.Time `json:"created_at"`
}

func (File) TableName() string {
	return "files"
}

// KnowledgePage is a synchronized knowledge-base resource (Notion page or
// database).
type KnowledgePage struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	AccountID      string    `json:"account_id" gorm:"index:idx_pages_account_edited;not null"`
	Provider       string    `json:"provider" gorm:"not null"`
	Title          string    `json:"title"`
	ResourceType   string    `json:"resource_type"` // "page" or "database"
	Excerpt        string    `json:"excerpt" gorm:"type:text"`
	URL            string    `json:"url"`
	LastEditedTime time.Time `json:"last_edited_time" gorm:"index:idx_pages_account_edited"`
	CreatedAt      time.Time `json:"created_at"`
}

func (KnowledgePage) TableName() string {
	return "knowledge_pages"
}

// SyncHistory records one sync run for a connected account.
type SyncHistory struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	AccountID  string    `json:"account_id" gorm:"index;not null"`
	ItemCount  int       `json:"item_count"`
	Status     string    `json:"status"` // "ok" or "failed"
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (SyncHistory) TableName() string {
	return "sync_history"
}
