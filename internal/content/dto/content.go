package dto

import "time"

// SemanticSearchRequest is the body for POST /api/search/semantic
type SemanticSearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

// IngestItem is one normalized conversational item pushed by an external
// sync agent (Slack, Discord and Notion bridges push instead of being polled).
type IngestItem struct {
	ID            string    `json:"id" binding:"required"`
	ThreadID      string    `json:"thread_id"`
	ThreadSubject string    `json:"thread_subject"`
	Sender        string    `json:"sender"`
	Content       string    `json:"content"`
	SentAt        time.Time `json:"sent_at"`
}

// IngestFile is one normalized file metadata item.
type IngestFile struct {
	ID           string    `json:"id" binding:"required"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mime_type"`
	ViewLink     string    `json:"view_link"`
	ModifiedTime time.Time `json:"modified_time"`
}

// IngestPage is one normalized knowledge-base item.
type IngestPage struct {
	ID             string    `json:"id" binding:"required"`
	Title          string    `json:"title"`
	ResourceType   string    `json:"resource_type"`
	Excerpt        string    `json:"excerpt"`
	URL            string    `json:"url"`
	LastEditedTime time.Time `json:"last_edited_time"`
}

// IngestRequest is the body for POST /api/sync/ingest
type IngestRequest struct {
	AccountID string       `json:"account_id" binding:"required"`
	Messages  []IngestItem `json:"messages"`
	Files     []IngestFile `json:"files"`
	Pages     []IngestPage `json:"pages"`
}

// IngestResponse reports how many items were stored
type IngestResponse struct {
	Stored int `json:"stored"`
}
