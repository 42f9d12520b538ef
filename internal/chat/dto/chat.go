package dto

import (
	groundingdomain "nexus-backend/internal/grounding/domain"
)

// ContextDomains mirrors the per-request domain toggles. Pointer fields so
// an omitted toggle defaults to enabled.
type ContextDomains struct {
	Emails *bool `json:"emails"`
	Chats  *bool `json:"chats"`
	Files  *bool `json:"files"`
	Notion *bool `json:"notion"`
}

// Toggles converts the DTO into domain toggles. A nil receiver (the whole
// map absent from the request) means everything is eligible.
func (d *ContextDomains) Toggles() groundingdomain.DomainToggles {
	toggles := groundingdomain.AllDomains()
	if d == nil {
		return toggles
	}
	if d.Emails != nil {
		toggles.Emails = *d.Emails
	}
	if d.Chats != nil {
		toggles.Chats = *d.Chats
	}
	if d.Files != nil {
		toggles.Files = *d.Files
	}
	if d.Notion != nil {
		toggles.Notion = *d.Notion
	}
	return toggles
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	SessionID             string          `json:"session_id"`
	Message               string          `json:"message" binding:"required"`
	Provider              string          `json:"provider"`
	Model                 string          `json:"model"`
	UseContext            bool            `json:"use_context"`
	ContextDomains        *ContextDomains `json:"context_domains"`
	TimeWindowDays        int             `json:"time_window_days"`
	MaxItemsPerScope      int             `json:"max_items_per_scope"`
	TruncateContentLength int             `json:"truncate_content_length"`
}

// ChatResponse is the reply to POST /api/chat.
type ChatResponse struct {
	SessionID   string `json:"session_id"`
	Reply       string `json:"reply"`
	ContextUsed bool   `json:"context_used"`
}

// ScopeLinkRequest toggles one scope link on a session.
type ScopeLinkRequest struct {
	SyncScopeID string `json:"sync_scope_id" binding:"required"`
	Enabled     *bool  `json:"enabled" binding:"required"`
}
