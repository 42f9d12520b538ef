package domain

import "time"

const (
	// DefaultTimeWindowDays is the recency cutoff applied when the request
	// does not specify one.
	DefaultTimeWindowDays = 30
	// DefaultMaxItemsPerScope caps each category's result count.
	DefaultMaxItemsPerScope = 10
)

// DomainToggles controls which broad categories are eligible for context
// retrieval on a single request. The zero value means "nothing allowed";
// use AllDomains for the default-inclusive map.
type DomainToggles struct {
	Emails bool
	Chats  bool
	Files  bool
	Notion bool
}

// AllDomains returns toggles with every category enabled, the default when
// the request omits the toggle map entirely.
func AllDomains() DomainToggles {
	return DomainToggles{Emails: true, Chats: true, Files: true, Notion: true}
}

// ContextOptions is the per-request configuration for a context build.
type ContextOptions struct {
	SessionID        string
	TimeWindowDays   int
	MaxItemsPerScope int
	// TruncateContentLength hard-cuts message content to this many
	// characters before the bundle is returned. Zero disables truncation.
	TruncateContentLength int
	Domains               DomainToggles
}

// ApplyDefaults fills unset numeric fields.
func (o *ContextOptions) ApplyDefaults() {
	if o.TimeWindowDays <= 0 {
		o.TimeWindowDays = DefaultTimeWindowDays
	}
	if o.MaxItemsPerScope <= 0 {
		o.MaxItemsPerScope = DefaultMaxItemsPerScope
	}
}

// Since returns the recency cutoff relative to now.
func (o ContextOptions) Since(now time.Time) time.Time {
	return now.AddDate(0, 0, -o.TimeWindowDays)
}

// ContextMessage is one conversational item in a bundle.
type ContextMessage struct {
	Provider      string    `json:"provider"`
	Sender        string    `json:"sender"`
	Content       string    `json:"content"`
	ThreadSubject string    `json:"thread_subject"`
	SentAt        time.Time `json:"sent_at"`
}

// ContextFile is one file/document item in a bundle.
type ContextFile struct {
	Provider     string    `json:"provider"`
	Name         string    `json:"name"`
	ViewLink     string    `json:"view_link"`
	ModifiedTime time.Time `json:"modified_time"`
}

// ContextPage is one knowledge-base item in a bundle.
type ContextPage struct {
	Provider       string    `json:"provider"`
	Title          string    `json:"title"`
	ResourceType   string    `json:"resource_type"`
	URL            string    `json:"url"`
	LastEditedTime time.Time `json:"last_edited_time"`
}

// ContextBundle is the merged, category-partitioned result of one context
// build. It is transient; nothing persists it.
type ContextBundle struct {
	Messages       []ContextMessage `json:"messages"`
	Files          []ContextFile    `json:"files"`
	KnowledgePages []ContextPage    `json:"knowledge_pages"`
}

// IsEmpty reports whether no category contributed any item.
func (b *ContextBundle) IsEmpty() bool {
	return len(b.Messages) == 0 && len(b.Files) == 0 && len(b.KnowledgePages) == 0
}
