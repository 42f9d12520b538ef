package domain

import "time"

// ConnectedAccount represents one linked third-party account (a Gmail inbox,
// a Slack workspace, a Drive root, a Notion workspace...). OAuth token exchange
// happens in the settings flow; this stores the resulting credentials opaquely.
type ConnectedAccount struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	UserID       string     `json:"user_id" gorm:"index;not null"`
	Provider     string     `json:"provider" gorm:"not null"` // "gmail", "imap", "slack", "discord", "drive", "notion"
	Address      string     `json:"address"`                  // email address or workspace identifier
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	ImapServer   string     `json:"imap_server,omitempty"`
	ImapPort     int        `json:"imap_port,omitempty"`
	ImapPassword string     `json:"-"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (ConnectedAccount) TableName() string {
	return "connected_accounts"
}

// ScopeType identifies the resource category a SyncScope grants access to.
type ScopeType string

const (
	ScopeTypeGmailLabel     ScopeType = "gmail_label"
	ScopeTypeSlackChannel   ScopeType = "slack_channel"
	ScopeTypeDiscordChannel ScopeType = "discord_channel"
	ScopeTypeDriveFolder    ScopeType = "drive_folder"
	ScopeTypeNotionPage     ScopeType = "notion_page"
	ScopeTypeNotionDatabase ScopeType = "notion_database"
)

// SyncScope is one authorized linkage between a connected account and a
// resource category. Revoking access disables the scope rather than deleting
// it, so session links pointing at it stay intact.
type SyncScope struct {
	ID                 string    `json:"id" gorm:"primaryKey"`
	ConnectedAccountID string    `json:"connected_account_id" gorm:"index;not null"`
	ScopeType          ScopeType `json:"scope_type" gorm:"not null"`
	Name               string    `json:"name"` // label/channel/folder display name
	Enabled            bool      `json:"enabled" gorm:"default:true"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (SyncScope) TableName() string {
	return "sync_scopes"
}
