package sync

import (
	"context"
	"fmt"
	"time"

	accountdomain "nexus-backend/internal/account/domain"
	contentdomain "nexus-backend/internal/content/domain"
	"nexus-backend/pkg/imap"
)

// IMAPProvider adapts the IMAP service to the sync worker. Accounts linked
// with an app password carry their own server settings.
type IMAPProvider struct {
	imapService *imap.Service
}

// NewIMAPProvider creates a new IMAPProvider
func NewIMAPProvider(imapService *imap.Service) *IMAPProvider {
	return &IMAPProvider{
		imapService: imapService,
	}
}

func (p *IMAPProvider) FetchRecent(ctx context.Context, account *accountdomain.ConnectedAccount, since time.Time) (*FetchResult, error) {
	if account.ImapServer == "" {
		return nil, fmt.Errorf("account %s has no IMAP server configured", account.ID)
	}

	emails, err := p.imapService.FetchSince(account.ImapServer, account.ImapPort, account.Address, account.ImapPassword, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch IMAP messages: %w", err)
	}

	result := &FetchResult{}
	for _, email := range emails {
		// IMAP has no server-side threading, each message is its own thread
		result.Threads = append(result.Threads, &contentdomain.Thread{
			ID:        email.ID,
			AccountID: account.ID,
			Provider:  account.Provider,
			Subject:   email.Subject,
			UpdatedAt: email.Date,
		})
		result.Messages = append(result.Messages, &contentdomain.Message{
			ID:        email.ID,
			AccountID: account.ID,
			ThreadID:  email.ID,
			Provider:  account.Provider,
			Sender:    email.From,
			Content:   email.Body,
			SentAt:    email.Date,
		})
	}
	return result, nil
}
