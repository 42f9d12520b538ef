package sync

import (
	"context"
	"fmt"
	"time"

	accountdomain "nexus-backend/internal/account/domain"
	accountrepo "nexus-backend/internal/account/repository"
	contentdomain "nexus-backend/internal/content/domain"
	"nexus-backend/pkg/gmail"

	"golang.org/x/oauth2"
)

const gmailFetchLimit = 100

// GmailProvider adapts the Gmail service to the sync worker.
type GmailProvider struct {
	gmailService *gmail.Service
	accountRepo  accountrepo.AccountRepository
}

// NewGmailProvider creates a new GmailProvider
func NewGmailProvider(gmailService *gmail.Service, accountRepo accountrepo.AccountRepository) *GmailProvider {
	return &GmailProvider{
		gmailService: gmailService,
		accountRepo:  accountRepo,
	}
}

func (p *GmailProvider) FetchRecent(ctx context.Context, account *accountdomain.ConnectedAccount, since time.Time) (*FetchResult, error) {
	onTokenRefresh := func(newToken *oauth2.Token) error {
		account.AccessToken = newToken.AccessToken
		if newToken.RefreshToken != "" {
			account.RefreshToken = newToken.RefreshToken
		}
		return p.accountRepo.Update(account)
	}

	emails, err := p.gmailService.ListMessagesSince(ctx, account.AccessToken, account.RefreshToken, since, gmailFetchLimit, onTokenRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gmail messages: %w", err)
	}

	result := &FetchResult{}
	seenThreads := make(map[string]bool)
	for _, email := range emails {
		threadID := email.ThreadID
		if threadID == "" {
			threadID = email.ID
		}
		if !seenThreads[threadID] {
			seenThreads[threadID] = true
			result.Threads = append(result.Threads, &contentdomain.Thread{
				ID:        threadID,
				AccountID: account.ID,
				Provider:  account.Provider,
				Subject:   email.Subject,
				UpdatedAt: email.Date,
			})
		}
		result.Messages = append(result.Messages, &contentdomain.Message{
			ID:        email.ID,
			AccountID: account.ID,
			ThreadID:  threadID,
			Provider:  account.Provider,
			Sender:    email.From,
			Content:   email.Body,
			SentAt:    email.Date,
		})
	}
	return result, nil
}
