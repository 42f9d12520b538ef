package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Service wraps the Gmail API for content synchronization
type Service struct {
	oauthConfig *oauth2.Config
}

// NewService creates a new Gmail service
func NewService(clientID, clientSecret string) *Service {
	return &Service{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmailapi.GmailReadonlyScope},
		},
	}
}

// Email is one fetched Gmail message, body already extracted.
type Email struct {
	ID       string
	ThreadID string
	Subject  string
	From     string
	Body     string
	Date     time.Time
}

// TokenUpdateCallback persists refreshed OAuth tokens
type TokenUpdateCallback func(newToken *oauth2.Token) error

// client builds an authenticated Gmail API client, persisting any token
// refresh through the callback.
func (s *Service) client(ctx context.Context, accessToken, refreshToken string, onRefresh TokenUpdateCallback) (*gmailapi.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Minute), // Force validity check
	}
	source := s.oauthConfig.TokenSource(ctx, token)

	fresh, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if fresh.AccessToken != accessToken && onRefresh != nil {
		if err := onRefresh(fresh); err != nil {
			log.Printf("[Gmail] Failed to persist refreshed token: %v", err)
		}
	}

	return gmailapi.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(fresh)))
}

// ListMessagesSince fetches message IDs newer than the cutoff and resolves
// each raw message.
func (s *Service) ListMessagesSince(ctx context.Context, accessToken, refreshToken string, since time.Time, maxResults int64, onRefresh TokenUpdateCallback) ([]Email, error) {
	svc, err := s.client(ctx, accessToken, refreshToken, onRefresh)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("after:%d", since.Unix())
	list, err := svc.Users.Messages.List("me").Q(query).MaxResults(maxResults).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	var emails []Email
	for _, ref := range list.Messages {
		msg, err := svc.Users.Messages.Get("me", ref.Id).Format("raw").Do()
		if err != nil {
			log.Printf("[Gmail] Failed to fetch message %s: %v", ref.Id, err)
			continue
		}

		email, err := parseRawMessage(msg)
		if err != nil {
			log.Printf("[Gmail] Failed to parse message %s: %v", ref.Id, err)
			continue
		}
		emails = append(emails, email)
	}

	return emails, nil
}

// parseRawMessage decodes the RFC 822 payload and extracts headers plus the
// first text part.
func parseRawMessage(msg *gmailapi.Message) (Email, error) {
	raw, err := base64.URLEncoding.DecodeString(msg.Raw)
	if err != nil {
		return Email{}, fmt.Errorf("failed to decode raw payload: %w", err)
	}

	reader, err := mail.CreateReader(strings.NewReader(string(raw)))
	if err != nil {
		return Email{}, fmt.Errorf("failed to parse message: %w", err)
	}

	email := Email{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Date:     time.UnixMilli(msg.InternalDate),
	}

	header := reader.Header
	email.Subject, _ = header.Subject()
	if from, err := header.AddressList("From"); err == nil && len(from) > 0 {
		if from[0].Name != "" {
			email.From = from[0].Name
		} else {
			email.From = from[0].Address
		}
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if _, ok := part.Header.(*mail.InlineHeader); ok {
			body, err := io.ReadAll(part.Body)
			if err == nil && email.Body == "" {
				email.Body = string(body)
			}
		}
	}

	return email, nil
}

// Watch registers a Gmail push notification channel publishing to the given
// Pub/Sub topic.
func (s *Service) Watch(ctx context.Context, accessToken, refreshToken, topicName string, onRefresh TokenUpdateCallback) error {
	svc, err := s.client(ctx, accessToken, refreshToken, onRefresh)
	if err != nil {
		return err
	}

	_, err = svc.Users.Watch("me", &gmailapi.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{"INBOX"},
	}).Do()
	if err != nil {
		return fmt.Errorf("failed to register watch: %w", err)
	}
	return nil
}
