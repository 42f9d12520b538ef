package imap

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// Email is one fetched IMAP message.
type Email struct {
	ID      string
	Subject string
	From    string
	Body    string
	Date    time.Time
}

// Service fetches mail over IMAP for accounts linked with app passwords
type Service struct{}

// NewService creates a new IMAP service
func NewService() *Service {
	return &Service{}
}

// FetchSince connects to the server, searches INBOX for messages newer than
// the cutoff and downloads their bodies.
func (s *Service) FetchSince(server string, port int, username, password string, since time.Time) ([]Email, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", server, port), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", server, err)
	}
	defer c.Logout()

	if err := c.Login(username, password); err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	if _, err := c.Select("INBOX", true); err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	var emails []Email
	for msg := range messages {
		email := Email{
			ID: fmt.Sprintf("%s:%d", username, msg.Uid),
		}
		if msg.Envelope != nil {
			email.Subject = msg.Envelope.Subject
			email.Date = msg.Envelope.Date
			if len(msg.Envelope.From) > 0 {
				from := msg.Envelope.From[0]
				if from.PersonalName != "" {
					email.From = from.PersonalName
				} else {
					email.From = from.Address()
				}
			}
		}
		if body := msg.GetBody(section); body != nil {
			email.Body = readTextBody(body)
		}
		emails = append(emails, email)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return emails, nil
}

// readTextBody extracts the first inline text part of a message.
func readTextBody(r io.Reader) string {
	mr, err := mail.CreateReader(r)
	if err != nil {
		log.Printf("[IMAP] Failed to parse message body: %v", err)
		return ""
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return ""
		}
		if err != nil {
			return ""
		}
		if _, ok := part.Header.(*mail.InlineHeader); ok {
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return ""
			}
			return string(body)
		}
	}
}
