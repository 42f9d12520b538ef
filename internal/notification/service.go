package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	accountrepo "nexus-backend/internal/account/repository"
	authrepo "nexus-backend/internal/auth/repository"
	"nexus-backend/pkg/fcm"
	"nexus-backend/pkg/sse"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// GmailNotification is the payload Gmail publishes to the watch topic.
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// SyncQueue enqueues a background sync for a connected account.
type SyncQueue interface {
	QueueAccountSync(accountID string) bool
}

// Service listens for provider push notifications and turns them into sync
// jobs plus user-facing notifications.
type Service struct {
	pubsubClient *pubsub.Client
	sseManager   *sse.Manager
	accountRepo  accountrepo.AccountRepository
	fcmRepo      authrepo.FCMTokenRepository
	fcmClient    *fcm.Client
	syncQueue    SyncQueue
	projectID    string
	topicName    string
	subName      string

	// Deduplication: track last historyId per account
	mu            sync.Mutex
	lastHistoryID map[string]uint64
}

// NewService creates a new notification service
func NewService(projectID, topicName string, sseManager *sse.Manager, accountRepo accountrepo.AccountRepository, fcmRepo authrepo.FCMTokenRepository, fcmClient *fcm.Client, syncQueue SyncQueue, credentialsFile string) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &Service{
		pubsubClient:  client,
		sseManager:    sseManager,
		accountRepo:   accountRepo,
		fcmRepo:       fcmRepo,
		fcmClient:     fcmClient,
		syncQueue:     syncQueue,
		projectID:     projectID,
		topicName:     topicName,
		subName:       topicName + "-sub",
		lastHistoryID: make(map[string]uint64),
	}, nil
}

// Start subscribes to the topic and blocks receiving messages until the
// context is cancelled.
func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service with topic: %s, subscription: %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic does not exist, cannot create subscription")
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var notification GmailNotification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		return
	}

	log.Printf("[PubSub] Received notification for: %s (historyId: %d)", notification.EmailAddress, notification.HistoryID)

	account, err := s.accountRepo.FindByAddress(notification.EmailAddress)
	if err != nil {
		log.Printf("[PubSub] Error finding account for %s: %v", notification.EmailAddress, err)
		return
	}
	if account == nil {
		log.Printf("[PubSub] No connected account for address: %s", notification.EmailAddress)
		return
	}

	if s.isDuplicate(account.ID, notification.HistoryID) {
		log.Printf("[PubSub] Skipping duplicate notification for account %s (historyId %d)", account.ID, notification.HistoryID)
		return
	}

	if s.syncQueue != nil {
		s.syncQueue.QueueAccountSync(account.ID)
	}

	if s.sseManager != nil {
		s.sseManager.SendToUser(account.UserID, "account_update", map[string]interface{}{
			"account_id": account.ID,
			"provider":   account.Provider,
			"timestamp":  time.Now(),
		})
	}

	if s.fcmClient != nil && s.fcmRepo != nil {
		go s.sendPush(account.UserID, account.Address)
	}
}

// isDuplicate records the history ID and reports whether it was already seen.
func (s *Service) isDuplicate(accountID string, historyID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, seen := s.lastHistoryID[accountID]
	if seen && historyID <= last {
		return true
	}
	s.lastHistoryID[accountID] = historyID
	return false
}

func (s *Service) sendPush(userID, address string) {
	tokens, err := s.fcmRepo.GetTokensByUserID(userID)
	if err != nil {
		log.Printf("[FCM] Error getting tokens for user %s: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	failed, err := s.fcmClient.SendToDevices(context.Background(), tokenStrings, fcm.NotificationData{
		Title: "New activity",
		Body:  fmt.Sprintf("New items arrived for %s", address),
		Data: map[string]string{
			"type":    "account_update",
			"address": address,
		},
	})
	if err != nil {
		log.Printf("[FCM] Failed to send push to user %s: %v", userID, err)
		return
	}

	for _, token := range failed {
		if err := s.fcmRepo.DeleteToken(token); err != nil {
			log.Printf("[FCM] Failed to prune stale token: %v", err)
		}
	}
}
