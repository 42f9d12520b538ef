package sync

import (
	"context"
	"log"
	"sync"
	"time"

	accountrepo "nexus-backend/internal/account/repository"
	contentdomain "nexus-backend/internal/content/domain"
	contentrepo "nexus-backend/internal/content/repository"
	"nexus-backend/pkg/sse"
)

const defaultSyncWindowDays = 30

// SyncJob represents a job to synchronize one connected account
type SyncJob struct {
	AccountID string
}

// VectorIndexer indexes synced messages for semantic search. Optional: a nil
// indexer disables indexing.
type VectorIndexer interface {
	UpsertMessageEmbedding(ctx context.Context, messageID, userID, subject, content string) error
}

// WorkerService runs background content synchronization for connected
// accounts through a pool of workers.
type WorkerService struct {
	accountRepo accountrepo.AccountRepository
	contentRepo contentrepo.ContentRepository
	providers   map[string]ProviderClient
	indexer     VectorIndexer
	sseManager  *sse.Manager
	jobQueue    chan SyncJob
	workerWg    sync.WaitGroup
	workerCount int
	started     bool
	mu          sync.Mutex
}

// NewWorkerService creates a new sync worker service
func NewWorkerService(
	accountRepo accountrepo.AccountRepository,
	contentRepo contentrepo.ContentRepository,
	providers map[string]ProviderClient,
	indexer VectorIndexer,
	sseManager *sse.Manager,
	workerCount int,
) *WorkerService {
	if workerCount <= 0 {
		workerCount = 3
	}

	return &WorkerService{
		accountRepo: accountRepo,
		contentRepo: contentRepo,
		providers:   providers,
		indexer:     indexer,
		sseManager:  sseManager,
		jobQueue:    make(chan SyncJob, 500),
		workerCount: workerCount,
	}
}

// Start starts the sync workers
func (s *WorkerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}

	for i := 0; i < s.workerCount; i++ {
		s.workerWg.Add(1)
		go s.worker(i)
	}
	s.started = true
	log.Printf("[SyncWorker] Started %d workers", s.workerCount)
}

// Stop stops all workers gracefully
func (s *WorkerService) Stop() {
	close(s.jobQueue)
	s.workerWg.Wait()
	log.Println("[SyncWorker] All workers stopped")
}

// QueueAccountSync adds a sync job to the queue (non-blocking). Returns false
// when the queue is full.
func (s *WorkerService) QueueAccountSync(accountID string) bool {
	select {
	case s.jobQueue <- SyncJob{AccountID: accountID}:
		return true
	default:
		log.Printf("[SyncWorker] Queue full, dropping sync job for account %s", accountID)
		return false
	}
}

// worker processes sync jobs from the queue
func (s *WorkerService) worker(id int) {
	defer s.workerWg.Done()

	for job := range s.jobQueue {
		s.processJob(job)
	}

	log.Printf("[SyncWorker] Worker %d stopped", id)
}

// processJob synchronizes one connected account end to end.
func (s *WorkerService) processJob(job SyncJob) {
	ctx := context.Background()
	startedAt := time.Now()

	account, err := s.accountRepo.FindByID(job.AccountID)
	if err != nil {
		log.Printf("[SyncWorker] Error loading account %s: %v", job.AccountID, err)
		return
	}
	if account == nil {
		log.Printf("[SyncWorker] Account %s not found, skipping", job.AccountID)
		return
	}

	provider, ok := s.providers[account.Provider]
	if !ok {
		log.Printf("[SyncWorker] No provider client for %s, skipping account %s", account.Provider, account.ID)
		return
	}

	since := startedAt.AddDate(0, 0, -defaultSyncWindowDays)
	if account.LastSyncedAt != nil && account.LastSyncedAt.After(since) {
		since = *account.LastSyncedAt
	}

	result, err := provider.FetchRecent(ctx, account, since)
	if err != nil {
		log.Printf("[SyncWorker] Fetch failed for account %s: %v", account.ID, err)
		s.recordRun(account.ID, 0, "failed", err.Error(), startedAt)
		return
	}

	stored := s.storeResult(ctx, account.UserID, result)

	s.recordRun(account.ID, stored, "ok", "", startedAt)
	if err := s.accountRepo.MarkSynced(account.ID, startedAt); err != nil {
		log.Printf("[SyncWorker] Failed to mark account %s synced: %v", account.ID, err)
	}

	if s.sseManager != nil {
		s.sseManager.SendToUser(account.UserID, "sync_update", map[string]interface{}{
			"account_id": account.ID,
			"provider":   account.Provider,
			"item_count": stored,
			"timestamp":  time.Now(),
		})
	}

	log.Printf("[SyncWorker] Synced account %s: %d items", account.ID, stored)
}

// storeResult upserts every fetched item and indexes messages for search.
// Individual item failures are logged and skipped so one bad row does not
// abort the run.
func (s *WorkerService) storeResult(ctx context.Context, userID string, result *FetchResult) int {
	stored := 0
	subjects := make(map[string]string, len(result.Threads))

	for _, thread := range result.Threads {
		if err := s.contentRepo.UpsertThread(thread); err != nil {
			log.Printf("[SyncWorker] Failed to upsert thread %s: %v", thread.ID, err)
			continue
		}
		subjects[thread.ID] = thread.Subject
		stored++
	}

	for _, message := range result.Messages {
		if err := s.contentRepo.UpsertMessage(message); err != nil {
			log.Printf("[SyncWorker] Failed to upsert message %s: %v", message.ID, err)
			continue
		}
		stored++

		if s.indexer != nil {
			if err := s.indexer.UpsertMessageEmbedding(ctx, message.ID, userID, subjects[message.ThreadID], message.Content); err != nil {
				log.Printf("[SyncWorker] Failed to index message %s: %v", message.ID, err)
			}
		}
	}

	for _, file := range result.Files {
		if err := s.contentRepo.UpsertFile(file); err != nil {
			log.Printf("[SyncWorker] Failed to upsert file %s: %v", file.ID, err)
			continue
		}
		stored++
	}

	for _, page := range result.KnowledgePages {
		if err := s.contentRepo.UpsertKnowledgePage(page); err != nil {
			log.Printf("[SyncWorker] Failed to upsert page %s: %v", page.ID, err)
			continue
		}
		stored++
	}

	return stored
}

func (s *WorkerService) recordRun(accountID string, itemCount int, status, errMsg string, startedAt time.Time) {
	history := &contentdomain.SyncHistory{
		AccountID:  accountID,
		ItemCount:  itemCount,
		Status:     status,
		Error:      errMsg,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	if err := s.contentRepo.RecordSyncRun(history); err != nil {
		log.Printf("[SyncWorker] Failed to record sync run for account %s: %v", accountID, err)
	}
}
