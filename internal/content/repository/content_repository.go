package repository

import (
	"errors"
	"time"

	contentdomain "nexus-backend/internal/content/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentRepository persists synchronized content. Upserts are keyed on the
// provider-side item ID so re-syncing the same window is idempotent.
type ContentRepository interface {
	UpsertThread(thread *contentdomain.Thread) error
	UpsertMessage(message *contentdomain.Message) error
	UpsertFile(file *contentdomain.File) error
	UpsertKnowledgePage(page *contentdomain.KnowledgePage) error
	FindMessageByID(id string) (*contentdomain.Message, error)
	FindMessagesByIDs(ids []string) ([]*contentdomain.Message, error)
	FindRecentSubjects(accountIDs []string, limit int) ([]string, error)
	RecordSyncRun(history *contentdomain.SyncHistory) error
}

type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new instance of contentRepository
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{
		db: db,
	}
}

func (r *contentRepository) UpsertThread(thread *contentdomain.Thread) error {
	if thread.CreatedAt.IsZero() {
		thread.CreatedAt = time.Now()
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"subject", "updated_at"}),
	}).Create(thread).Error
}

func (r *contentRepository) UpsertMessage(message *contentdomain.Message) error {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sender", "content", "sent_at"}),
	}).Create(message).Error
}

func (r *contentRepository) UpsertFile(file *contentdomain.File) error {
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now()
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "mime_type", "view_link", "modified_time"}),
	}).Create(file).Error
}

func (r *contentRepository) UpsertKnowledgePage(page *contentdomain.KnowledgePage) error {
	if page.CreatedAt.IsZero() {
		page.CreatedAt = time.Now()
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "resource_type", "excerpt", "url", "last_edited_time"}),
	}).Create(page).Error
}

func (r *contentRepository) FindMessageByID(id string) (*contentdomain.Message, error) {
	var message contentdomain.Message
	err := r.db.Where("id = ?", id).First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

func (r *contentRepository) FindMessagesByIDs(ids []string) ([]*contentdomain.Message, error) {
	if len(ids) == 0 {
		return []*contentdomain.Message{}, nil
	}
	var messages []*contentdomain.Message
	err := r.db.Where("id IN ?", ids).Find(&messages).Error
	return messages, err
}

// FindRecentSubjects returns distinct thread subjects for suggestion ranking.
func (r *contentRepository) FindRecentSubjects(accountIDs []string, limit int) ([]string, error) {
	if len(accountIDs) == 0 {
		return []string{}, nil
	}
	var subjects []string
	err := r.db.Model(&contentdomain.Thread{}).
		Distinct("subject").
		Where("account_id IN ?", accountIDs).
		Where("subject <> ''").
		Order("subject ASC").
		Limit(limit).
		Pluck("subject", &subjects).Error
	return subjects, err
}

func (r *contentRepository) RecordSyncRun(history *contentdomain.SyncHistory) error {
	if history.ID == "" {
		history.ID = uuid.New().String()
	}
	return r.db.Create(history).Error
}
