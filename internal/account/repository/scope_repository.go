package repository

import (
	"errors"
	"time"

	accountdomain "nexus-backend/internal/account/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScopeRepository defines the interface for sync scope operations
type ScopeRepository interface {
	Create(scope *accountdomain.SyncScope) error
	FindByID(id string) (*accountdomain.SyncScope, error)
	FindByAccountID(accountID string) ([]*accountdomain.SyncScope, error)
	FindByUserID(userID string) ([]*accountdomain.SyncScope, error)
	SetEnabled(id string, enabled bool) error
}

type scopeRepository struct {
	db *gorm.DB
}

// NewScopeRepository creates a new instance of scopeRepository
func NewScopeRepository(db *gorm.DB) ScopeRepository {
	return &scopeRepository{
		db: db,
	}
}

func (r *scopeRepository) Create(scope *accountdomain.SyncScope) error {
	if scope.ID == "" {
		scope.ID = uuid.New().String()
	}
	scope.CreatedAt = time.Now()
	scope.UpdatedAt = time.Now()
	return r.db.Create(scope).Error
}

func (r *scopeRepository) FindByID(id string) (*accountdomain.SyncScope, error) {
	var scope accountdomain.SyncScope
	err := r.db.Where("id = ?", id).First(&scope).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &scope, nil
}

func (r *scopeRepository) FindByAccountID(accountID string) ([]*accountdomain.SyncScope, error) {
	var scopes []*accountdomain.SyncScope
	err := r.db.Where("connected_account_id = ?", accountID).Order("created_at ASC").Find(&scopes).Error
	return scopes, err
}

// FindByUserID returns every scope across all of the user's connected accounts.
func (r *scopeRepository) FindByUserID(userID string) ([]*accountdomain.SyncScope, error) {
	var scopes []*accountdomain.SyncScope
	err := r.db.
		Joins("JOIN connected_accounts ON connected_accounts.id = sync_scopes.connected_account_id").
		Where("connected_accounts.user_id = ?", userID).
		Order("sync_scopes.created_at ASC").
		Find(&scopes).Error
	return scopes, err
}

func (r *scopeRepository) SetEnabled(id string, enabled bool) error {
	return r.db.Model(&accountdomain.SyncScope{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"enabled":    enabled,
			"updated_at": time.Now(),
		}).Error
}
