package repository

import (
	"errors"
	"time"

	accountdomain "nexus-backend/internal/account/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountRepository defines the interface for connected account operations
type AccountRepository interface {
	Create(account *accountdomain.ConnectedAccount) error
	FindByID(id string) (*accountdomain.ConnectedAccount, error)
	FindByUserID(userID string) ([]*accountdomain.ConnectedAccount, error)
	FindByAddress(address string) (*accountdomain.ConnectedAccount, error)
	Update(account *accountdomain.ConnectedAccount) error
	MarkSynced(id string, at time.Time) error
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new instance of accountRepository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{
		db: db,
	}
}

func (r *accountRepository) Create(account *accountdomain.ConnectedAccount) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()
	return r.db.Create(account).Error
}

func (r *accountRepository) FindByID(id string) (*accountdomain.ConnectedAccount, error) {
	var account accountdomain.ConnectedAccount
	err := r.db.Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByUserID(userID string) ([]*accountdomain.ConnectedAccount, error) {
	var accounts []*accountdomain.ConnectedAccount
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) FindByAddress(address string) (*accountdomain.ConnectedAccount, error) {
	var account accountdomain.ConnectedAccount
	err := r.db.Where("address = ?", address).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) Update(account *accountdomain.ConnectedAccount) error {
	account.UpdatedAt = time.Now()
	return r.db.Save(account).Error
}

func (r *accountRepository) MarkSynced(id string, at time.Time) error {
	return r.db.Model(&accountdomain.ConnectedAccount{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_synced_at": at,
			"updated_at":     time.Now(),
		}).Error
}
