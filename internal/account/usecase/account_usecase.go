package usecase

import (
	"errors"
	"log"

	accountdomain "nexus-backend/internal/account/domain"
	"nexus-backend/internal/account/repository"
)

var ErrAccountNotFound = errors.New("connected account not found")

// AccountUsecase manages connected accounts and their sync scopes
type AccountUsecase interface {
	LinkAccount(userID string, account *accountdomain.ConnectedAccount) error
	GetAccounts(userID string) ([]*accountdomain.ConnectedAccount, error)
	GetAccount(userID, accountID string) (*accountdomain.ConnectedAccount, error)
	RevokeAccount(userID, accountID string) error
	AddScope(userID, accountID string, scope *accountdomain.SyncScope) error
	GetScopes(userID, accountID string) ([]*accountdomain.SyncScope, error)
	SetScopeEnabled(userID, scopeID string, enabled bool) error
	TriggerSync(userID, accountID string) error
	SetSyncQueue(queue SyncQueue)
}

// SyncQueue enqueues a sync job for an account. Implemented by the content
// sync worker pool; set after construction to break the init cycle.
type SyncQueue interface {
	QueueAccountSync(accountID string) bool
}

type accountUsecase struct {
	accountRepo repository.AccountRepository
	scopeRepo   repository.ScopeRepository
	syncQueue   SyncQueue
}

// NewAccountUsecase creates a new instance of accountUsecase
func NewAccountUsecase(accountRepo repository.AccountRepository, scopeRepo repository.ScopeRepository) AccountUsecase {
	return &accountUsecase{
		accountRepo: accountRepo,
		scopeRepo:   scopeRepo,
	}
}

// SetSyncQueue wires the sync worker pool in after construction
func (u *accountUsecase) SetSyncQueue(queue SyncQueue) {
	u.syncQueue = queue
}

func (u *accountUsecase) LinkAccount(userID string, account *accountdomain.ConnectedAccount) error {
	account.UserID = userID
	if err := u.accountRepo.Create(account); err != nil {
		return err
	}
	log.Printf("[Account] Linked %s account %s for user %s", account.Provider, account.ID, userID)
	return nil
}

func (u *accountUsecase) GetAccounts(userID string) ([]*accountdomain.ConnectedAccount, error) {
	return u.accountRepo.FindByUserID(userID)
}

// GetAccount returns the account only when it belongs to the given user.
func (u *accountUsecase) GetAccount(userID, accountID string) (*accountdomain.ConnectedAccount, error) {
	account, err := u.accountRepo.FindByID(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.UserID != userID {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// RevokeAccount disables every scope of the account. Scopes are soft state:
// session links pointing at them stay intact and simply stop matching.
func (u *accountUsecase) RevokeAccount(userID, accountID string) error {
	account, err := u.GetAccount(userID, accountID)
	if err != nil {
		return err
	}

	scopes, err := u.scopeRepo.FindByAccountID(account.ID)
	if err != nil {
		return err
	}
	for _, scope := range scopes {
		if err := u.scopeRepo.SetEnabled(scope.ID, false); err != nil {
			return err
		}
	}
	log.Printf("[Account] Revoked account %s (%d scopes disabled)", account.ID, len(scopes))
	return nil
}

func (u *accountUsecase) AddScope(userID, accountID string, scope *accountdomain.SyncScope) error {
	account, err := u.GetAccount(userID, accountID)
	if err != nil {
		return err
	}
	scope.ConnectedAccountID = account.ID
	scope.Enabled = true
	return u.scopeRepo.Create(scope)
}

func (u *accountUsecase) GetScopes(userID, accountID string) ([]*accountdomain.SyncScope, error) {
	account, err := u.GetAccount(userID, accountID)
	if err != nil {
		return nil, err
	}
	return u.scopeRepo.FindByAccountID(account.ID)
}

func (u *accountUsecase) SetScopeEnabled(userID, scopeID string, enabled bool) error {
	scope, err := u.scopeRepo.FindByID(scopeID)
	if err != nil {
		return err
	}
	if scope == nil {
		return ErrAccountNotFound
	}
	// Ownership check goes through the parent account
	if _, err := u.GetAccount(userID, scope.ConnectedAccountID); err != nil {
		return err
	}
	return u.scopeRepo.SetEnabled(scopeID, enabled)
}

func (u *accountUsecase) TriggerSync(userID, accountID string) error {
	account, err := u.GetAccount(userID, accountID)
	if err != nil {
		return err
	}
	if u.syncQueue == nil {
		return errors.New("sync is not available")
	}
	if !u.syncQueue.QueueAccountSync(account.ID) {
		return errors.New("sync queue is full, try again later")
	}
	return nil
}
