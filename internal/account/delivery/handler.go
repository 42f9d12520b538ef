package delivery

import (
	"errors"
	"net/http"

	accountdomain "nexus-backend/internal/account/domain"
	"nexus-backend/internal/account/usecase"
	authdomain "nexus-backend/internal/auth/domain"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles connected account and sync scope endpoints
type AccountHandler struct {
	accountUsecase usecase.AccountUsecase
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountUsecase usecase.AccountUsecase) *AccountHandler {
	return &AccountHandler{
		accountUsecase: accountUsecase,
	}
}

func currentUserID(c *gin.Context) (string, bool) {
	user, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return "", false
	}
	userData, ok := user.(*authdomain.User)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user data"})
		return "", false
	}
	return userData.ID, true
}

// LinkAccountRequest represents the request body for linking an account
type LinkAccountRequest struct {
	Provider     string `json:"provider" binding:"required"`
	Address      string `json:"address"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ImapServer   string `json:"imap_server"`
	ImapPort     int    `json:"imap_port"`
	ImapPassword string `json:"imap_password"`
}

// POST /api/accounts
func (h *AccountHandler) LinkAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req LinkAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account := &accountdomain.ConnectedAccount{
		Provider:     req.Provider,
		Address:      req.Address,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ImapServer:   req.ImapServer,
		ImapPort:     req.ImapPort,
		ImapPassword: req.ImapPassword,
	}
	if err := h.accountUsecase.LinkAccount(userID, account); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to link account"})
		return
	}

	c.JSON(http.StatusCreated, account)
}

// GET /api/accounts
func (h *AccountHandler) GetAccounts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	accounts, err := h.accountUsecase.GetAccounts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list accounts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// POST /api/accounts/:id/revoke
func (h *AccountHandler) RevokeAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.accountUsecase.RevokeAccount(userID, c.Param("id")); err != nil {
		h.writeUsecaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account revoked"})
}

// AddScopeRequest represents the request body for adding a scope
type AddScopeRequest struct {
	ScopeType string `json:"scope_type" binding:"required"`
	Name      string `json:"name"`
}

// POST /api/accounts/:id/scopes
func (h *AccountHandler) AddScope(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req AddScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scope := &accountdomain.SyncScope{
		ScopeType: accountdomain.ScopeType(req.ScopeType),
		Name:      req.Name,
	}
	if err := h.accountUsecase.AddScope(userID, c.Param("id"), scope); err != nil {
		h.writeUsecaseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scope)
}

// GET /api/accounts/:id/scopes
func (h *AccountHandler) GetScopes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	scopes, err := h.accountUsecase.GetScopes(userID, c.Param("id"))
	if err != nil {
		h.writeUsecaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scopes": scopes})
}

// SetScopeEnabledRequest represents the request body for toggling a scope
type SetScopeEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// PATCH /api/scopes/:id
func (h *AccountHandler) SetScopeEnabled(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req SetScopeEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.accountUsecase.SetScopeEnabled(userID, c.Param("id"), *req.Enabled); err != nil {
		h.writeUsecaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "scope updated"})
}

// POST /api/accounts/:id/sync
func (h *AccountHandler) TriggerSync(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.accountUsecase.TriggerSync(userID, c.Param("id")); err != nil {
		h.writeUsecaseError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "sync queued"})
}

func (h *AccountHandler) writeUsecaseError(c *gin.Context, err error) {
	if errors.Is(err, usecase.ErrAccountNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
