package delivery

import (
	"errors"
	"net/http"
	"strconv"

	authdomain "nexus-backend/internal/auth/domain"
	"nexus-backend/internal/content/dto"
	"nexus-backend/internal/content/usecase"

	"github.com/gin-gonic/gin"
)

// ContentHandler handles search and ingest endpoints
type ContentHandler struct {
	contentUsecase usecase.ContentUsecase
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(contentUsecase usecase.ContentUsecase) *ContentHandler {
	return &ContentHandler{
		contentUsecase: contentUsecase,
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

// POST /api/search/semantic
func (h *ContentHandler) SemanticSearch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.SemanticSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messages, err := h.contentUsecase.SemanticSearch(c.Request.Context(), userID, req.Query, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": messages})
}

// GET /api/search/suggestions?q=...&limit=...
func (h *ContentHandler) Suggestions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"suggestions": []string{}})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	suggestions, err := h.contentUsecase.SuggestSubjects(userID, query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build suggestions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// POST /api/sync/ingest
func (h *ContentHandler) Ingest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := h.contentUsecase.Ingest(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, usecase.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "connected account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest items"})
		return
	}

	c.JSON(http.StatusOK, dto.IngestResponse{Stored: stored})
}
