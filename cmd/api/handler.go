package api

import (
	"log"

	accountDelivery "nexus-backend/internal/account/delivery"
	accountUsecasePkg "nexus-backend/internal/account/usecase"
	authDelivery "nexus-backend/internal/auth/delivery"
	authUsecasePkg "nexus-backend/internal/auth/usecase"
	chatDelivery "nexus-backend/internal/chat/delivery"
	chatRepo "nexus-backend/internal/chat/repository"
	chatUsecasePkg "nexus-backend/internal/chat/usecase"
	contentDelivery "nexus-backend/internal/content/delivery"
	contentUsecasePkg "nexus-backend/internal/content/usecase"
	groundingUsecasePkg "nexus-backend/internal/grounding/usecase"
	"nexus-backend/pkg/ai"
	"nexus-backend/pkg/config"
	"nexus-backend/pkg/sse"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase    authUsecasePkg.AuthUsecase
	sseManager     *sse.Manager
	config         *config.Config
	authHandler    *authDelivery.AuthHandler
	accountHandler *accountDelivery.AccountHandler
	contentHandler *contentDelivery.ContentHandler
	chatHandler    *chatDelivery.ChatHandler
}

// NewHandler wires the AI provider registry and the HTTP-facing handlers.
func NewHandler(
	authUc authUsecasePkg.AuthUsecase,
	accountUc accountUsecasePkg.AccountUsecase,
	contentUc contentUsecasePkg.ContentUsecase,
	contextUc groundingUsecasePkg.ContextUsecase,
	sessionRepo chatRepo.SessionRepository,
	sseManager *sse.Manager,
	cfg *config.Config,
) (*Handler, error) {
	// Runtime config backs the settings API, the registry reads Ollama
	// settings through it.
	InitRuntimeConfig(cfg.OllamaBaseURL, cfg.OllamaModel)

	registry, err := ai.NewRegistry(ai.Config{
		Provider:         ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:     cfg.GeminiAPIKey,
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		GetOllamaBaseURL: GetRuntimeOllamaBaseURL,
		GetOllamaModel:   GetRuntimeOllamaModel,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[API] AI registry initialized with provider: %s", cfg.AIProvider)

	chatUc := chatUsecasePkg.NewChatUsecase(sessionRepo, contextUc, registry)

	return &Handler{
		authUsecase:    authUc,
		sseManager:     sseManager,
		config:         cfg,
		authHandler:    authDelivery.NewAuthHandler(authUc),
		accountHandler: accountDelivery.NewAccountHandler(accountUc),
		contentHandler: contentDelivery.NewContentHandler(contentUc),
		chatHandler:    chatDelivery.NewChatHandler(chatUc),
	}, nil
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h)

	return r.Run(addr)
}
