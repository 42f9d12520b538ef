package main

import (
	"context"
	"log"
	"strings"

	api "nexus-backend/cmd/api"
	accountdomain "nexus-backend/internal/account/domain"
	accountRepo "nexus-backend/internal/account/repository"
	accountUsecase "nexus-backend/internal/account/usecase"
	authdomain "nexus-backend/internal/auth/domain"
	authRepo "nexus-backend/internal/auth/repository"
	authUsecase "nexus-backend/internal/auth/usecase"
	chatdomain "nexus-backend/internal/chat/domain"
	chatRepo "nexus-backend/internal/chat/repository"
	contentdomain "nexus-backend/internal/content/domain"
	contentRepo "nexus-backend/internal/content/repository"
	contentSync "nexus-backend/internal/content/sync"
	contentUsecase "nexus-backend/internal/content/usecase"
	groundingRepo "nexus-backend/internal/grounding/repository"
	groundingUsecase "nexus-backend/internal/grounding/usecase"
	"nexus-backend/internal/notification"
	"nexus-backend/pkg/chroma"
	"nexus-backend/pkg/config"
	"nexus-backend/pkg/database"
	"nexus-backend/pkg/fcm"
	"nexus-backend/pkg/gmail"
	"nexus-backend/pkg/imap"
	"nexus-backend/pkg/sse"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	err = db.AutoMigrate(
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&authdomain.FCMToken{},
		&accountdomain.ConnectedAccount{},
		&accountdomain.SyncScope{},
		&contentdomain.Thread{},
		&contentdomain.Message{},
		&contentdomain.File{},
		&contentdomain.KnowledgePage{},
		&contentdomain.SyncHistory{},
		&chatdomain.ChatSession{},
		&chatdomain.ChatMessage{},
		&chatdomain.ContextScopeLink{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	fcmTokenRepo := authRepo.NewFCMTokenRepository(db)
	connectedAccountRepo := accountRepo.NewAccountRepository(db)
	syncScopeRepo := accountRepo.NewScopeRepository(db)
	contentRepository := contentRepo.NewContentRepository(db)
	sessionRepo := chatRepo.NewSessionRepository(db)
	groundingRepository := groundingRepo.NewGroundingRepository(db)

	// Initialize SSE Manager
	sseManager := sse.NewManager()
	go sseManager.Run()

	// Initialize provider services
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
	imapService := imap.NewService()

	// Initialize Chroma client for vector search (optional)
	var chromaClient *chroma.ChromaClient
	if cfg.ChromaAPIKey != "" {
		chromaClient, err = chroma.NewChromaClient(cfg)
		if err != nil {
			log.Printf("[WARN] Failed to initialize Chroma client (semantic search disabled): %v", err)
			chromaClient = nil
		}
	} else {
		log.Println("[WARN] CHROMA_API_KEY not set, semantic search disabled")
	}

	// Initialize sync worker pool
	providers := map[string]contentSync.ProviderClient{
		"gmail": contentSync.NewGmailProvider(gmailService, connectedAccountRepo),
		"imap":  contentSync.NewIMAPProvider(imapService),
	}
	var indexer contentSync.VectorIndexer
	if chromaClient != nil {
		indexer = chromaClient
	}
	syncWorker := contentSync.NewWorkerService(connectedAccountRepo, contentRepository, providers, indexer, sseManager, cfg.SyncWorkerCount)
	syncWorker.Start()

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, fcmTokenRepo, cfg)
	accountUsecaseInstance := accountUsecase.NewAccountUsecase(connectedAccountRepo, syncScopeRepo)
	accountUsecaseInstance.SetSyncQueue(syncWorker)

	var searcher contentUsecase.VectorSearcher
	if chromaClient != nil {
		searcher = chromaClient
	}
	contentUsecaseInstance := contentUsecase.NewContentUsecase(contentRepository, connectedAccountRepo, searcher)

	contextUsecaseInstance := groundingUsecase.NewContextUsecase(groundingUsecase.Readers{
		Scopes:    groundingRepository,
		Messages:  groundingRepository,
		Files:     groundingRepository,
		Knowledge: groundingRepository,
	}, cfg.ContextPartialResults)

	// Initialize Notification Service (Pub/Sub), only when a project is configured
	if cfg.GoogleProjectID != "" {
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}

		var fcmClient *fcm.Client
		if cfg.FirebaseCredentials != "" {
			fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
			if err != nil {
				log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
			}
		}

		notifService, err := notification.NewService(cfg.GoogleProjectID, topicName, sseManager, connectedAccountRepo, fcmTokenRepo, fcmClient, syncWorker, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize notification service: %v", err)
		} else {
			go notifService.Start(context.Background())
		}
	} else {
		log.Println("[WARN] GOOGLE_PROJECT_ID not configured, notification service disabled")
	}

	// Initialize HTTP handler
	handler, err := api.NewHandler(authUsecaseInstance, accountUsecaseInstance, contentUsecaseInstance, contextUsecaseInstance, sessionRepo, sseManager, cfg)
	if err != nil {
		log.Fatal("Failed to initialize API handler:", err)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
