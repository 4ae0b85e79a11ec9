package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"uniclaim/internal/adapter/api"
	"uniclaim/internal/adapter/api/handler"
	apimiddleware "uniclaim/internal/adapter/api/middleware"
	"uniclaim/internal/adapter/api/router"
	"uniclaim/internal/adapter/repository"
	"uniclaim/internal/infrastructure/firebase"
	"uniclaim/internal/infrastructure/notification"
	"uniclaim/internal/infrastructure/storage"
	"uniclaim/internal/infrastructure/websocket"
	"uniclaim/internal/usecase"
	"uniclaim/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption
	credentialsPath := ""

	// Service account JSON from the environment (production), file path
	// as the local-development fallback.
	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		credentialsPath = os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if credentialsPath == "" {
			credentialsPath = "./service-account.json"
		}

		if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", credentialsPath)
		}

		log.Printf("Using Firebase service account from file: %s", credentialsPath)
		opt = option.WithCredentialsFile(credentialsPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, credentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	convRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	postRepo := repository.NewFirestorePostRepository(firestoreClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	notifier := notification.NewDispatcher(wsManager)
	retention := usecase.NewRetentionManager(convRepo, cfg.MessageCap)

	convUseCase := usecase.NewConversationUseCase(convRepo, postRepo, userRepo, retention, notifier)
	resolutionUseCase := usecase.NewResolutionUseCase(convRepo, postRepo, userRepo, notifier)
	requestUseCase := usecase.NewRequestUseCase(convRepo, userRepo, storageClient, notifier, resolutionUseCase)
	userUseCase := usecase.NewUserUseCase(userRepo)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)
	roleGuard := apimiddleware.NewRoleGuard(userRepo)

	handlers := router.Handlers{
		Conversation: handler.NewConversationHandler(convUseCase),
		Request:      handler.NewRequestHandler(requestUseCase),
		User:         handler.NewUserHandler(userUseCase),
		Admin:        handler.NewAdminHandler(convUseCase),
		File:         handler.NewFileHandler(storageClient),
		WebSocket:    handler.NewWebSocketHandler(wsManager, firebaseAuthClient),
		Health:       handler.NewHealthHandler(),
	}

	router.Setup(e, handlers, authMiddleware, roleGuard)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
