package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"conduit/internal/auth"
	"conduit/internal/config"
	"conduit/internal/handler"
	"conduit/internal/middleware"
	"conduit/internal/repository/postgres"
	authSvc "conduit/internal/service/auth"
	chatSvc "conduit/internal/service/chat"
	"conduit/internal/service/llm"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	chatRepo := postgres.NewChatRepository(repoConfig)
	messageRepo := postgres.NewMessageRepository(repoConfig)
	documentRepo := postgres.NewDocumentRepository(repoConfig)
	suggestionRepo := postgres.NewSuggestionRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Model registry and backends
	registry, err := llm.NewRegistry(cfg)
	if err != nil {
		log.Fatalf("Failed to build model registry: %v", err)
	}
	backends := llm.NewBackendFactory()

	// Services
	authorizer := authSvc.NewOwnerBasedAuthorizer(chatRepo)
	titles := llm.NewTitleDeriver(registry, backends, cfg.TitleModel, logger)
	invoker := llm.NewInvoker(backends, logger)
	persister := llm.NewTurnPersister(messageRepo, logger)
	turnService := llm.NewTurnService(
		registry,
		backends,
		invoker,
		authorizer,
		chatRepo,
		messageRepo,
		documentRepo,
		suggestionRepo,
		titles,
		persister,
		logger,
	)
	chatService := chatSvc.NewService(chatRepo, documentRepo, suggestionRepo, authorizer, txManager, logger)

	// Handlers
	chatHandler := handler.NewChatHandler(turnService, chatService, logger)
	historyHandler := handler.NewHistoryHandler(chatService, logger)
	suggestionsHandler := handler.NewSuggestionsHandler(chatService, logger)
	documentsHandler := handler.NewDocumentsHandler(chatService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("POST /chat", chatHandler.HandleTurn)
	mux.HandleFunc("DELETE /chat", chatHandler.DeleteChat)
	mux.HandleFunc("GET /history", historyHandler.ListChats)
	mux.HandleFunc("GET /suggestions", suggestionsHandler.ListSuggestions)
	mux.HandleFunc("GET /documents", documentsHandler.ListVersions)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS -> Recovery -> Auth -> Routes
	if cfg.JWKSURL != "" {
		jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
		root = middleware.AuthMiddleware(jwtVerifier)(root)
	} else {
		logger.Warn("AUTH_JWKS_URL not set, using header-based dev authentication")
		root = middleware.DevAuthMiddleware()(root)
	}
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-Id"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived response streams
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
