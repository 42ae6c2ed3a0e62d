package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/uiforge/uiforge-engine/pkg/auth"
	"github.com/uiforge/uiforge-engine/pkg/config"
	"github.com/uiforge/uiforge-engine/pkg/database"
	"github.com/uiforge/uiforge-engine/pkg/handlers"
	"github.com/uiforge/uiforge-engine/pkg/llm"
	"github.com/uiforge/uiforge-engine/pkg/logging"
	"github.com/uiforge/uiforge-engine/pkg/metrics"
	"github.com/uiforge/uiforge-engine/pkg/middleware"
	"github.com/uiforge/uiforge-engine/pkg/repositories"
	"github.com/uiforge/uiforge-engine/pkg/services"
	"github.com/uiforge/uiforge-engine/pkg/services/workspace"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("generation_provider", cfg.Generation.Provider),
		zap.String("generation_model", cfg.Generation.Model),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	ctx := context.Background()

	// Migrations run over database/sql; the pgx stdlib driver shares the
	// connection settings with the pool.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := migrationDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	componentRepo := repositories.NewComponentRepository(db)
	versionRepo := repositories.NewVersionRepository(db)
	chatRepo := repositories.NewChatMessageRepository(db)

	// Generation gateway
	llmClient, err := llm.NewClient(&cfg.Generation, logger)
	if err != nil {
		logger.Fatal("Failed to create generation client", zap.Error(err))
	}

	// Services
	m := metrics.New()
	projectService := services.NewProjectService(projectRepo, logger.Named("projects"))
	componentService := services.NewComponentService(componentRepo, chatRepo, logger.Named("components"))
	generationService := services.NewGenerationService(llmClient, cfg.Generation.MaxRetries, logger.Named("generation"))
	workspaces := workspace.NewManager(projectService, componentService, generationService, versionRepo, chatRepo, m, logger)

	// Auth
	sessionTTL := time.Duration(cfg.Auth.SessionTTLHours) * time.Hour
	tokens := auth.NewTokenManager(cfg.Auth.SessionSecret, sessionTTL)
	cookies := auth.DeriveCookieSettings(cfg.BaseURL, cfg.Auth.CookieDomain)
	auth.InitSessionStore(cfg.Auth.SessionSecret, cookies.Secure)

	var googleVerifier auth.IDTokenVerifier
	if cfg.OAuth.GoogleClientID != "" {
		verifier, err := auth.NewGoogleIDTokenVerifier(ctx, cfg.OAuth.GoogleClientID)
		if err != nil {
			logger.Fatal("Failed to initialize Google token verifier", zap.Error(err))
		}
		googleVerifier = verifier
	}
	oauthManager := auth.NewOAuthManager(cfg.BaseURL,
		auth.OAuthProviderConfig{ClientID: cfg.OAuth.GoogleClientID, ClientSecret: cfg.OAuth.GoogleClientSecret},
		auth.OAuthProviderConfig{ClientID: cfg.OAuth.GithubClientID, ClientSecret: cfg.OAuth.GithubClientSecret},
		googleVerifier)

	authService := auth.NewAuthService(userRepo, tokens, auth.ServiceConfig{
		RequireEmailConfirmation: cfg.Auth.RequireEmailConfirmation,
		DisableSignups:           cfg.Auth.DisableSignups,
	}, logger.Named("auth"))
	authMiddleware := auth.NewMiddleware(authService, logger.Named("auth"))
	limiter := auth.NewRateLimiter(cfg.Auth.RateLimitPerMinute)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAuthHandler(authService, tokens, oauthManager, userRepo, limiter, cookies, sessionTTL, workspaces, logger.Named("auth")).RegisterRoutes(mux)
	handlers.NewProjectsHandler(workspaces, logger.Named("projects")).RegisterRoutes(mux, authMiddleware)
	handlers.NewComponentsHandler(workspaces, componentService, logger.Named("components")).RegisterRoutes(mux, authMiddleware)
	handlers.NewWorkspaceHandler(workspaces, logger.Named("workspace")).RegisterRoutes(mux, authMiddleware)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := middleware.RequestLogger(logger)(middleware.Instrument(m)(mux))

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting uiforge-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))

	if cfg.TLSCertPath != "" && cfg.TLSKeyPath != "" {
		err = http.ListenAndServeTLS(addr, cfg.TLSCertPath, cfg.TLSKeyPath, handler)
	} else {
		err = http.ListenAndServe(addr, handler)
	}
	if err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
