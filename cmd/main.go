package main

import (
	"fmt"
	"os"
	"time"

	"github.com/havenline/haven-backend/internal/data/db"
	"github.com/havenline/haven-backend/internal/data/repos"
	httpserver "github.com/havenline/haven-backend/internal/http"
	httpH "github.com/havenline/haven-backend/internal/http/handlers"
	httpMW "github.com/havenline/haven-backend/internal/http/middleware"
	"github.com/havenline/haven-backend/internal/pkg/retry"
	"github.com/havenline/haven-backend/internal/platform/envutil"
	"github.com/havenline/haven-backend/internal/platform/logger"
	"github.com/havenline/haven-backend/internal/realtime"
	"github.com/havenline/haven-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	conversationRepo := repos.NewConversationRepo(thePG, log)
	messageRepo := repos.NewMessageRepo(thePG, log)
	patternRepo := repos.NewEmotionalPatternRepo(thePG, log)
	crisisRepo := repos.NewCrisisEventRepo(thePG, log)
	summaryRepo := repos.NewConversationSummaryRepo(thePG, log)

	// Crisis alert bus (optional; the app runs without it)
	var alertBus realtime.AlertBus
	if os.Getenv("REDIS_ADDR") != "" {
		alertBus, err = realtime.NewAlertBus(log)
		if err != nil {
			log.Warn("Alert bus init failed, continuing without realtime alerts", "error", err)
			alertBus = nil
		} else {
			defer alertBus.Close()
		}
	}

	// Services
	log.Info("Setting up services...")
	generator, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Warn("Text generator unavailable, replies and summaries fall back", "error", err)
		generator = nil
	}
	summaryTimeout := time.Duration(envutil.Int("SUMMARY_TIMEOUT_SECONDS", 30)) * time.Second

	authService := services.NewAuthService(thePG, log, userRepo)
	userService := services.NewUserService(thePG, log, userRepo)
	patternService := services.NewPatternService(thePG, log, patternRepo)
	crisisService := services.NewCrisisService(thePG, log, crisisRepo, alertBus)
	summaryService := services.NewSummaryService(thePG, log, messageRepo, summaryRepo, generator, nil, summaryTimeout)
	conversationService := services.NewConversationService(
		thePG, log,
		userRepo, conversationRepo, messageRepo,
		patternService, summaryService, crisisService,
		generator,
		retry.UserLookupPolicy(),
	)

	// Handlers
	log.Info("Setting up handlers...")
	healthHandler := httpH.NewHealthHandler()
	authHandler := httpH.NewAuthHandler(authService)
	userHandler := httpH.NewUserHandler(userService)
	conversationHandler := httpH.NewConversationHandler(conversationService, summaryService, userService)
	patternHandler := httpH.NewPatternHandler(patternService)
	crisisHandler := httpH.NewCrisisHandler(crisisService, conversationService)

	// Middleware
	authMiddleware := httpMW.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router...")
	router := httpserver.NewRouter(httpserver.RouterConfig{
		AuthHandler:         authHandler,
		AuthMiddleware:      authMiddleware,
		UserHandler:         userHandler,
		ConversationHandler: conversationHandler,
		PatternHandler:      patternHandler,
		CrisisHandler:       crisisHandler,
		HealthHandler:       healthHandler,
	})

	port := envutil.String("PORT", "8080")
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
