package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Victor-talka/talka-history/internal/api"
	"github.com/Victor-talka/talka-history/internal/config"
	"github.com/Victor-talka/talka-history/internal/database"
	"github.com/Victor-talka/talka-history/internal/logging"
	"github.com/Victor-talka/talka-history/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// A missing .env file is fine; the environment wins anyway
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Talka history server")

	// Initialize database
	db, err := database.Initialize(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)

	// Initialize services
	importService := services.NewImportService(db, cfg, logger)
	conversationService := services.NewConversationService(db, logger)
	userService := services.NewUserService(db, cfg, logger)
	partnerService := services.NewPartnerService(db, logger)

	if cfg.Admin.Bootstrap {
		created, err := userService.EnsureAdmin(context.Background())
		if err != nil {
			logger.Fatal("Failed to create admin user", zap.Error(err))
		}
		if created {
			logger.Info("Admin user created", zap.String("username", cfg.Admin.Username))
		}
	}

	// Initialize handlers
	handler := api.NewHandler(
		db,
		cfg,
		importService,
		conversationService,
		userService,
		partnerService,
		logger,
	)

	// Setup Gin router
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(handler, cfg, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", srv.Addr),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
