package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/billerops/onboarding-workflow/internal/auth"
	"github.com/billerops/onboarding-workflow/internal/config"
	httpserver "github.com/billerops/onboarding-workflow/internal/interfaces/http"
	"github.com/billerops/onboarding-workflow/internal/models"
	"github.com/billerops/onboarding-workflow/internal/notification"
	"github.com/billerops/onboarding-workflow/internal/report"
	"github.com/billerops/onboarding-workflow/internal/repository"
	"github.com/billerops/onboarding-workflow/internal/storage"
	"github.com/billerops/onboarding-workflow/internal/workflow"
	"github.com/billerops/onboarding-workflow/pkg/database"
	"github.com/billerops/onboarding-workflow/pkg/logging"
)

func main() {
	// Local overrides from .env, if present.
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Biller Onboarding Workflow System",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db, logger); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Uploads.Dir, 0755); err != nil {
		logger.Fatal("Failed to create upload directory", zap.Error(err))
	}

	workflowRepo := repository.NewWorkflowRepository(db.DB, logger)
	stepRepo := repository.NewStepRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	rejectionRepo := repository.NewRejectionHistoryRepository(db.DB, logger)
	editRepo := repository.NewEditHistoryRepository(db.DB, logger)
	attachmentRepo := repository.NewAttachmentRepository(db.DB, logger)

	engine := workflow.NewEngine(db, workflowRepo, stepRepo, historyRepo, rejectionRepo, attachmentRepo, logger)
	lifecycle := workflow.NewLifecycle(db, workflowRepo, stepRepo, editRepo, logger)

	users := make([]models.User, 0, len(cfg.Auth.Users))
	for _, u := range cfg.Auth.Users {
		users = append(users, models.User{
			Username: u.Username,
			Password: u.Password,
			Role:     u.Role,
			FullName: u.FullName,
			Email:    u.Email,
		})
	}
	authenticator := auth.NewStaticAuthenticator(users, logger)
	tokens := auth.NewTokenIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)

	store := storage.NewLocalStore(cfg.Uploads.Dir, logger)
	summaries := report.NewSummaryWriter(logger)

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			EnforceAuth:  cfg.Auth.Enforce,
		},
		engine,
		lifecycle,
		authenticator,
		tokens,
		store,
		summaries,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Notification.Enabled {
		reminder := notification.NewReminder(
			workflowRepo,
			cfg.Notification.ScanInterval,
			cfg.Notification.StallAfter,
			logger,
		)
		go reminder.Run(ctx)
	}

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}
