package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/coopec/missions-backend/internal/application/service"
	"github.com/coopec/missions-backend/internal/config"
	"github.com/coopec/missions-backend/internal/infrastructure/clock"
	"github.com/coopec/missions-backend/internal/infrastructure/document"
	"github.com/coopec/missions-backend/internal/infrastructure/email"
	"github.com/coopec/missions-backend/internal/infrastructure/persistence/repository"
	"github.com/coopec/missions-backend/internal/infrastructure/persistence/sqlite"
	"github.com/coopec/missions-backend/internal/infrastructure/storage"
	httpserver "github.com/coopec/missions-backend/internal/interfaces/http"
	"github.com/coopec/missions-backend/pkg/database"
	"github.com/coopec/missions-backend/pkg/utils"
)

func main() {
	// Local overrides for development; missing .env is fine
	_ = gotenv.Load()

	configPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting mission management backend",
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

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Storage.BaseDir, 0755); err != nil {
		logger.Fatal("Failed to create storage directory", zap.Error(err))
	}

	// Repositories
	txManager := sqlite.NewDB(db.DB, logger)
	missionRepo := repository.NewMissionRepository(db.DB, logger)
	validationRepo := repository.NewValidationRepository(db.DB, logger)
	signatureRepo := repository.NewSignatureRepository(db.DB, logger)
	justificatifRepo := repository.NewJustificatifRepository(db.DB, logger)
	depenseRepo := repository.NewDepenseRepository(db.DB, logger)
	avanceRepo := repository.NewAvanceRepository(db.DB, logger)
	ticketRepo := repository.NewTicketRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)
	entiteRepo := repository.NewEntiteRepository(db.DB, logger)

	// Infrastructure adapters
	sysClock := clock.NewSystemClock()
	mailer := email.NewSMTPMailer(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	}, logger)
	fileStorage := storage.NewLocalFileStorage(cfg.Storage.BaseDir, logger)
	renderer := document.NewExcelRenderer(cfg.Documents.OrganizationName, logger)
	tokenMgr := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTTLHours, cfg.JWT.RefreshTTLHours)
	kvLogger := utils.NewKVLogger(logger)

	// Application services
	notifier := service.NewNotificationService(notificationRepo, userRepo, mailer, sysClock, kvLogger)
	signatureSvc := service.NewSignatureService(signatureRepo, missionRepo, userRepo, notifier, txManager, sysClock, kvLogger)
	validationSvc := service.NewValidationService(validationRepo, missionRepo, userRepo, entiteRepo, signatureSvc, notifier, renderer, txManager, sysClock, kvLogger)
	missionSvc := service.NewMissionService(missionRepo, userRepo, validationSvc, txManager, sysClock, kvLogger)
	returnSvc := service.NewReturnService(missionRepo, justificatifRepo, depenseRepo, avanceRepo, userRepo, fileStorage, notifier, txManager, sysClock, kvLogger)
	financeSvc := service.NewFinanceService(missionRepo, depenseRepo, avanceRepo, ticketRepo, userRepo, notifier, txManager, sysClock, kvLogger)
	timerSvc := service.NewTimerService(missionRepo, signatureRepo, userRepo, notifier, txManager, sysClock, kvLogger)
	authSvc := service.NewAuthService(userRepo, tokenMgr, kvLogger)

	// Periodic deadline sweep
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Scheduler.SweepSpec, func() {
		report, err := timerSvc.Sweep(context.Background(), false)
		if err != nil {
			logger.Error("Timer sweep failed", zap.Error(err))
			return
		}
		logger.Info("Timer sweep completed",
			zap.Int("signature_reminders", report.SignatureReminders),
			zap.Int("justificatif_reminders", report.JustificatifReminders),
			zap.Int("escalations", report.Escalations),
			zap.Int("archived", report.Archived))
	})
	if err != nil {
		logger.Fatal("Failed to schedule timer sweep", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP server
	handlers := httpserver.NewHandlers(authSvc, missionSvc, validationSvc, signatureSvc, returnSvc, financeSvc, notifier, kvLogger)
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, tokenMgr, userRepo, kvLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
