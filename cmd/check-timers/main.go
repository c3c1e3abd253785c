// check-timers runs one deadline sweep and exits. Meant for cron-less
// deployments and for inspecting what a sweep would do with --dry-run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/coopec/missions-backend/internal/application/service"
	"github.com/coopec/missions-backend/internal/config"
	"github.com/coopec/missions-backend/internal/infrastructure/clock"
	"github.com/coopec/missions-backend/internal/infrastructure/email"
	"github.com/coopec/missions-backend/internal/infrastructure/persistence/repository"
	"github.com/coopec/missions-backend/internal/infrastructure/persistence/sqlite"
	"github.com/coopec/missions-backend/pkg/database"
	"github.com/coopec/missions-backend/pkg/utils"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "count actions without writing or notifying")
	configPath := flag.String("config", "configs/config.yaml", "path to the config file")
	flag.Parse()

	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
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

	txManager := sqlite.NewDB(db.DB, logger)
	missionRepo := repository.NewMissionRepository(db.DB, logger)
	signatureRepo := repository.NewSignatureRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)

	sysClock := clock.NewSystemClock()
	mailer := email.NewSMTPMailer(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	}, logger)
	kvLogger := utils.NewKVLogger(logger)

	notifier := service.NewNotificationService(notificationRepo, userRepo, mailer, sysClock, kvLogger)
	timerSvc := service.NewTimerService(missionRepo, signatureRepo, userRepo, notifier, txManager, sysClock, kvLogger)

	report, err := timerSvc.Sweep(context.Background(), *dryRun)
	if err != nil {
		logger.Fatal("Timer sweep failed", zap.Error(err))
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
}
