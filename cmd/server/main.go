// Invoice billing service entrypoint: wires the database, repositories,
// service, HTTP server and the daily overdue sweep.
package main

import (
	"context"
	"log"
	"time"

	"github.com/karimfarra/invoice-billing-service/internal/config"
	"github.com/karimfarra/invoice-billing-service/internal/database"
	"github.com/karimfarra/invoice-billing-service/internal/domain"
	"github.com/karimfarra/invoice-billing-service/internal/handler"
	"github.com/karimfarra/invoice-billing-service/internal/logger"
	"github.com/karimfarra/invoice-billing-service/internal/notifier"
	"github.com/karimfarra/invoice-billing-service/internal/repository"
	"github.com/karimfarra/invoice-billing-service/internal/scheduler"
	"github.com/karimfarra/invoice-billing-service/internal/server"
	"github.com/karimfarra/invoice-billing-service/internal/service"
)

// @title Invoice Billing Service API
// @version 1.0
// @description Invoice and client management with VAT breakdowns, overdue tracking and JSON backups.
// @BasePath /api
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Setup(logger.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	appLog := logger.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgresDB(ctx, cfg.PostgresURL)
	if err != nil {
		appLog.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	pool := db.Pool()
	clientRepo := repository.NewPostgresClientRepository(pool)
	invoiceRepo := repository.NewPostgresInvoiceRepository(pool)
	settingsRepo := repository.NewPostgresSettingsRepository(pool)
	datasetRepo := repository.NewPostgresDatasetRepository(pool)

	webhookNotifier := notifier.NewWebhookNotifier(cfg.NotifyTimeout)

	billingService := service.NewBillingService(
		clientRepo,
		invoiceRepo,
		settingsRepo,
		datasetRepo,
		webhookNotifier,
		logger.WithComponent("billing"),
	)

	if cfg.SweepEnabled {
		sweep := scheduler.NewDailyScheduler(cfg.SweepHour, func(ctx context.Context) error {
			_, err := billingService.RunOverdueSweep(ctx, domain.DateOf(time.Now()))
			return err
		}, logger.WithComponent("sweep"))
		go sweep.Start(ctx)
	}

	appServer := server.NewServer(cfg, logger.WithComponent("http"))
	appServer.RegisterAPIRoutes(
		handler.NewClientHandler(billingService),
		handler.NewInvoiceHandler(billingService),
		handler.NewSettingsHandler(billingService),
	)

	if err := appServer.Start(); err != nil {
		appLog.Fatal().Err(err).Msg("server error")
	}
}
