package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mjgskyblade/echopay-sub000/internal/clients"
	"github.com/mjgskyblade/echopay-sub000/internal/config"
	"github.com/mjgskyblade/echopay-sub000/internal/db"
	httpHandlers "github.com/mjgskyblade/echopay-sub000/internal/http/handlers"
	httpRouter "github.com/mjgskyblade/echopay-sub000/internal/http/router"
	"github.com/mjgskyblade/echopay-sub000/internal/logger"
	"github.com/mjgskyblade/echopay-sub000/internal/repository"
	"github.com/mjgskyblade/echopay-sub000/internal/scheduler"
	"github.com/mjgskyblade/echopay-sub000/internal/service"
	"github.com/mjgskyblade/echopay-sub000/internal/ws"
)

func main() {
	// Root context for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: could not load configuration: %v", err)
	}

	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Database and migrations.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: could not connect to database: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: migrations failed: %v", err)
	}

	// Collaborator clients.
	ledger := clients.NewLedgerClient(cfg.LedgerBaseURL, cfg.CollaboratorTimeout)
	scorer := clients.NewScoringClient(cfg.ScoringBaseURL, cfg.CollaboratorTimeout)
	behavior := clients.NewBehaviorClient(cfg.BehaviorBaseURL, cfg.CollaboratorTimeout)
	systemLogs := clients.NewSystemLogClient(cfg.SystemLogBaseURL, cfg.CollaboratorTimeout)
	notifier := clients.NewNotifier(cfg.NotificationBaseURL, cfg.CollaboratorTimeout)

	// Repositories.
	caseRepo := repository.NewFraudCaseRepository(dbConn)
	auditRepo := repository.NewReversalAuditRepository(dbConn)

	// Dashboard event stream.
	hub := ws.NewHub()
	go hub.Run()

	// Services.
	tracker := service.NewReversalTracker(cfg.ReversalSLA)
	evidenceService := service.NewEvidenceService(caseRepo, ledger, behavior, systemLogs)
	intakeService := service.NewIntakeService(caseRepo, ledger, evidenceService, notifier, hub, service.IntakePolicy{
		CriticalAmountThreshold: cfg.CriticalAmountThreshold,
		HighAmountThreshold:     cfg.HighAmountThreshold,
	})
	reversalService := service.NewReversalService(caseRepo, auditRepo, ledger, scorer, tracker, notifier, hub, service.ReversalPolicy{
		AutoThreshold: cfg.AutoReversalThreshold,
		MinAge:        cfg.AutoReversalMinAge,
	})
	arbitrationService := service.NewArbitrationService(caseRepo, ledger, scorer, behavior,
		reversalService, tracker, notifier, hub, cfg.ArbitrationSLA)

	// Background loops.
	loops := scheduler.New(reversalService, arbitrationService, cfg.AutoReversalInterval, cfg.EscalationInterval)
	loops.Start(ctx)

	// HTTP handlers.
	fraudReportHandler := httpHandlers.NewFraudReportHandler(intakeService)
	reversalHandler := httpHandlers.NewReversalHandler(reversalService)
	arbitrationHandler := httpHandlers.NewArbitrationHandler(arbitrationService)
	wsHandler := httpHandlers.NewWSHandler(hub)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(cfg, fraudReportHandler, reversalHandler, arbitrationHandler, wsHandler, healthHandler)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: http server shutdown error: %v", err)
		}
	}()

	log.Printf("main: HTTP server listening on port %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: server stopped with error: %v", err)
	}
}

func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: error closing database: %v", err)
	}
}
