package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"clearbooks/internal/config"
	"clearbooks/internal/email/noop"
	"clearbooks/internal/email/ses"
	"clearbooks/internal/handler"
	"clearbooks/internal/ingest"
	"clearbooks/internal/port"
	"clearbooks/internal/provider/feed"
	"clearbooks/internal/provider/openai"
	"clearbooks/internal/repository/postgres"
	"clearbooks/internal/router"
	"clearbooks/internal/service"
	s3storage "clearbooks/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	orgRepo := postgres.NewOrganizationRepo(db)
	userRepo := postgres.NewUserRepo(db)
	docRepo := postgres.NewDocumentRepo(db)
	vendorRepo := postgres.NewVendorRepo(db)
	categoryRepo := postgres.NewCategoryRepo(db)
	departmentRepo := postgres.NewDepartmentRepo(db)
	txnRepo := postgres.NewTransactionRepo(db)
	metricRepo := postgres.NewMetricRepo(db)
	invoiceRepo := postgres.NewInvoiceRepo(db)
	matchRepo := postgres.NewMatchRepo(db)
	discRepo := postgres.NewDiscrepancyRepo(db)
	runRepo := postgres.NewReconRunRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize providers
	aiClient := openai.NewClient(&cfg.AI)
	var invoiceFeed port.InvoiceFeed
	if cfg.Feed.BaseURL != "" {
		invoiceFeed = feed.NewClient(&cfg.Feed)
	}

	var digestSender port.DigestSender
	if cfg.Email.Provider == "ses" {
		digestSender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName, cfg.Email.FrontendURL)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	} else {
		digestSender = noop.NewNoopSender()
	}

	// Initialize ingestion pipeline
	resolver := ingest.NewResolver(aiClient, aiClient, cfg.AI.MaxConcurrency, time.Duration(cfg.AI.TimeoutSecs)*time.Second)
	writer := ingest.NewLedgerWriter(vendorRepo, categoryRepo, txnRepo, departmentRepo, metricRepo)

	// Initialize services
	authSvc := service.NewAuthService(userRepo, orgRepo, cfg.JWT)
	docSvc := service.NewDocumentService(docRepo, txnRepo, s3Client, resolver, writer, cfg.S3)
	reviewSvc := service.NewReviewService(matchRepo, discRepo)
	reconSvc := service.NewReconService(
		runRepo, txnRepo, invoiceRepo, matchRepo, discRepo,
		vendorRepo, orgRepo, userRepo, invoiceFeed, digestSender, cfg.Recon)

	// Initialize handlers
	authH := handler.NewAuthHandler(authSvc)
	docH := handler.NewDocumentHandler(docSvc)
	reconH := handler.NewReconHandler(reconSvc)
	reviewH := handler.NewReviewHandler(reviewSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg, authSvc, authH, docH, reconH, reviewH, healthH)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background ingest worker
	worker := service.NewIngestQueueWorker(docRepo, docSvc, service.IngestQueueConfig{
		PollInterval: time.Duration(cfg.Ingest.PollIntervalSecs) * time.Second,
		MaxRetries:   cfg.Ingest.MaxRetries,
		Concurrency:  cfg.Ingest.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(ctx)
	}()

	// Scheduled reconciliation runs
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Recon.CronSchedule, func() {
		log.Printf("scheduler: starting reconciliation for all organizations")
		reconSvc.RunAllOrganizations(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reconciliation: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Printf("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	<-workerDone
	return nil
}
