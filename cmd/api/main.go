package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockroom/internal/auth"
	"stockroom/internal/config"
	"stockroom/internal/csvio"
	"stockroom/internal/database"
	"stockroom/internal/events"
	"stockroom/internal/handler"
	"stockroom/internal/jobs"
	"stockroom/internal/repository"
	"stockroom/internal/router"
	"stockroom/internal/service"
	"stockroom/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting stockroom API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Catalogue change notifications
	bus := events.NewBus(logger)
	if cfg.Realtime.Enabled {
		listener := events.NewListener(pool, cfg.Realtime.Channel, bus, logger)
		go func() {
			if err := listener.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("change listener exited")
			}
		}()
	}

	// Initialize file storage with S3 and local fallback
	fileStore, err := storage.NewFileStore(cfg.Storage.Dir, cfg.Storage.BaseURL, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}

	var s3Store storage.Store
	if cfg.S3.Enabled {
		s3Store, err = storage.NewS3Store(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 store, falling back to local file system only")
		}
	} else {
		logger.Info().Msg("using local file system for uploads and snapshots (S3 disabled)")
	}
	store := storage.NewFallbackStore(s3Store, fileStore, cfg.S3.Prefix, cfg.S3.Enabled && s3Store != nil, logger)

	loc, err := time.LoadLocation(cfg.Jobs.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	movementRepo := repository.NewMovementRepository(pool, logger)
	profileRepo := repository.NewProfileRepository(pool, logger)
	identityRepo := repository.NewIdentityRepository(pool, logger)

	// Initialize services
	productService, err := service.NewProductService(productRepo, movementRepo, bus, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize product service: %w", err)
	}
	stockService := service.NewStockService(productRepo, movementRepo, bus, logger)
	movementService := service.NewMovementService(movementRepo, loc, logger)
	importer := csvio.NewImporter(productRepo, cfg.Import.ChunkSize, logger)
	transferService := service.NewTransferService(productRepo, importer, store, cfg.Import.ExportLimit, bus, logger)
	mediaService := service.NewMediaService(store, logger)
	authService := service.NewAuthService(identityRepo, profileRepo, auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), logger)
	userService := service.NewUserService(
		profileRepo,
		identityRepo,
		auth.NewMailer(cfg.Mail, logger),
		service.LinkSettings{SiteURL: cfg.Auth.SiteURL, TTL: cfg.Auth.LinkTTL},
		logger,
	)

	// Scheduled export snapshots and ledger drift checks
	scheduler, err := jobs.NewScheduler(cfg.Jobs.SnapshotSchedule, cfg.Jobs.Timezone, transferService, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	if err := scheduler.AddDriftCheck(cfg.Jobs.DriftSchedule, stockService); err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	scheduler.Start()

	// Initialize router
	mux := router.New(router.Handlers{
		Product:  handler.NewProductHandler(productService, logger),
		Stock:    handler.NewStockHandler(stockService, movementService, logger),
		Transfer: handler.NewTransferHandler(transferService, mediaService, int64(cfg.Import.MaxUploadMB)<<20, logger),
		User:     handler.NewUserHandler(authService, userService, logger),
	}, router.Options{
		APIKey:   cfg.Auth.APIKey,
		Resolver: authService,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		scheduler.Stop(shutdownCtx)

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
