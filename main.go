package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"

	"investSandbox/config"
	"investSandbox/internal/adapters/catalog"
	"investSandbox/internal/adapters/logger"
	"investSandbox/internal/adapters/sqlite"
	"investSandbox/internal/domain"
	"investSandbox/internal/server"
	"investSandbox/internal/sim"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	ctx := context.Background()
	appLogger.Info(ctx, "logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Instrument Catalog
	instrumentCatalog, err := catalog.New(catalog.Config{
		Dir:    cfg.InstrumentsDir,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to load instrument catalog")
		log.Fatalf("FATAL: Failed to load instrument catalog: %v", err)
	}

	// 4. Load Candle Snapshots
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to open candle snapshot database")
		log.Fatalf("FATAL: Failed to open candle snapshot database: %v", err)
	}
	series, err := repo.LoadAll(ctx, cfg.PlaybackInterval)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to load candle snapshots")
		log.Fatalf("FATAL: Failed to load candle snapshots: %v", err)
	}
	// The snapshot is fully in memory now; the core never touches the DB.
	if err := repo.Close(); err != nil {
		appLogger.Error(ctx, err, "Error closing candle snapshot database")
	}

	// 5. Assemble the Simulator Core
	engine, err := sim.NewEngine(sim.EngineConfig{
		Series:           series,
		SeedBalances:     cfg.SeedBalances,
		Catalog:          instrumentCatalog,
		StrictValidation: cfg.StrictValidation,
		Logger:           appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to assemble simulator engine")
		log.Fatalf("FATAL: Failed to assemble simulator engine: %v", err)
	}
	registry := sim.NewSubscriptionRegistry()
	hub := server.NewHub(appLogger)
	dispatcher := sim.NewDispatcher(registry, hub, appLogger)

	// 6. Initialize the Transport
	srv, err := server.New(server.Config{
		Host:         cfg.Host,
		Port:         cfg.Port,
		SeedBalances: cfg.SeedBalances,
		Logger:       appLogger,
		Catalog:      instrumentCatalog,
		Engine:       engine,
		Registry:     registry,
		Hub:          hub,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize server")
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}

	// Handle graceful shutdown
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLogger.Info(runCtx, "received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	// 7. Run: clock ticks drive the broadcast; the server handles requests.
	go engine.Run(runCtx, cfg.TickInterval, func(view map[string]domain.Candle) {
		dispatcher.Broadcast(runCtx, view)
	})

	if err := srv.Start(runCtx); err != nil {
		appLogger.Error(ctx, err, "FATAL: Server terminated with error")
		log.Fatalf("FATAL: Server terminated with error: %v", err)
	}
}
