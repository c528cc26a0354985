package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dse-sniper-go/internal/config"
	"dse-sniper-go/internal/database"
	"dse-sniper-go/internal/dse"
	"dse-sniper-go/internal/logger"
	"dse-sniper-go/internal/sniper"
	"dse-sniper-go/internal/storage"
	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	ecfg, err := cfg.EngineConfig()
	if err != nil {
		log.Fatal("Invalid engine configuration", zap.Error(err))
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Initialize the DSE quote client. A dead data source is not fatal:
	// the scanner can still work off stored history.
	quoteClient := dse.NewRestClient(&cfg.DSE, log)
	if status, err := quoteClient.GetMarketStatus(); err != nil {
		log.Warn("Could not reach DSE quote API, will scan stored data", zap.Error(err))
	} else {
		log.Info("Connected to DSE quote API", zap.String("market_status", status.Status))
	}

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Initialize and run the scan engine
	scanEngine := sniper.NewEngine(
		log,
		&cfg,
		ecfg,
		quoteClient,
		storage.NewBarStore(db),
		storage.NewPositionStore(db),
		storage.NewSignalStore(db),
		storage.NewFundamentalStore(db),
	)

	apiServer := sniper.NewAPIServer(scanEngine, log)
	apiServer.Start()
	defer func() {
		if err := apiServer.Stop(context.Background()); err != nil {
			log.Error("Failed to stop API server", zap.Error(err))
		}
	}()

	scanEngine.Run(ctx)

	log.Info("Sniper has been shut down.")
}
