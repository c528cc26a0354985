package main

import (
	"fmt"
	"net/http"
	"os"

	"dse-sniper-go/internal/config"
	"dse-sniper-go/internal/database"
	"dse-sniper-go/internal/logger"
	"dse-sniper-go/internal/sniper"
	"dse-sniper-go/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ecfg, err := cfg.EngineConfig()
	if err != nil {
		log.Fatal("Invalid engine configuration", zap.Error(err))
	}

	// Connect to the database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	barStore := storage.NewBarStore(db)
	positionStore := storage.NewPositionStore(db)
	signalStore := storage.NewSignalStore(db)
	view := sniper.NewPortfolioView(log, ecfg, barStore, positionStore)

	// Setup HTTP server
	mux := http.NewServeMux()

	apiHandler := NewAPIHandler(log, signalStore, positionStore, view)

	// API endpoints
	mux.HandleFunc("GET /api/sniper-signals", apiHandler.SignalsHandler)
	mux.HandleFunc("GET /api/portfolio", apiHandler.PortfolioHandler)
	mux.HandleFunc("GET /api/portfolio/summary", apiHandler.SummaryHandler)
	mux.HandleFunc("GET /api/alerts", apiHandler.AlertsHandler)
	mux.HandleFunc("POST /api/trade", apiHandler.AddTradeHandler)
	mux.HandleFunc("DELETE /api/trade/{ticker}", apiHandler.RemoveTradeHandler)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Static file serving for CSS, JS, etc.
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))

	// HTML template serving
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "web/templates/index.html")
	})

	addr := fmt.Sprintf(":%d", cfg.Server.UIPort)
	log.Info("Starting web server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("Web server failed", zap.Error(err))
	}
}
