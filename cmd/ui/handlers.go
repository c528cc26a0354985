package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"dse-sniper-go/internal/models"
	"dse-sniper-go/internal/sniper"
	"dse-sniper-go/internal/storage"
	"go.uber.org/zap"
)

// APIHandler holds dependencies for the dashboard API endpoints.
type APIHandler struct {
	log       *zap.Logger
	signals   *storage.SignalStore
	positions *storage.PositionStore
	view      *sniper.PortfolioView
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, signals *storage.SignalStore, positions *storage.PositionStore, view *sniper.PortfolioView) *APIHandler {
	return &APIHandler{log: log, signals: signals, positions: positions, view: view}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

// SignalsHandler returns the ranked BUY/WAIT signals from the latest scan.
func (h *APIHandler) SignalsHandler(w http.ResponseWriter, r *http.Request) {
	signals, err := h.signals.Today()
	if err != nil {
		h.log.Error("Failed to load scan signals", zap.Error(err))
		http.Error(w, "Failed to load signals", http.StatusInternalServerError)
		return
	}

	// IGNORE rows are persisted for completeness but the dashboard only
	// shows actionable classes.
	actionable := make([]models.ScanSignal, 0, len(signals))
	for _, s := range signals {
		if s.Signal == "BUY" || s.Signal == "WAIT" {
			actionable = append(actionable, s)
		}
	}

	h.writeJSON(w, actionable)
}

// PortfolioHandler returns the open positions with live P/L and stop levels.
func (h *APIHandler) PortfolioHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := h.view.Rows()
	if err != nil {
		h.log.Error("Failed to build portfolio view", zap.Error(err))
		http.Error(w, "Failed to load portfolio", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, rows)
}

// SummaryHandler returns aggregate portfolio statistics.
func (h *APIHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	sum, err := h.view.Summarize()
	if err != nil {
		h.log.Error("Failed to summarize portfolio", zap.Error(err))
		http.Error(w, "Failed to load summary", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, sum)
}

// AlertsHandler returns the pending exit signals.
func (h *APIHandler) AlertsHandler(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.view.Alerts()
	if err != nil {
		h.log.Error("Failed to evaluate alerts", zap.Error(err))
		http.Error(w, "Failed to load alerts", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, alerts)
}

// tradeRequest is the POST /api/trade payload.
type tradeRequest struct {
	Ticker   string  `json:"ticker"`
	BuyPrice float64 `json:"buy_price"`
	Quantity int64   `json:"quantity"`
	Date     string  `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
	Notes    string  `json:"notes,omitempty"`
}

// AddTradeHandler opens a new position. The ratchet starts at the buy price.
func (h *APIHandler) AddTradeHandler(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Ticker = strings.ToUpper(strings.TrimSpace(req.Ticker))
	if req.Ticker == "" || req.BuyPrice <= 0 || req.Quantity <= 0 {
		http.Error(w, "ticker, buy_price and quantity are required", http.StatusBadRequest)
		return
	}

	purchaseDate := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		purchaseDate = parsed
	}

	pos := &models.Position{
		Ticker:       req.Ticker,
		BuyPrice:     req.BuyPrice,
		Quantity:     req.Quantity,
		HighestSeen:  req.BuyPrice,
		PurchaseDate: purchaseDate,
		Notes:        req.Notes,
	}

	if err := h.positions.Open(pos); err != nil {
		if errors.Is(err, storage.ErrPositionExists) {
			http.Error(w, "Position already exists for "+req.Ticker, http.StatusConflict)
			return
		}
		h.log.Error("Failed to open position", zap.String("ticker", req.Ticker), zap.Error(err))
		http.Error(w, "Failed to open position", http.StatusInternalServerError)
		return
	}

	h.log.Info("Position opened",
		zap.String("ticker", req.Ticker),
		zap.Float64("buy_price", req.BuyPrice),
		zap.Int64("quantity", req.Quantity))
	h.writeJSON(w, map[string]any{"success": true, "ticker": req.Ticker})
}

// RemoveTradeHandler closes a position after the external sell workflow
// has acted on it.
func (h *APIHandler) RemoveTradeHandler(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.PathValue("ticker"))
	if ticker == "" {
		http.Error(w, "ticker is required", http.StatusBadRequest)
		return
	}

	if err := h.positions.Remove(ticker); err != nil {
		if errors.Is(err, storage.ErrPositionNotFound) {
			http.Error(w, "No position for "+ticker, http.StatusNotFound)
			return
		}
		h.log.Error("Failed to remove position", zap.String("ticker", ticker), zap.Error(err))
		http.Error(w, "Failed to remove position", http.StatusInternalServerError)
		return
	}

	h.log.Info("Position removed", zap.String("ticker", ticker))
	h.writeJSON(w, map[string]any{"success": true, "ticker": ticker})
}
