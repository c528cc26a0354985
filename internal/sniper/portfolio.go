package sniper

import (
	"time"

	"dse-sniper-go/internal/engine"
	"dse-sniper-go/internal/models"
	"go.uber.org/zap"
)

// PortfolioView builds read-only snapshots of the portfolio for the
// dashboard: live P/L, stop levels and any pending exit alerts. It
// never mutates position state; persisting the ratchet stays with the
// scan engine.
type PortfolioView struct {
	logger    *zap.Logger
	ecfg      engine.Config
	bars      BarStore
	positions PositionStore

	now func() time.Time
}

// NewPortfolioView creates a PortfolioView.
func NewPortfolioView(logger *zap.Logger, ecfg engine.Config, bars BarStore, positions PositionStore) *PortfolioView {
	return &PortfolioView{
		logger:    logger,
		ecfg:      ecfg,
		bars:      bars,
		positions: positions,
		now:       time.Now,
	}
}

// PositionRow is one dashboard row for an open position.
type PositionRow struct {
	Ticker            string  `json:"ticker"`
	BuyPrice          float64 `json:"buy_price"`
	Quantity          int64   `json:"quantity"`
	HighestSeen       float64 `json:"highest_seen"`
	PurchaseDate      string  `json:"purchase_date"`
	CurrentPrice      float64 `json:"current_price"`
	ProfitPct         float64 `json:"profit_pct"`
	ProfitAmount      float64 `json:"profit_amount"`
	Status            string  `json:"status"`
	ATR               float64 `json:"atr"`
	DaysHeld          int     `json:"days_held"`
	RVOL              float64 `json:"rvol"`
	StopLossPrice     float64 `json:"stop_loss_price"`
	TrailingStopPrice float64 `json:"trailing_stop_price"`
	Volume            int64   `json:"volume"`
}

// Rows returns one row per open position with live indicator-derived
// detail. Positions without market data are skipped with a warning.
func (v *PortfolioView) Rows() ([]PositionRow, error) {
	positions, err := v.positions.GetOpenPositions()
	if err != nil {
		return nil, err
	}

	now := v.now()
	rows := make([]PositionRow, 0, len(positions))
	for _, pos := range positions {
		eval, latest, ok := v.evaluate(pos, now)
		if !ok {
			continue
		}

		sig := eval.Signal
		rows = append(rows, PositionRow{
			Ticker:            pos.Ticker,
			BuyPrice:          pos.BuyPrice,
			Quantity:          pos.Quantity,
			HighestSeen:       eval.HighestSeen,
			PurchaseDate:      pos.PurchaseDate.Format("2006-01-02"),
			CurrentPrice:      latest.Close,
			ProfitPct:         sig.ProfitPct,
			ProfitAmount:      sig.ProfitAmount,
			Status:            string(sig.Rule),
			ATR:               sig.ATR,
			DaysHeld:          sig.DaysHeld,
			RVOL:              sig.RelativeVolume,
			StopLossPrice:     sig.StopLossPrice,
			TrailingStopPrice: sig.TrailingStopPrice,
			Volume:            latest.Volume,
		})
	}

	return rows, nil
}

// Alerts returns the exit signals currently pending across the portfolio.
func (v *PortfolioView) Alerts() ([]engine.ExitSignal, error) {
	positions, err := v.positions.GetOpenPositions()
	if err != nil {
		return nil, err
	}

	now := v.now()
	alerts := make([]engine.ExitSignal, 0)
	for _, pos := range positions {
		eval, _, ok := v.evaluate(pos, now)
		if !ok {
			continue
		}
		if eval.Signal.Rule != engine.RuleHold {
			alerts = append(alerts, eval.Signal)
		}
	}

	return alerts, nil
}

// Summary aggregates portfolio-level statistics.
type Summary struct {
	TotalPositions int     `json:"total_positions"`
	TotalInvested  float64 `json:"total_invested"`
	CurrentValue   float64 `json:"current_value"`
	TotalProfit    float64 `json:"total_profit"`
	ProfitPct      float64 `json:"profit_pct"`
}

// Summarize computes the portfolio totals at current prices.
func (v *PortfolioView) Summarize() (Summary, error) {
	positions, err := v.positions.GetOpenPositions()
	if err != nil {
		return Summary{}, err
	}

	now := v.now()
	sum := Summary{TotalPositions: len(positions)}
	for _, pos := range positions {
		_, latest, ok := v.evaluate(pos, now)
		if !ok {
			continue
		}
		sum.TotalInvested += pos.BuyPrice * float64(pos.Quantity)
		sum.CurrentValue += latest.Close * float64(pos.Quantity)
	}

	sum.TotalProfit = sum.CurrentValue - sum.TotalInvested
	if sum.TotalInvested > 0 {
		sum.ProfitPct = sum.TotalProfit / sum.TotalInvested * 100
	}
	return sum, nil
}

func (v *PortfolioView) evaluate(pos models.Position, now time.Time) (engine.Evaluation, engine.EnrichedBar, bool) {
	bars, err := v.bars.GetBars(pos.Ticker)
	if err != nil {
		v.logger.Error("Could not load bars for position",
			zap.String("ticker", pos.Ticker), zap.Error(err))
		return engine.Evaluation{}, engine.EnrichedBar{}, false
	}
	if len(bars) == 0 {
		v.logger.Warn("No market data for held position", zap.String("ticker", pos.Ticker))
		return engine.Evaluation{}, engine.EnrichedBar{}, false
	}

	series := engine.Enrich(v.ecfg, bars, now)
	latest := series[len(series)-1]
	return engine.EvaluatePosition(v.ecfg, pos, latest, now), latest, true
}
