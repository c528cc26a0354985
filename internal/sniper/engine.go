package sniper

import (
	"context"
	"strings"
	"sync"
	"time"

	"dse-sniper-go/internal/config"
	"dse-sniper-go/internal/dse"
	"dse-sniper-go/internal/engine"
	"dse-sniper-go/internal/metrics"
	"dse-sniper-go/internal/models"
	"go.uber.org/zap"
)

// BarStore is the series-store contract the scan engine depends on.
type BarStore interface {
	GetBars(ticker string) ([]models.Bar, error)
	GetAllTickers() ([]string, error)
	UpsertBars(bars []models.Bar) error
}

// PositionStore is the position-store contract the scan engine depends on.
// Closing a position belongs to the external trade workflow, so Remove is
// deliberately absent here.
type PositionStore interface {
	GetOpenPositions() ([]models.Position, error)
	UpdateHighestSeen(ticker string, newValue float64) error
}

// SignalStore persists the ranked entry-scan snapshot.
type SignalStore interface {
	ReplaceAll(signals []models.ScanSignal) error
}

// FundamentalStore serves the optional paid-up capital per ticker.
type FundamentalStore interface {
	PaidUpCapital(ticker string) (*float64, error)
}

// Engine is the scan engine: it periodically refreshes quotes, scores
// every ticker for entry and walks the portfolio for exits. All engine
// math is delegated to the pure engine package; this type owns the I/O.
type Engine struct {
	Name      string
	StartTime time.Time

	logger       *zap.Logger
	cfg          *config.Config
	ecfg         engine.Config
	quotes       dse.QuoteClientInterface
	bars         BarStore
	positions    PositionStore
	signals      SignalStore
	fundamentals FundamentalStore

	// now is swappable so tests can pin the market clock.
	now func() time.Time

	mu        sync.Mutex
	lastScan  time.Time
	scanCount int
}

// NewEngine creates a new scan engine.
func NewEngine(
	logger *zap.Logger,
	cfg *config.Config,
	ecfg engine.Config,
	quotes dse.QuoteClientInterface,
	bars BarStore,
	positions PositionStore,
	signals SignalStore,
	fundamentals FundamentalStore,
) *Engine {
	return &Engine{
		Name:         "dse-sniper",
		StartTime:    time.Now(),
		logger:       logger,
		cfg:          cfg,
		ecfg:         ecfg,
		quotes:       quotes,
		bars:         bars,
		positions:    positions,
		signals:      signals,
		fundamentals: fundamentals,
		now:          time.Now,
	}
}

// Run starts the scan loop and blocks until the context is cancelled.
// The first scan happens immediately so a restart never waits a full
// interval for fresh signals.
func (e *Engine) Run(ctx context.Context) {
	interval := time.Duration(e.cfg.Sniper.ScanInterval) * time.Second
	e.logger.Info("Starting scan loop", zap.Duration("interval", interval))

	if err := e.Scan(ctx); err != nil {
		e.logger.Error("Initial scan failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping scan engine...")
			return
		case <-ticker.C:
			if err := e.Scan(ctx); err != nil {
				metrics.ScanErrors.Inc()
				e.logger.Error("Scan failed", zap.Error(err))
			}
		}
	}
}

// Scan performs one full cycle: quote refresh, entry scan, exit scan.
// A failing refresh degrades to scanning stored data instead of aborting.
func (e *Engine) Scan(ctx context.Context) error {
	start := time.Now()
	now := e.now()
	e.logger.Info("Scan cycle starting")

	if err := e.refreshQuotes(now); err != nil {
		e.logger.Warn("Quote refresh failed, scanning stored data", zap.Error(err))
	}

	if err := e.scanEntries(ctx, now); err != nil {
		return err
	}
	if err := e.scanPositions(ctx, now); err != nil {
		return err
	}

	e.mu.Lock()
	e.lastScan = now
	e.scanCount++
	e.mu.Unlock()

	metrics.ScanDuration.Observe(time.Since(start).Seconds())
	e.logger.Info("Scan cycle complete", zap.Duration("took", time.Since(start)))
	return nil
}

// refreshQuotes pulls the latest daily rows and upserts them. Rows
// fetched outside the trading session are closed candles; rows fetched
// mid-session are partial snapshots and are flagged so the indicator
// math can project their volume instead of taking it at face value.
func (e *Engine) refreshQuotes(now time.Time) error {
	quotes, err := e.quotes.GetDailyQuotes()
	if err != nil {
		return err
	}
	if len(quotes) == 0 {
		e.logger.Warn("Quote refresh returned no rows")
		return nil
	}

	isFinal := !e.ecfg.Session.IsOpen(now)
	bars, err := dse.ToBars(quotes, isFinal, e.ecfg.Session.Location)
	if err != nil {
		return err
	}
	if err := e.bars.UpsertBars(bars); err != nil {
		return err
	}

	e.logger.Info("Quotes refreshed",
		zap.Int("count", len(bars)),
		zap.Bool("is_final", isFinal))
	return nil
}

// scanEntries scores every ticker and persists the ranked snapshot.
func (e *Engine) scanEntries(ctx context.Context, now time.Time) error {
	tickers, err := e.bars.GetAllTickers()
	if err != nil {
		return err
	}
	e.logger.Info("Scanning tickers for entry signals", zap.Int("count", len(tickers)))

	var results []engine.Result
	classCounts := map[engine.Signal]int{
		engine.SignalBuy:    0,
		engine.SignalWait:   0,
		engine.SignalIgnore: 0,
	}

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return err
		}

		bars, err := e.bars.GetBars(ticker)
		if err != nil {
			e.logger.Error("Could not load bars", zap.String("ticker", ticker), zap.Error(err))
			continue
		}

		paidUp, err := e.fundamentals.PaidUpCapital(ticker)
		if err != nil {
			e.logger.Warn("Could not load fundamental", zap.String("ticker", ticker), zap.Error(err))
			paidUp = nil
		}

		res := engine.Analyze(e.ecfg, ticker, bars, paidUp, now)
		metrics.TickersScanned.WithLabelValues(string(res.Status)).Inc()

		switch res.Status {
		case engine.StatusOK:
			classCounts[res.Signal]++
			results = append(results, res)
		case engine.StatusFiltered:
			e.logger.Debug("Ticker filtered",
				zap.String("ticker", ticker),
				zap.String("reason", res.Reason))
		}
	}

	engine.Rank(results)

	snapshot := make([]models.ScanSignal, 0, len(results))
	for _, res := range results {
		snapshot = append(snapshot, models.ScanSignal{
			Ticker:         res.Ticker,
			Date:           res.Latest.Date,
			Close:          res.Latest.Close,
			Volume:         res.Latest.Volume,
			RVOL:           res.Latest.RelativeVolume,
			AvgVolumeRef:   res.Latest.AvgVolumeRef,
			PriceChangePct: res.Latest.PriceChangePct,
			SMATrend:       res.Latest.SMATrend,
			Score:          res.Score,
			Signal:         string(res.Signal),
			Reasons:        strings.Join(res.Reasons, ", "),
		})
	}
	if err := e.signals.ReplaceAll(snapshot); err != nil {
		return err
	}

	for class, n := range classCounts {
		metrics.EntrySignals.WithLabelValues(string(class)).Set(float64(n))
	}

	e.logger.Info("Entry scan complete",
		zap.Int("scored", len(results)),
		zap.Int("buy", classCounts[engine.SignalBuy]),
		zap.Int("wait", classCounts[engine.SignalWait]))
	return nil
}

// scanPositions runs the exit evaluator over every open position. The
// ratchet is persisted before any signal is acted on so a crash between
// the two never loses a peak.
func (e *Engine) scanPositions(ctx context.Context, now time.Time) error {
	positions, err := e.positions.GetOpenPositions()
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		e.logger.Info("Portfolio is empty, skipping exit scan")
		return nil
	}
	e.logger.Info("Scanning portfolio for exit signals", zap.Int("positions", len(positions)))

	for _, pos := range positions {
		if err := ctx.Err(); err != nil {
			return err
		}

		l := e.logger.With(zap.String("ticker", pos.Ticker))

		bars, err := e.bars.GetBars(pos.Ticker)
		if err != nil {
			l.Error("Could not load bars for position", zap.Error(err))
			continue
		}
		if len(bars) == 0 {
			l.Warn("No market data for held position")
			continue
		}

		series := engine.Enrich(e.ecfg, bars, now)
		latest := series[len(series)-1]
		eval := engine.EvaluatePosition(e.ecfg, pos, latest, now)

		if eval.RatchetMoved {
			if err := e.positions.UpdateHighestSeen(pos.Ticker, eval.HighestSeen); err != nil {
				// Without a durable peak the thresholds below are
				// suspect; skip this position until the next scan.
				l.Error("Could not persist new peak", zap.Error(err))
				continue
			}
			metrics.RatchetMoves.Inc()
			l.Info("New high, ratchet moved",
				zap.Float64("from", pos.HighestSeen),
				zap.Float64("to", eval.HighestSeen))
		}

		sig := eval.Signal
		if sig.Rule == engine.RuleHold {
			l.Debug("Position holding",
				zap.Float64("profit_pct", sig.ProfitPct),
				zap.Float64("trailing_stop", sig.TrailingStopPrice))
			continue
		}

		metrics.ExitSignals.WithLabelValues(string(sig.Rule)).Inc()
		l.Warn("Exit signal",
			zap.String("rule", string(sig.Rule)),
			zap.String("urgency", string(sig.Urgency)),
			zap.String("action", sig.Action),
			zap.String("reason", sig.Reason),
			zap.Float64("current", sig.CurrentPrice),
			zap.Float64("stop_loss", sig.StopLossPrice),
			zap.Float64("trailing_stop", sig.TrailingStopPrice),
			zap.Float64("profit_pct", sig.ProfitPct),
			zap.Int("days_held", sig.DaysHeld))
	}

	return nil
}

// LastScan reports when the previous cycle finished and how many cycles
// have run.
func (e *Engine) LastScan() (time.Time, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastScan, e.scanCount
}
