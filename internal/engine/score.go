package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"dse-sniper-go/internal/models"
)

// Signal is the categorical entry classification derived from a score.
type Signal string

const (
	SignalBuy    Signal = "BUY"
	SignalWait   Signal = "WAIT"
	SignalIgnore Signal = "IGNORE"
)

// Status classifies the outcome of analyzing a ticker.
type Status string

const (
	StatusOK       Status = "ok"
	StatusFiltered Status = "filtered"
	StatusNoData   Status = "no_data"
)

// Result is the full outcome of analyzing one ticker.
type Result struct {
	Ticker  string
	Status  Status
	Reason  string // rejection reason when Status is filtered
	Latest  EnrichedBar
	Score   int
	Signal  Signal
	Reasons []string
}

// Score applies the additive entry rules to the latest enriched bar.
// paidUpCapitalCr is an optional fundamental; nil means unknown.
func Score(cfg Config, latest EnrichedBar, paidUpCapitalCr *float64) (int, []string) {
	score := 0
	var reasons []string

	if latest.RelativeVolume > cfg.RVOLThreshold {
		score += 50
		reasons = append(reasons, fmt.Sprintf("High RVOL (%.1fx)", latest.RelativeVolume))

		// Quiet accumulation only counts on top of a volume spike: heavy
		// turnover without the price moving.
		if math.Abs(latest.PriceChangePct/100) < cfg.QuietAccumulationThreshold {
			score += 20
			reasons = append(reasons, fmt.Sprintf("Quiet Accumulation (RVOL %.1fx, Price Change %.2f%%)",
				latest.RelativeVolume, latest.PriceChangePct))
		}
	}

	if paidUpCapitalCr != nil && *paidUpCapitalCr < cfg.LowCapThreshold {
		score += 20
		reasons = append(reasons, fmt.Sprintf("Low Float (%.1f Cr)", *paidUpCapitalCr))
	}

	// The trend rule always fires and is the only one that can push the
	// score negative.
	if latest.Close > latest.SMATrend {
		score += 10
		reasons = append(reasons, "Above long-term trend")
	} else {
		score -= 50
		reasons = append(reasons, "Below long-term trend")
	}

	return score, reasons
}

// Classify maps a score to its entry signal.
func Classify(score int) Signal {
	switch {
	case score >= 80:
		return SignalBuy
	case score >= 45:
		return SignalWait
	default:
		return SignalIgnore
	}
}

// Analyze runs the full entry pipeline for one ticker: enrichment,
// survival filter and scoring. It is pure: no I/O, no shared state.
func Analyze(cfg Config, ticker string, bars []models.Bar, paidUpCapitalCr *float64, asOf time.Time) Result {
	if len(bars) == 0 {
		return Result{Ticker: ticker, Status: StatusNoData, Reason: "no data"}
	}

	series := Enrich(cfg, bars, asOf)

	if ok, reason := Survives(cfg, series); !ok {
		return Result{Ticker: ticker, Status: StatusFiltered, Reason: reason}
	}

	latest := series[len(series)-1]
	score, reasons := Score(cfg, latest, paidUpCapitalCr)

	return Result{
		Ticker:  ticker,
		Status:  StatusOK,
		Latest:  latest,
		Score:   score,
		Signal:  Classify(score),
		Reasons: reasons,
	}
}

// Rank sorts results by score descending. The sort is stable so ties
// keep their arrival order.
func Rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
