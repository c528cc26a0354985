package engine

import (
	"fmt"
	"math"
	"time"

	"dse-sniper-go/internal/models"
)

// ExitRule identifies which exit rule fired for a position.
type ExitRule string

const (
	RuleStopLoss   ExitRule = "STOP_LOSS"
	RuleTakeProfit ExitRule = "TAKE_PROFIT"
	RuleClimax     ExitRule = "CLIMAX"
	RuleZombie     ExitRule = "ZOMBIE_EXIT"
	RuleHold       ExitRule = "HOLD"
)

// Urgency grades how quickly a fired exit rule should be acted on.
type Urgency string

const (
	UrgencyLow      Urgency = "LOW"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyCritical Urgency = "CRITICAL"
)

// A doji body is under 1% of the open.
const dojiBodyThreshold = 0.01

// ExitSignal is the advisory output of one position evaluation. The
// engine only classifies; acting on a signal is the caller's business.
type ExitSignal struct {
	Ticker            string   `json:"ticker"`
	Rule              ExitRule `json:"rule"`
	Urgency           Urgency  `json:"urgency"`
	Action            string   `json:"action"`
	Reason            string   `json:"reason"`
	CurrentPrice      float64  `json:"current_price"`
	StopLossPrice     float64  `json:"stop_loss_price"`
	TrailingStopPrice float64  `json:"trailing_stop_price"`
	ProfitPct         float64  `json:"profit_pct"`
	ProfitAmount      float64  `json:"profit_amount"`
	DaysHeld          int      `json:"days_held"`
	ATR               float64  `json:"atr"`
	RelativeVolume    float64  `json:"relative_volume"`
}

// Evaluation carries the exit decision plus the post-ratchet peak. The
// caller must persist HighestSeen when RatchetMoved is set; the engine
// itself never writes anywhere.
type Evaluation struct {
	HighestSeen  float64
	RatchetMoved bool
	Signal       ExitSignal
}

// EvaluatePosition updates the ratchet and walks the ordered exit-rule
// matrix for one position against its latest enriched bar. Exactly one
// rule fires; earlier rules gate later ones. Given identical inputs the
// decision is identical.
func EvaluatePosition(cfg Config, pos models.Position, latest EnrichedBar, asOf time.Time) Evaluation {
	current := latest.Close

	// The ratchet always moves first so every threshold below sees the
	// freshest peak. It never moves down.
	highest := pos.HighestSeen
	moved := false
	if current > highest {
		highest = current
		moved = true
	}

	stopLoss := pos.BuyPrice * cfg.StopLossPct
	trailing := highest * 0.95 // fallback when volatility is unmeasurable
	if latest.ATR > 0 {
		trailing = highest - cfg.TrailingMultiplier*latest.ATR
	}

	profitPct := (current - pos.BuyPrice) / pos.BuyPrice * 100
	profitAmount := (current - pos.BuyPrice) * float64(pos.Quantity)
	daysHeld := int(asOf.Sub(pos.PurchaseDate).Hours() / 24)

	isRed := current < latest.Open
	isDoji := latest.Open > 0 && math.Abs(current-latest.Open)/latest.Open < dojiBodyThreshold

	sig := ExitSignal{
		Ticker:            pos.Ticker,
		Rule:              RuleHold,
		Urgency:           UrgencyLow,
		Action:            "HOLD",
		CurrentPrice:      current,
		StopLossPrice:     stopLoss,
		TrailingStopPrice: trailing,
		ProfitPct:         profitPct,
		ProfitAmount:      profitAmount,
		DaysHeld:          daysHeld,
		ATR:               latest.ATR,
		RelativeVolume:    latest.RelativeVolume,
	}

	switch {
	case current <= stopLoss:
		sig.Rule = RuleStopLoss
		sig.Urgency = UrgencyCritical
		sig.Action = "SELL NOW"
		sig.Reason = fmt.Sprintf("emergency brake: %.2f at or below hard stop %.2f", current, stopLoss)

	case current <= trailing:
		sig.Rule = RuleTakeProfit
		sig.Urgency = UrgencyHigh
		sig.Action = "SELL NOW"
		sig.Reason = fmt.Sprintf("trailing stop: retraced to %.2f from peak %.2f, trend broken", current, highest)

	case profitPct > cfg.ClimaxProfitThreshold &&
		latest.RelativeVolume > cfg.ClimaxRVOLThreshold &&
		(isRed || isDoji):
		// Half-liquidation is advisory only; the engine never mutates
		// the position's quantity.
		sig.Rule = RuleClimax
		sig.Urgency = UrgencyHigh
		sig.Action = "SELL HALF"
		sig.Reason = fmt.Sprintf("climax: RVOL %.1fx with reversal candle, possible distribution", latest.RelativeVolume)

	case daysHeld > cfg.ZombieDays && profitPct < cfg.ZombieProfitThreshold:
		sig.Rule = RuleZombie
		sig.Urgency = UrgencyMedium
		sig.Action = "SELL"
		sig.Reason = fmt.Sprintf("capital stagnation: %d days held with %.1f%% profit", daysHeld, profitPct)
	}

	return Evaluation{
		HighestSeen:  highest,
		RatchetMoved: moved,
		Signal:       sig,
	}
}
