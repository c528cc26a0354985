package engine

import (
	"math"
	"time"

	"dse-sniper-go/internal/models"
)

// EnrichedBar is a Bar carrying the derived trend, volume and volatility
// indicators for that day.
type EnrichedBar struct {
	models.Bar

	// SMATrend is the trailing TrendWindow-day mean of close, expanding
	// while fewer days exist.
	SMATrend float64

	// AvgVolumeRef is the trailing RVOLWindow-day mean volume computed
	// from the bar immediately prior backwards, so a bar's own volume
	// never contaminates its baseline. 0 on the first bar.
	AvgVolumeRef float64

	// ProjectedVolume is the session-extrapolated volume for a non-final
	// last bar, otherwise the observed volume.
	ProjectedVolume float64

	// RelativeVolume is ProjectedVolume / AvgVolumeRef, 0 when the
	// reference is 0. Always finite.
	RelativeVolume float64

	// PriceChangePct is the close-to-close change in percent, 0 on the
	// first bar.
	PriceChangePct float64

	TrueRange float64
	ATR       float64
}

// Enrich derives indicators for an ascending-by-date bar series. The
// output has the same length and order as the input. asOf is the
// evaluation time used to project the volume of a non-final last bar;
// closed candles are never projected.
func Enrich(cfg Config, bars []models.Bar, asOf time.Time) []EnrichedBar {
	if len(bars) == 0 {
		return nil
	}

	out := make([]EnrichedBar, len(bars))
	var closeSum, volSum, atr float64
	alpha := 1 / float64(cfg.ATRPeriod)

	for i, b := range bars {
		e := EnrichedBar{Bar: b}

		// Trend: trailing mean of close, including the current bar.
		closeSum += b.Close
		if i >= cfg.TrendWindow {
			closeSum -= bars[i-cfg.TrendWindow].Close
		}
		n := i + 1
		if n > cfg.TrendWindow {
			n = cfg.TrendWindow
		}
		e.SMATrend = closeSum / float64(n)

		// Reference volume: trailing mean of the prior bars only.
		if i > 0 {
			m := i
			if m > cfg.RVOLWindow {
				m = cfg.RVOLWindow
			}
			e.AvgVolumeRef = volSum / float64(m)
		}

		observed := float64(b.Volume)
		if i == len(bars)-1 && !b.IsFinal {
			e.ProjectedVolume = cfg.Session.ProjectVolume(observed, asOf)
		} else {
			e.ProjectedVolume = observed
		}

		if e.AvgVolumeRef > 0 {
			e.RelativeVolume = e.ProjectedVolume / e.AvgVolumeRef
		}

		if i > 0 && bars[i-1].Close != 0 {
			e.PriceChangePct = (b.Close - bars[i-1].Close) / bars[i-1].Close * 100
		}

		// True range and Wilder-smoothed ATR, seeded with the first TR.
		tr := b.High - b.Low
		if i > 0 {
			prevClose := bars[i-1].Close
			if d := math.Abs(b.High - prevClose); d > tr {
				tr = d
			}
			if d := math.Abs(b.Low - prevClose); d > tr {
				tr = d
			}
		}
		e.TrueRange = tr
		if i == 0 {
			atr = tr
		} else {
			atr = (1-alpha)*atr + alpha*tr
		}
		e.ATR = atr

		out[i] = e

		// Roll the volume window forward for the next bar's reference.
		volSum += float64(b.Volume)
		if i >= cfg.RVOLWindow {
			volSum -= float64(bars[i-cfg.RVOLWindow].Volume)
		}
	}

	return out
}
