package models

import (
	"time"

	"gorm.io/gorm"
)

// ScanSignal is one row of the latest entry scan, persisted so the
// dashboard can serve ranked signals without re-running the analysis.
// The table is replaced wholesale on every scan cycle.
type ScanSignal struct {
	gorm.Model
	Ticker         string    `json:"ticker"`
	Date           time.Time `json:"date"`
	Close          float64   `json:"close"`
	Volume         int64     `json:"volume"`
	RVOL           float64   `json:"rvol"`
	AvgVolumeRef   float64   `json:"avg_volume_ref"`
	PriceChangePct float64   `json:"price_change_pct"`
	SMATrend       float64   `json:"sma_trend"`
	Score          int       `json:"score"`
	Signal         string    `json:"signal"` // "BUY", "WAIT" or "IGNORE"
	Reasons        string    `json:"reasons"`
}
