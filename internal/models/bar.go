package models

import (
	"time"

	"gorm.io/gorm"
)

// Bar represents one daily price-and-volume candle for a ticker.
// IsFinal=false marks an intraday snapshot whose volume is still
// accumulating; true marks a closed end-of-day candle.
type Bar struct {
	gorm.Model
	Ticker  string    `gorm:"uniqueIndex:idx_ticker_date;not null" json:"ticker"`
	Date    time.Time `gorm:"uniqueIndex:idx_ticker_date;not null" json:"date"`
	Open    float64   `json:"open"`
	High    float64   `json:"high"`
	Low     float64   `json:"low"`
	Close   float64   `json:"close"`
	Volume  int64     `json:"volume"`
	IsFinal bool      `json:"is_final"`
}
