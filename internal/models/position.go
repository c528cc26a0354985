package models

import (
	"time"

	"gorm.io/gorm"
)

// Position represents an open holding in the portfolio.
// HighestSeen is the ratchet: the maximum close observed since purchase.
// It starts at BuyPrice and only ever moves up.
type Position struct {
	gorm.Model
	Ticker       string    `gorm:"uniqueIndex;not null" json:"ticker"`
	BuyPrice     float64   `gorm:"not null" json:"buy_price"`
	Quantity     int64     `gorm:"not null" json:"quantity"`
	HighestSeen  float64   `gorm:"not null" json:"highest_seen"`
	PurchaseDate time.Time `gorm:"not null" json:"purchase_date"`
	Notes        string    `json:"notes,omitempty"`
}
