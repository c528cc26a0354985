package models

import "gorm.io/gorm"

// Fundamental holds static per-ticker fundamentals used by the entry
// scorer. PaidUpCapitalCr is the paid-up capital in Crore units.
type Fundamental struct {
	gorm.Model
	Ticker          string  `gorm:"uniqueIndex;not null" json:"ticker"`
	PaidUpCapitalCr float64 `json:"paid_up_capital_cr"`
}
