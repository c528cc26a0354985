package storage

import (
	"errors"
	"fmt"

	"dse-sniper-go/internal/models"
	"gorm.io/gorm"
)

// FundamentalStore serves static per-ticker fundamentals.
type FundamentalStore struct {
	db *gorm.DB
}

// NewFundamentalStore creates a FundamentalStore on top of an open database.
func NewFundamentalStore(db *gorm.DB) *FundamentalStore {
	return &FundamentalStore{db: db}
}

// PaidUpCapital returns the paid-up capital (Cr) for a ticker, or nil
// when no fundamental is on record. Absence is not an error.
func (s *FundamentalStore) PaidUpCapital(ticker string) (*float64, error) {
	var f models.Fundamental
	err := s.db.Where("ticker = ?", ticker).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not load fundamental for %s: %w", ticker, err)
	}
	v := f.PaidUpCapitalCr
	return &v, nil
}
