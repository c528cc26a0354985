package storage

import (
	"fmt"

	"dse-sniper-go/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BarStore is the keyed time-series store for daily bars.
type BarStore struct {
	db *gorm.DB
}

// NewBarStore creates a BarStore on top of an open database.
func NewBarStore(db *gorm.DB) *BarStore {
	return &BarStore{db: db}
}

// GetBars returns the full series for a ticker, ascending by date.
// An unknown ticker yields an empty slice, not an error.
func (s *BarStore) GetBars(ticker string) ([]models.Bar, error) {
	var bars []models.Bar
	err := s.db.Where("ticker = ?", ticker).Order("date asc").Find(&bars).Error
	if err != nil {
		return nil, fmt.Errorf("could not load bars for %s: %w", ticker, err)
	}
	return bars, nil
}

// GetAllTickers returns every ticker that has at least one bar.
func (s *BarStore) GetAllTickers() ([]string, error) {
	var tickers []string
	err := s.db.Model(&models.Bar{}).Distinct("ticker").Order("ticker").Pluck("ticker", &tickers).Error
	if err != nil {
		return nil, fmt.Errorf("could not list tickers: %w", err)
	}
	return tickers, nil
}

// UpsertBars inserts bars, overwriting any existing row for the same
// (ticker, date). An intraday snapshot is replaced by the final candle
// of the same day this way.
func (s *BarStore) UpsertBars(bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"open", "high", "low", "close", "volume", "is_final", "updated_at",
		}),
	}).Create(&bars).Error
	if err != nil {
		return fmt.Errorf("could not upsert %d bars: %w", len(bars), err)
	}
	return nil
}
