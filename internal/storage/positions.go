package storage

import (
	"errors"
	"fmt"

	"dse-sniper-go/internal/models"
	"gorm.io/gorm"
)

// ErrPositionExists is returned when opening a ticker that is already held.
var ErrPositionExists = errors.New("position already exists")

// ErrPositionNotFound is returned when a ticker has no open position.
var ErrPositionNotFound = errors.New("position not found")

// PositionStore is the keyed store for open portfolio positions.
type PositionStore struct {
	db *gorm.DB
}

// NewPositionStore creates a PositionStore on top of an open database.
func NewPositionStore(db *gorm.DB) *PositionStore {
	return &PositionStore{db: db}
}

// GetOpenPositions returns every open position ordered by ticker.
func (s *PositionStore) GetOpenPositions() ([]models.Position, error) {
	var positions []models.Position
	if err := s.db.Order("ticker").Find(&positions).Error; err != nil {
		return nil, fmt.Errorf("could not load positions: %w", err)
	}
	return positions, nil
}

// Get returns the open position for a ticker.
func (s *PositionStore) Get(ticker string) (*models.Position, error) {
	var pos models.Position
	err := s.db.Where("ticker = ?", ticker).First(&pos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPositionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not load position %s: %w", ticker, err)
	}
	return &pos, nil
}

// Open records a new position. The ratchet starts at the buy price.
func (s *PositionStore) Open(pos *models.Position) error {
	if pos.HighestSeen < pos.BuyPrice {
		pos.HighestSeen = pos.BuyPrice
	}

	var count int64
	if err := s.db.Model(&models.Position{}).Where("ticker = ?", pos.Ticker).Count(&count).Error; err != nil {
		return fmt.Errorf("could not check for existing position %s: %w", pos.Ticker, err)
	}
	if count > 0 {
		return fmt.Errorf("%s: %w", pos.Ticker, ErrPositionExists)
	}

	if err := s.db.Create(pos).Error; err != nil {
		return fmt.Errorf("could not open position %s: %w", pos.Ticker, err)
	}
	return nil
}

// UpdateHighestSeen persists a new ratchet value. The WHERE guard keeps
// the update monotonic even if a stale value races in: the peak can
// only ever be raised.
func (s *PositionStore) UpdateHighestSeen(ticker string, newValue float64) error {
	res := s.db.Model(&models.Position{}).
		Where("ticker = ? AND highest_seen < ?", ticker, newValue).
		Update("highest_seen", newValue)
	if res.Error != nil {
		return fmt.Errorf("could not update peak for %s: %w", ticker, res.Error)
	}
	return nil
}

// Remove deletes a position after the external trade-close workflow has
// acted on a sell decision.
func (s *PositionStore) Remove(ticker string) error {
	res := s.db.Unscoped().Where("ticker = ?", ticker).Delete(&models.Position{})
	if res.Error != nil {
		return fmt.Errorf("could not remove position %s: %w", ticker, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", ticker, ErrPositionNotFound)
	}
	return nil
}
