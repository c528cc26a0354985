package storage

import (
	"fmt"

	"dse-sniper-go/internal/models"
	"gorm.io/gorm"
)

// SignalStore persists the latest entry-scan snapshot.
type SignalStore struct {
	db *gorm.DB
}

// NewSignalStore creates a SignalStore on top of an open database.
func NewSignalStore(db *gorm.DB) *SignalStore {
	return &SignalStore{db: db}
}

// ReplaceAll swaps the whole snapshot in one transaction so readers
// never observe a half-written scan.
func (s *SignalStore) ReplaceAll(signals []models.ScanSignal) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("1 = 1").Delete(&models.ScanSignal{}).Error; err != nil {
			return err
		}
		if len(signals) == 0 {
			return nil
		}
		return tx.Create(&signals).Error
	})
	if err != nil {
		return fmt.Errorf("could not replace scan signals: %w", err)
	}
	return nil
}

// Today returns the current snapshot ordered by score descending.
func (s *SignalStore) Today() ([]models.ScanSignal, error) {
	var signals []models.ScanSignal
	if err := s.db.Order("score desc, id asc").Find(&signals).Error; err != nil {
		return nil, fmt.Errorf("could not load scan signals: %w", err)
	}
	return signals, nil
}
