package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/loci/internal/common"
	"github.com/ternarybob/loci/internal/interfaces"
	"github.com/ternarybob/loci/internal/models"
)

// PlaceCacheStorage implements the PlaceCacheStorage interface for Badger
type PlaceCacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPlaceCacheStorage creates a new PlaceCacheStorage instance
func NewPlaceCacheStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PlaceCacheStorage {
	return &PlaceCacheStorage{
		db:     db,
		logger: logger,
	}
}

func (s *PlaceCacheStorage) SaveEntry(ctx context.Context, entry *models.PlaceCacheEntry) error {
	if entry.PlaceID == "" {
		return fmt.Errorf("cache entry place ID is required")
	}
	if entry.ID == "" {
		entry.ID = common.NewCacheID()
	}
	entry.Email = normalizeEmail(entry.Email)

	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	if err := s.db.Store().Upsert(entry.ID, entry); err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}
	return nil
}

func (s *PlaceCacheStorage) GetEntry(ctx context.Context, placeID, email string) (*models.PlaceCacheEntry, error) {
	var entries []models.PlaceCacheEntry
	err := s.db.Store().Find(&entries, badgerhold.Where("PlaceID").Eq(placeID).Index("PlaceID").And("Email").Eq(normalizeEmail(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to query cache entry: %w", err)
	}
	if len(entries) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &entries[0], nil
}

func (s *PlaceCacheStorage) DeleteEntry(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.PlaceCacheEntry{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}
