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

// SavedPlaceStorage implements the SavedPlaceStorage interface for Badger
type SavedPlaceStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSavedPlaceStorage creates a new SavedPlaceStorage instance
func NewSavedPlaceStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SavedPlaceStorage {
	return &SavedPlaceStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SavedPlaceStorage) SavePlace(ctx context.Context, place *models.SavedPlace) error {
	if place.ID == "" {
		place.ID = common.NewSavedPlaceID()
	}
	if place.Timestamp.IsZero() {
		place.Timestamp = time.Now()
	}

	if err := s.db.Store().Upsert(place.ID, place); err != nil {
		return fmt.Errorf("failed to save place: %w", err)
	}
	return nil
}

func (s *SavedPlaceStorage) SavePlaces(ctx context.Context, places []*models.SavedPlace) error {
	// BadgerHold doesn't expose a bulk upsert; iterate.
	for _, place := range places {
		if err := s.SavePlace(ctx, place); err != nil {
			return err
		}
	}
	return nil
}

func (s *SavedPlaceStorage) GetPlace(ctx context.Context, id string) (*models.SavedPlace, error) {
	var place models.SavedPlace
	if err := s.db.Store().Get(id, &place); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	return &place, nil
}

func (s *SavedPlaceStorage) GetByOwnerTitle(ctx context.Context, email, title string) (*models.SavedPlace, error) {
	var places []models.SavedPlace
	err := s.db.Store().Find(&places, badgerhold.Where("Email").Eq(email).Index("Email").And("Title").Eq(title))
	if err != nil {
		return nil, fmt.Errorf("failed to query place by owner and title: %w", err)
	}
	if len(places) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &places[0], nil
}

func (s *SavedPlaceStorage) ListByOwner(ctx context.Context, email string) ([]*models.SavedPlace, error) {
	var places []models.SavedPlace
	err := s.db.Store().Find(&places, badgerhold.Where("Email").Eq(email).Index("Email"))
	if err != nil {
		return nil, fmt.Errorf("failed to list places for %s: %w", email, err)
	}

	result := make([]*models.SavedPlace, len(places))
	for i := range places {
		result[i] = &places[i]
	}
	return result, nil
}

func (s *SavedPlaceStorage) ListAll(ctx context.Context) ([]*models.SavedPlace, error) {
	var places []models.SavedPlace
	if err := s.db.Store().Find(&places, nil); err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}

	result := make([]*models.SavedPlace, len(places))
	for i := range places {
		result[i] = &places[i]
	}
	return result, nil
}

func (s *SavedPlaceStorage) DeletePlace(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.SavedPlace{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete place: %w", err)
	}
	return nil
}

func (s *SavedPlaceStorage) CountByOwner(ctx context.Context, email string) (int, error) {
	count, err := s.db.Store().Count(&models.SavedPlace{}, badgerhold.Where("Email").Eq(email).Index("Email"))
	if err != nil {
		return 0, fmt.Errorf("failed to count places for %s: %w", email, err)
	}
	return int(count), nil
}
