package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/loci/internal/models"
)

// ErrNotFound is returned when a requested document does not exist
var ErrNotFound = errors.New("not found")

// ErrKeyNotFound is returned when a KV key does not exist
var ErrKeyNotFound = errors.New("key not found")

// SavedPlaceStorage - persistence for ingested saved-place records
type SavedPlaceStorage interface {
	SavePlace(ctx context.Context, place *models.SavedPlace) error
	SavePlaces(ctx context.Context, places []*models.SavedPlace) error
	GetPlace(ctx context.Context, id string) (*models.SavedPlace, error)
	// GetByOwnerTitle resolves the (owner, title) dedup key; returns ErrNotFound when absent
	GetByOwnerTitle(ctx context.Context, email, title string) (*models.SavedPlace, error)
	ListByOwner(ctx context.Context, email string) ([]*models.SavedPlace, error)
	ListAll(ctx context.Context) ([]*models.SavedPlace, error)
	DeletePlace(ctx context.Context, id string) error
	CountByOwner(ctx context.Context, email string) (int, error)
}

// ProfileStorage - persistence for user recommendation profiles
type ProfileStorage interface {
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
	GetProfile(ctx context.Context, email string) (*models.UserProfile, error)
	DeleteProfile(ctx context.Context, email string) error
}

// PlaceCacheStorage - per-user cache of fetched place details and generated facts
type PlaceCacheStorage interface {
	SaveEntry(ctx context.Context, entry *models.PlaceCacheEntry) error
	// GetEntry looks up a cached detail by (place ID, requesting user); returns ErrNotFound when absent
	GetEntry(ctx context.Context, placeID, email string) (*models.PlaceCacheEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// KeyValuePair represents a stored key/value entry
type KeyValuePair struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KeyValueStorage - simple KV store for API keys and runtime settings
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]*KeyValuePair, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	SavedPlaceStorage() SavedPlaceStorage
	ProfileStorage() ProfileStorage
	PlaceCacheStorage() PlaceCacheStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
