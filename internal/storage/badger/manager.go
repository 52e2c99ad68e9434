package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loci/internal/common"
	"github.com/ternarybob/loci/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db         *BadgerDB
	savedPlace interfaces.SavedPlaceStorage
	profile    interfaces.ProfileStorage
	placeCache interfaces.PlaceCacheStorage
	kv         interfaces.KeyValueStorage
	logger     arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:         db,
		savedPlace: NewSavedPlaceStorage(db, logger),
		profile:    NewProfileStorage(db, logger),
		placeCache: NewPlaceCacheStorage(db, logger),
		kv:         NewKVStorage(db, logger),
		logger:     logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// SavedPlaceStorage returns the saved-place storage interface
func (m *Manager) SavedPlaceStorage() interfaces.SavedPlaceStorage {
	return m.savedPlace
}

// ProfileStorage returns the profile storage interface
func (m *Manager) ProfileStorage() interfaces.ProfileStorage {
	return m.profile
}

// PlaceCacheStorage returns the place-cache storage interface
func (m *Manager) PlaceCacheStorage() interfaces.PlaceCacheStorage {
	return m.placeCache
}

// KeyValueStorage returns the KV storage interface
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// Close closes the underlying database
func (m *Manager) Close() error {
	return m.db.Close()
}
