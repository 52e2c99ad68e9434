package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/loci/internal/common"
	"github.com/ternarybob/loci/internal/interfaces"
	"github.com/ternarybob/loci/internal/models"
)

type memStorage struct {
	places map[string]*models.SavedPlace
}

func (m *memStorage) SavePlace(ctx context.Context, p *models.SavedPlace) error {
	m.places[p.ID] = p
	return nil
}

func (m *memStorage) SavePlaces(ctx context.Context, places []*models.SavedPlace) error {
	for _, p := range places {
		m.places[p.ID] = p
	}
	return nil
}

func (m *memStorage) GetPlace(ctx context.Context, id string) (*models.SavedPlace, error) {
	if p, found := m.places[id]; found {
		return p, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memStorage) GetByOwnerTitle(ctx context.Context, email, title string) (*models.SavedPlace, error) {
	return nil, interfaces.ErrNotFound
}

func (m *memStorage) ListByOwner(ctx context.Context, email string) ([]*models.SavedPlace, error) {
	return nil, nil
}

func (m *memStorage) ListAll(ctx context.Context) ([]*models.SavedPlace, error) {
	var out []*models.SavedPlace
	for _, p := range m.places {
		out = append(out, p)
	}
	return out, nil
}

func (m *memStorage) DeletePlace(ctx context.Context, id string) error {
	delete(m.places, id)
	return nil
}

func (m *memStorage) CountByOwner(ctx context.Context, email string) (int, error) {
	return len(m.places), nil
}

func TestRunRemovesDuplicatesKeepingOldest(t *testing.T) {
	now := time.Now()
	storage := &memStorage{places: map[string]*models.SavedPlace{
		"sp_1": {ID: "sp_1", Email: "alice@example.com", Title: "Tartine Bakery", Timestamp: now.Add(-2 * time.Hour)},
		"sp_2": {ID: "sp_2", Email: "alice@example.com", Title: "Tartine Bakery", Timestamp: now.Add(-1 * time.Hour)},
		"sp_3": {ID: "sp_3", Email: "alice@example.com", Title: "tartine bakery", Timestamp: now},
		"sp_4": {ID: "sp_4", Email: "bob@example.com", Title: "Tartine Bakery", Timestamp: now},
		"sp_5": {ID: "sp_5", Email: "alice@example.com", Title: "SFMOMA", Timestamp: now},
	}}

	svc := NewService(common.NewDefaultConfig(), storage, common.GetLogger())
	removed, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, removed)
	assert.Contains(t, storage.places, "sp_1", "oldest duplicate survives")
	assert.NotContains(t, storage.places, "sp_2")
	assert.NotContains(t, storage.places, "sp_3")
	assert.Contains(t, storage.places, "sp_4", "other owners untouched")
	assert.Contains(t, storage.places, "sp_5")
}

func TestRunNoDuplicates(t *testing.T) {
	storage := &memStorage{places: map[string]*models.SavedPlace{
		"sp_1": {ID: "sp_1", Email: "alice@example.com", Title: "A", Timestamp: time.Now()},
	}}

	svc := NewService(common.NewDefaultConfig(), storage, common.GetLogger())
	removed, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
}
