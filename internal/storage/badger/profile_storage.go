package badger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/loci/internal/interfaces"
	"github.com/ternarybob/loci/internal/models"
)

// ProfileStorage implements the ProfileStorage interface for Badger.
// Profiles are keyed by normalized email.
type ProfileStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewProfileStorage creates a new ProfileStorage instance
func NewProfileStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ProfileStorage {
	return &ProfileStorage{
		db:     db,
		logger: logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *ProfileStorage) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	if profile.Email == "" {
		return fmt.Errorf("profile email is required")
	}
	profile.Email = normalizeEmail(profile.Email)

	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	if err := s.db.Store().Upsert(profile.Email, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (s *ProfileStorage) GetProfile(ctx context.Context, email string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.Store().Get(normalizeEmail(email), &profile); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

func (s *ProfileStorage) DeleteProfile(ctx context.Context, email string) error {
	if err := s.db.Store().Delete(normalizeEmail(email), &models.UserProfile{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}
