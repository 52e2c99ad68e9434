package reconcile

import (
	"context"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loci/internal/common"
	"github.com/ternarybob/loci/internal/interfaces"
	"github.com/ternarybob/loci/internal/models"
)

// Service periodically sweeps the saved-places store for duplicate
// (owner, title) records. Concurrent ingestion workers do not serialize their
// duplicate checks, so two workers can occasionally both save the same row;
// this pass keeps the oldest record and removes the rest.
type Service struct {
	config      *common.Config
	logger      arbor.ILogger
	savedPlaces interfaces.SavedPlaceStorage
	scheduler   *cron.Cron
}

func NewService(config *common.Config, savedPlaces interfaces.SavedPlaceStorage, logger arbor.ILogger) *Service {
	return &Service{
		config:      config,
		logger:      logger,
		savedPlaces: savedPlaces,
		scheduler:   cron.New(cron.WithSeconds()),
	}
}

// Start schedules the reconciliation pass. No-op when disabled in config.
func (s *Service) Start() error {
	if !s.config.Reconcile.Enabled {
		s.logger.Info().Msg("Duplicate reconciliation disabled")
		return nil
	}

	_, err := s.scheduler.AddFunc(s.config.Reconcile.Schedule, func() {
		common.SafeGo(s.logger, "reconcile-pass", func() {
			if _, err := s.Run(context.Background()); err != nil {
				s.logger.Error().Err(err).Msg("Reconciliation pass failed")
			}
		})
	})
	if err != nil {
		return err
	}

	s.scheduler.Start()
	s.logger.Info().Str("schedule", s.config.Reconcile.Schedule).Msg("Duplicate reconciliation scheduled")
	return nil
}

// Stop halts the scheduler, waiting for a running pass to finish.
func (s *Service) Stop() {
	ctx := s.scheduler.Stop()
	<-ctx.Done()
}

// Run executes one reconciliation pass and returns the number of duplicate
// records removed.
func (s *Service) Run(ctx context.Context) (int, error) {
	places, err := s.savedPlaces.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	groups := make(map[string][]*models.SavedPlace)
	for _, place := range places {
		key := strings.ToLower(place.Email) + "|" + strings.ToLower(place.Title)
		groups[key] = append(groups[key], place)
	}

	removed := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}

		oldest := group[0]
		for _, place := range group[1:] {
			if place.Timestamp.Before(oldest.Timestamp) {
				oldest = place
			}
		}

		for _, place := range group {
			if place.ID == oldest.ID {
				continue
			}
			if err := s.savedPlaces.DeletePlace(ctx, place.ID); err != nil {
				s.logger.Warn().Err(err).Str("id", place.ID).Msg("Failed to remove duplicate record")
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Reconciliation pass removed duplicates")
	}
	return removed, nil
}
