package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/ternarybob/loci/internal/interfaces"
	"github.com/ternarybob/loci/internal/models"
)

// BuildUserContext assembles the prompt context bundle: profile fields plus a
// bounded, class-balanced sample of the user's saved places. Half the sample
// budget goes to food places and half to everything else; pools larger than
// their half-budget are sampled uniformly.
func (s *Service) BuildUserContext(ctx context.Context, email string) string {
	var sb strings.Builder

	profile, err := s.profiles.GetProfile(ctx, email)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		s.logger.Warn().Err(err).Str("email", email).Msg("Failed to load profile for context bundle")
	}
	if profile != nil {
		if len(profile.Interests) > 0 {
			fmt.Fprintf(&sb, "Interests: %s\n", strings.Join(profile.Interests, ", "))
		}
		if profile.UserDescription != "" {
			fmt.Fprintf(&sb, "About the user (their own words): %s\n", profile.UserDescription)
		}
		if profile.GeneratedDescription != "" {
			fmt.Fprintf(&sb, "User summary: %s\n", profile.GeneratedDescription)
		}
	}

	saved, err := s.savedPlaces.ListByOwner(ctx, email)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("Failed to load saved places for context bundle")
	}

	sample := balancedSample(saved, s.config.Agent.SampleLimit)
	if len(sample) > 0 {
		sb.WriteString("Places the user has saved:\n")
		for _, place := range sample {
			fmt.Fprintf(&sb, "- %s", place.Title)
			if len(place.Types) > 0 {
				fmt.Fprintf(&sb, " (%s)", strings.Join(place.Types, ", "))
			}
			if place.Note != "" {
				fmt.Fprintf(&sb, " — note: %s", place.Note)
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// balancedSample picks up to limit places, half from food-related entries and
// half from the rest.
func balancedSample(places []*models.SavedPlace, limit int) []*models.SavedPlace {
	if limit <= 0 || len(places) == 0 {
		return nil
	}

	var food, other []*models.SavedPlace
	for _, p := range places {
		if IsFoodPlace(p.Types) {
			food = append(food, p)
		} else {
			other = append(other, p)
		}
	}

	half := limit / 2
	sample := append(samplePool(food, half), samplePool(other, limit-half)...)
	return sample
}

func samplePool(pool []*models.SavedPlace, n int) []*models.SavedPlace {
	if len(pool) <= n {
		return pool
	}

	picked := make([]*models.SavedPlace, len(pool))
	copy(picked, pool)
	rand.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	return picked[:n]
}
