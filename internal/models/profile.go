package models

import (
	"time"
)

// BookmarkedPlace is an embedded place summary stored on a user profile.
// Keyed in the profile's bookmark map by place ID (or title when unresolved).
type BookmarkedPlace struct {
	PlaceID    string `json:"place_id,omitempty"`
	Title      string `json:"title"`
	Summary    string `json:"summary,omitempty"`
	Bookmarked bool   `json:"bookmarked"`
	Visited    bool   `json:"visited"`
}

// UserProfile represents a user's recommendation profile.
// Updates are read-modify-write against the whole document; no partial-field
// transaction guarantee is assumed.
type UserProfile struct {
	Email                string                     `json:"email"`
	DisplayName          string                     `json:"display_name,omitempty"`
	Interests            []string                   `json:"interests"`
	UserDescription      string                     `json:"user_description,omitempty"`
	GeneratedDescription string                     `json:"generated_description,omitempty"` // Oracle-derived, regenerable
	Bookmarks            map[string]BookmarkedPlace `json:"bookmarks,omitempty"`
	CreatedAt            time.Time                  `json:"created_at"`
	UpdatedAt            time.Time                  `json:"updated_at"`
}
