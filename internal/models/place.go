package models

import (
	"time"
)

// SavedPlace represents one row of a user's exported saved-places history,
// enriched during ingestion. Records are immutable after creation: re-ingestion
// supersedes, it never updates in place. Uniqueness is (Email, Title).
type SavedPlace struct {
	ID        string    `json:"id"` // sp_{uuid}
	Email     string    `json:"email" badgerhold:"index"`
	Title     string    `json:"title" badgerhold:"index"`
	URL       string    `json:"url"`
	Note      string    `json:"note"`
	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"`

	// Enrichment from place resolution; empty when the URL could not be resolved
	PlaceID     string   `json:"place_id,omitempty"`
	Types       []string `json:"types,omitempty"`
	Location    string   `json:"location,omitempty"` // "lat,lng"
	Description string   `json:"place_description,omitempty"`
}

// Location represents a geographic coordinate
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Review represents a single place review, projected from the Places API
type Review struct {
	AuthorName      string  `json:"author_name"`
	AuthorURL       string  `json:"author_url,omitempty"`
	ProfilePhotoURL string  `json:"profile_photo_url,omitempty"`
	Rating          float64 `json:"rating"`
	Text            string  `json:"text"`
	Time            string  `json:"time"`
	RelativeTime    string  `json:"relative_time_description,omitempty"`
}

// PlaceDetail is the normalized projection of a Places API place record.
// Immutable once constructed; DistanceMiles is derived from the requesting
// origin and is not meaningful without one.
type PlaceDetail struct {
	PlaceID          string   `json:"place_id"`
	Title            string   `json:"title"`
	Location         Location `json:"location"`
	DistanceMiles    float64  `json:"distance"`
	Address          string   `json:"address"`
	City             string   `json:"city,omitempty"`
	State            string   `json:"state,omitempty"`
	Country          string   `json:"country,omitempty"`
	PostalCode       string   `json:"postal_code,omitempty"`
	PhotoURLs        []string `json:"photo_url"`
	Reviews          []Review `json:"reviews"`
	Rating           float64  `json:"rating,omitempty"`
	UserRatingCount  int      `json:"user_rating_count,omitempty"`
	EditorialSummary string   `json:"editorial_summary,omitempty"`
	PrimaryType      string   `json:"primary_type,omitempty"`
	Types            []string `json:"types"`
	OpeningHours     []string `json:"opening_hours,omitempty"` // Weekday descriptions
	IntlPhoneNumber  string   `json:"international_phone_number,omitempty"`
	NatlPhoneNumber  string   `json:"national_phone_number,omitempty"`
	PriceLevel       string   `json:"price_level,omitempty"`
	PlusCode         string   `json:"plus_code,omitempty"`
	WebsiteURI       string   `json:"website_uri,omitempty"`
}

// PlaceCacheEntry caches a fetched PlaceDetail (and any generated facts)
// per requesting user, to avoid repeat Places API and oracle calls.
type PlaceCacheEntry struct {
	ID        string      `json:"id"` // pc_{uuid}
	PlaceID   string      `json:"place_id" badgerhold:"index"`
	Email     string      `json:"email" badgerhold:"index"`
	Detail    PlaceDetail `json:"detail"`
	Facts     string      `json:"interesting_facts,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
