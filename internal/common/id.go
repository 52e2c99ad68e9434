package common

import (
	"github.com/google/uuid"
)

// NewSavedPlaceID generates a unique saved-place record ID
// Format: sp_<uuid>
func NewSavedPlaceID() string {
	return "sp_" + uuid.New().String()
}

// NewCacheID generates a unique place-cache record ID
// Format: pc_<uuid>
func NewCacheID() string {
	return "pc_" + uuid.New().String()
}
