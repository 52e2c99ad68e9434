package server

import "net/http"

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.app.HealthHandler.HealthHandler)

	// Ingestion
	mux.HandleFunc("/api/takeout/upload", s.app.TakeoutHandler.UploadHandler)
	mux.HandleFunc("/api/takeout/folder", s.app.TakeoutHandler.FolderHandler)

	// Saved places and facts
	mux.HandleFunc("/api/saved-places", s.app.PlacesHandler.ListSavedHandler)
	mux.HandleFunc("/api/places/facts", s.app.PlacesHandler.FactsHandler)

	// Profile and bookmarks
	mux.HandleFunc("/api/profile", s.app.ProfileHandler.ProfileHandler)
	mux.HandleFunc("/api/profile/bookmarks", s.app.ProfileHandler.BookmarksHandler)

	// Recommendations
	mux.HandleFunc("/api/recommendations/nearby", s.app.RecommendHandler.NearbyHandler)
	mux.HandleFunc("/api/recommendations/query", s.app.RecommendHandler.QueryHandler)

	return mux
}
