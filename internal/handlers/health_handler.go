package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loci/internal/common"
)

// HealthHandler reports service liveness and build info
type HealthHandler struct {
	logger arbor.ILogger
}

func NewHealthHandler(logger arbor.ILogger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

// HealthHandler handles GET /api/health
func (h *HealthHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"service": "loci",
		"version": common.GetVersion(),
	})
}
