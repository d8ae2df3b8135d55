package handler

import "net/http"

// HealthHandler serves the liveness probe endpoint. It also reports which
// notification channels are configured so operators can spot a missing key
// without submitting anything.
type HealthHandler struct {
	indexNow bool
	indexing bool
}

func NewHealthHandler(indexNowConfigured, indexingConfigured bool) *HealthHandler {
	return &HealthHandler{indexNow: indexNowConfigured, indexing: indexingConfigured}
}

// Health handles GET /health
//
// @Summary  Liveness probe
// @Tags     system
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"channels": map[string]bool{
			"indexnow": h.indexNow,
			"indexing": h.indexing,
		},
	})
}
