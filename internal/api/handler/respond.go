package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/notifyhub/indexnotify/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// mapError translates the notifier's error taxonomy to HTTP status codes.
// All mapping lives here so individual handlers stay concise.
func mapError(w http.ResponseWriter, err error) {
	var (
		ve  *domain.ValidationError
		ae  *domain.AuthenticationError
		rej *domain.RemoteRejectionError
		te  *domain.TransportError
	)
	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &ae):
		// Upstream refused our identity; the caller's request was fine.
		respondJSON(w, http.StatusBadGateway, map[string]any{
			"error":           err.Error(),
			"upstream_status": ae.StatusCode,
		})
	case errors.As(err, &rej):
		respondJSON(w, http.StatusBadGateway, map[string]any{
			"error":           err.Error(),
			"upstream_status": rej.StatusCode,
		})
	case errors.As(err, &te):
		respondError(w, http.StatusGatewayTimeout, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
