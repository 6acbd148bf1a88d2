package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tmorder/tmorder/internal/service"
)

// Helper to respond with JSON
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("failed to encode response JSON", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]any{"error": err.Error()})
}

// respondServiceError maps the service sentinel errors onto HTTP statuses.
// Anything unmapped is a 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, err)
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidHorizon):
		respondError(w, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrOrderTerminal):
		respondError(w, http.StatusConflict, err)
	case errors.Is(err, service.ErrInvalidToken):
		respondError(w, http.StatusForbidden, err)
	default:
		respondError(w, http.StatusInternalServerError, err)
	}
}
