package handler

import (
	"net/http"

	"github.com/tmorder/tmorder/internal/service"
)

// SystemHandler serves the status endpoint.
type SystemHandler struct {
	system service.SystemService
}

// NewSystemHandler creates the system status handler.
func NewSystemHandler(system service.SystemService) *SystemHandler {
	return &SystemHandler{system: system}
}

func (h *SystemHandler) Status(w http.ResponseWriter, r *http.Request) {
	view, err := h.system.Status(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
