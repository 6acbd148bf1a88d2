package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tmorder/tmorder/internal/service"
)

// ReminderHandler exposes the reminder check and acknowledge endpoints used by
// external poll drivers.
type ReminderHandler struct {
	reminders service.ReminderService
}

// NewReminderHandler creates the reminder endpoints handler.
func NewReminderHandler(reminders service.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

// Check returns the set of reminders due at call time without sending or
// marking anything.
func (h *ReminderHandler) Check(w http.ResponseWriter, r *http.Request) {
	due, err := h.reminders.DueNow(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  due,
		"total": len(due),
	})
}

// Acknowledge marks one (order, horizon) reminder as sent.
func (h *ReminderHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	horizon := chi.URLParam(r, "horizon")
	if err := h.reminders.Acknowledge(r.Context(), id, horizon); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"order_id": id,
		"horizon":  horizon,
	})
}
