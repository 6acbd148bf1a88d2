package handler

import (
	"net/http"

	"github.com/tmorder/tmorder/internal/service"
)

// CalendarHandler serves the ICS subscription feed.
type CalendarHandler struct {
	calendar service.CalendarService
}

// NewCalendarHandler creates the calendar feed handler.
func NewCalendarHandler(calendar service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

func (h *CalendarHandler) Feed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.calendar.Feed(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tmorder.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(feed)); err != nil {
		// client went away mid-download, nothing to do
		return
	}
}
