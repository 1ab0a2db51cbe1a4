package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/redalab/redalab-backend/internal/audit"
)

// GET /essays/{essayID}/events — the audit trail of one essay.
func EssayEventsHandler(log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := log.Recent(r.Context(), chi.URLParam(r, "essayID"), parseIntDefault(r.URL.Query().Get("limit"), 20))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}
