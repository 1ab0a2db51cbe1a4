package http

import (
	"encoding/json"
	"net/http"

	"github.com/redalab/redalab-backend/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeError maps the error kind to an HTTP status and renders a structured
// body. Internal errors keep their detail out of the response.
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindValidation, apperr.KindUnknownRole:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindConflict:
		status = http.StatusConflict
	}
	msg := err.Error()
	if kind == apperr.KindInternal {
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: string(kind), Message: msg}})
}
