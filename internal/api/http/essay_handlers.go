package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/redalab/redalab-backend/internal/apperr"
	authmw "github.com/redalab/redalab-backend/internal/auth/middleware"
	"github.com/redalab/redalab-backend/internal/essay"
	"github.com/redalab/redalab-backend/internal/rbac"
	"github.com/redalab/redalab-backend/internal/storage"
)

type createEssayReq struct {
	Title  string `json:"title"`
	Text   string `json:"text"`
	Submit bool   `json:"submit"`
}

// POST /essays — the student is the authenticated subject, never a field the
// client chooses.
func CreateEssayHandler(svc *essay.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEssayReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "bad json"))
			return
		}
		e, err := svc.Create(r.Context(), authmw.SubjectFromContext(r.Context()), req.Title, req.Text, req.Submit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

// GET /essays — a student's own essays, newest first.
func ListEssaysHandler(svc *essay.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListByStudent(r.Context(), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /essays/pending — the teacher correction queue.
func ListPendingEssaysHandler(svc *essay.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
		list, err := svc.ListPending(r.Context(), limit, offset)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

type essayDetail struct {
	essay.Essay
	Score *essay.CompetenceScore `json:"score,omitempty"`
}

// GET /essays/{essayID} — owner, or any role with essay:view. Corrected
// essays carry their competency score record.
func GetEssayHandler(svc *essay.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.Get(r.Context(), chi.URLParam(r, "essayID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !canViewEssay(r, e) {
			writeError(w, apperr.New(apperr.KindForbidden, "not your essay"))
			return
		}
		detail := essayDetail{Essay: e}
		if e.Status == essay.StatusCorrected {
			if cs, err := svc.Score(r.Context(), e.ID); err == nil {
				detail.Score = &cs
			}
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

// POST /essays/{essayID}/submit — student sends a draft for correction.
func SubmitEssayHandler(svc *essay.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.Submit(r.Context(), chi.URLParam(r, "essayID"), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// GET /essays/{essayID}/pdf — streams the stored artifact.
func GetEssayPDFHandler(svc *essay.Service, blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.Get(r.Context(), chi.URLParam(r, "essayID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !canViewEssay(r, e) {
			writeError(w, apperr.New(apperr.KindForbidden, "not your essay"))
			return
		}
		if e.PDFKey == "" {
			writeError(w, apperr.New(apperr.KindNotFound, "no pdf for essay"))
			return
		}
		rc, err := blobs.Get(e.PDFKey)
		if err != nil {
			writeError(w, apperr.Wrap(apperr.KindNotFound, "pdf artifact missing", err))
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.Copy(w, rc)
	}
}

func canViewEssay(r *http.Request, e essay.Essay) bool {
	if authmw.SubjectFromContext(r.Context()) == e.StudentID {
		return true
	}
	role := rbac.RoleFromContext(r.Context())
	return rbac.NewChecker(nil).Has(role, "essay:view")
}

func parseIntDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
