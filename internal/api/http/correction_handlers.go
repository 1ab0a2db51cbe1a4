package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/redalab/redalab-backend/internal/apperr"
	authmw "github.com/redalab/redalab-backend/internal/auth/middleware"
	"github.com/redalab/redalab-backend/internal/essay"
	"github.com/redalab/redalab-backend/internal/grading"
)

var validate = validator.New()

type correctionReq struct {
	C1 int `json:"c1" validate:"min=0,max=200"`
	C2 int `json:"c2" validate:"min=0,max=200"`
	C3 int `json:"c3" validate:"min=0,max=200"`
	C4 int `json:"c4" validate:"min=0,max=200"`
	C5 int `json:"c5" validate:"min=0,max=200"`
}

// POST /essays/{essayID}/correct — teacher submits the five competency
// scores; the grader is the authenticated subject, the essay comes from the
// URL.
func CorrectEssayHandler(svc *essay.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req correctionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "bad json"))
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, apperr.Wrap(apperr.KindValidation, "competency scores out of range", err))
			return
		}
		cs, err := svc.SubmitCorrection(r.Context(),
			chi.URLParam(r, "essayID"),
			authmw.SubjectFromContext(r.Context()),
			grading.Scores{C1: req.C1, C2: req.C2, C3: req.C3, C4: req.C4, C5: req.C5})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, cs)
	}
}
