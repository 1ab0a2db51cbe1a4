package http

import (
	"net/http"

	"github.com/redalab/redalab-backend/internal/apperr"
	authmw "github.com/redalab/redalab-backend/internal/auth/middleware"
	"github.com/redalab/redalab-backend/internal/dashboard"
	"github.com/redalab/redalab-backend/internal/performance"
	"github.com/redalab/redalab-backend/internal/rbac"
)

// GET /performance/me — dispatches on the caller's role.
func MyMetricsHandler(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.MetricsFor(r.Context(),
			authmw.SubjectFromContext(r.Context()),
			rbac.RoleFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

// roleMetricsHandler serves the fixed-role variants /performance/{role}.
// The caller must actually hold that role; admins may view any variant for
// their own id.
func roleMetricsHandler(svc *dashboard.Service, want string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		if role != want && role != rbac.RoleAdmin {
			writeError(w, apperr.New(apperr.KindForbidden, "wrong role for this dashboard"))
			return
		}
		m, err := svc.MetricsFor(r.Context(), authmw.SubjectFromContext(r.Context()), want)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func StudentMetricsHandler(svc *dashboard.Service) http.HandlerFunc {
	return roleMetricsHandler(svc, rbac.RoleStudent)
}

func TeacherMetricsHandler(svc *dashboard.Service) http.HandlerFunc {
	return roleMetricsHandler(svc, rbac.RoleTeacher)
}

func AdminMetricsHandler(svc *dashboard.Service) http.HandlerFunc {
	return roleMetricsHandler(svc, rbac.RoleAdmin)
}

// GET /performance/aggregate — the materialized student_performance row.
func AggregateHandler(agg *performance.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := agg.PerformanceFor(r.Context(), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// GET /performance/history — per-essay competence points for charts.
func HistoryHandler(agg *performance.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := agg.HistoryFor(r.Context(), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, h)
	}
}

// GET /performance/monthly — the monthly evolution series.
func MonthlyHandler(agg *performance.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := agg.MonthlyFor(r.Context(), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}
