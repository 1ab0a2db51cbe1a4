// Package dashboard is the read side: role-scoped metrics for the student,
// teacher and admin dashboards. All queries are pure reads over the essay and
// user tables.
package dashboard

import (
	"context"
	"time"

	"github.com/redalab/redalab-backend/internal/apperr"
	"github.com/redalab/redalab-backend/internal/rbac"
)

// StudentMetrics is computed directly from the essay rows, not from the
// student_performance aggregate. Both read paths exist on purpose; see
// DESIGN.md for the trade-off.
type StudentMetrics struct {
	EssaysTotal  int      `json:"essays_total"`
	PendingCount int      `json:"pending_count"`
	LastScore    *int     `json:"last_score"`
	AverageScore *float64 `json:"average_score"`
}

type TeacherMetrics struct {
	CorrectionsDone int        `json:"corrections_done"`
	PendingEssays   int        `json:"pending_essays"`
	WeeklyCorrected []DayCount `json:"weekly_corrected"`
}

type AdminMetrics struct {
	UsersTotal    int           `json:"users_total"`
	StudentsTotal int           `json:"students_total"`
	TeachersTotal int           `json:"teachers_total"`
	EssaysTotal   int           `json:"essays_total"`
	PendingCount  int           `json:"pending_count"`
	WeeklyCreated []DayCount    `json:"weekly_created"`
	RecentEssays  []RecentEssay `json:"recent_essays"`
}

// DayCount is one point of a 7-day chart series, oldest day first.
type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// RecentEssay is the trimmed essay row shown on the admin dashboard.
type RecentEssay struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	StudentMetrics(ctx context.Context, studentID string) (StudentMetrics, error)
	TeacherMetrics(ctx context.Context, graderID string) (TeacherMetrics, error)
	AdminMetrics(ctx context.Context) (AdminMetrics, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

// MetricsFor routes to the query matching the caller's role. A role outside
// the recognized set is a client error, never a silent default dashboard.
func (s *Service) MetricsFor(ctx context.Context, userID, role string) (any, error) {
	switch role {
	case rbac.RoleStudent:
		return s.store.StudentMetrics(ctx, userID)
	case rbac.RoleTeacher:
		return s.store.TeacherMetrics(ctx, userID)
	case rbac.RoleAdmin:
		return s.store.AdminMetrics(ctx)
	default:
		return nil, apperr.Newf(apperr.KindUnknownRole, "unknown role %q", role)
	}
}
