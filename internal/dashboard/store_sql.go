package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redalab/redalab-backend/internal/db"
	"github.com/redalab/redalab-backend/internal/essay"
	"github.com/redalab/redalab-backend/internal/rbac"
)

type SQLStore struct {
	q   db.Querier
	now func() time.Time
}

func NewSQLStore(sdb *sql.DB) *SQLStore { return &SQLStore{q: sdb, now: time.Now} }

// SetNow overrides the clock. Tests use this to pin the 7-day window.
func (s *SQLStore) SetNow(now func() time.Time) { s.now = now }

func (s *SQLStore) StudentMetrics(ctx context.Context, studentID string) (StudentMetrics, error) {
	var m StudentMetrics
	if err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM essays WHERE student_id=$1`, studentID).Scan(&m.EssaysTotal); err != nil {
		return StudentMetrics{}, err
	}
	if err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM essays WHERE student_id=$1 AND status=$2`,
		studentID, string(essay.StatusSubmitted)).Scan(&m.PendingCount); err != nil {
		return StudentMetrics{}, err
	}

	var last sql.NullInt64
	err := s.q.QueryRowContext(ctx,
		`SELECT score_total FROM essays WHERE student_id=$1 AND status=$2 ORDER BY updated_at DESC LIMIT 1`,
		studentID, string(essay.StatusCorrected)).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return StudentMetrics{}, err
	}
	if last.Valid {
		v := int(last.Int64)
		m.LastScore = &v
	}

	var avg sql.NullFloat64
	if err := s.q.QueryRowContext(ctx,
		`SELECT AVG(score_total) FROM essays WHERE student_id=$1 AND status=$2`,
		studentID, string(essay.StatusCorrected)).Scan(&avg); err != nil {
		return StudentMetrics{}, err
	}
	if avg.Valid {
		m.AverageScore = &avg.Float64
	}
	return m, nil
}

func (s *SQLStore) TeacherMetrics(ctx context.Context, graderID string) (TeacherMetrics, error) {
	var m TeacherMetrics
	if err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM competence_scores WHERE graded_by=$1`, graderID).Scan(&m.CorrectionsDone); err != nil {
		return TeacherMetrics{}, err
	}
	if err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM essays WHERE status=$1`, string(essay.StatusSubmitted)).Scan(&m.PendingEssays); err != nil {
		return TeacherMetrics{}, err
	}

	now := s.now()
	stamps, err := s.collectStamps(ctx,
		`SELECT updated_at FROM essays WHERE status=$1 AND updated_at >= $2`,
		string(essay.StatusCorrected), weekStart(now).Unix())
	if err != nil {
		return TeacherMetrics{}, err
	}
	m.WeeklyCorrected = weekSeries(now, stamps)
	return m, nil
}

func (s *SQLStore) AdminMetrics(ctx context.Context) (AdminMetrics, error) {
	var m AdminMetrics
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&m.UsersTotal); err != nil {
		return AdminMetrics{}, err
	}
	if err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role=$1`, rbac.RoleStudent).Scan(&m.StudentsTotal); err != nil {
		return AdminMetrics{}, err
	}
	if err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role=$1`, rbac.RoleTeacher).Scan(&m.TeachersTotal); err != nil {
		return AdminMetrics{}, err
	}
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM essays`).Scan(&m.EssaysTotal); err != nil {
		return AdminMetrics{}, err
	}
	if err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM essays WHERE status=$1`, string(essay.StatusSubmitted)).Scan(&m.PendingCount); err != nil {
		return AdminMetrics{}, err
	}

	now := s.now()
	stamps, err := s.collectStamps(ctx,
		`SELECT created_at FROM essays WHERE created_at >= $1`, weekStart(now).Unix())
	if err != nil {
		return AdminMetrics{}, err
	}
	m.WeeklyCreated = weekSeries(now, stamps)

	recent, err := s.recentEssays(ctx, 10)
	if err != nil {
		return AdminMetrics{}, err
	}
	m.RecentEssays = recent
	return m, nil
}

func (s *SQLStore) recentEssays(ctx context.Context, limit int) ([]RecentEssay, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id,student_id,title,status,created_at FROM essays ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RecentEssay{}
	for rows.Next() {
		var e RecentEssay
		var created int64
		if err := rows.Scan(&e.ID, &e.StudentID, &e.Title, &e.Status, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(created, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) collectStamps(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []int64{}
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// weekStart is midnight six days before now, the left edge of the 7-day chart.
func weekStart(now time.Time) time.Time {
	d := now.AddDate(0, 0, -6)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// weekSeries buckets the timestamps into the last seven calendar days, oldest
// day first. Days without events keep a zero count so chart axes stay stable.
func weekSeries(now time.Time, stamps []int64) []DayCount {
	start := weekStart(now)
	series := make([]DayCount, 7)
	index := map[string]int{}
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		series[i] = DayCount{Date: day}
		index[day] = i
	}
	for _, ts := range stamps {
		day := time.Unix(ts, 0).In(now.Location()).Format("2006-01-02")
		if i, ok := index[day]; ok {
			series[i].Count++
		}
	}
	return series
}
