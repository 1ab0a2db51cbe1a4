package dashboard_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/redalab/redalab-backend/internal/dashboard"
	"github.com/redalab/redalab-backend/internal/db"
)

func openDashboardDB(t *testing.T) *sql.DB {
	t.Helper()
	sdb, err := db.Open(context.Background(), db.DriverSQLite,
		"file:"+filepath.Join(t.TempDir(), "redalab_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sdb.Close() })
	return sdb
}

func insertUser(t *testing.T, sdb *sql.DB, role string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := sdb.ExecContext(context.Background(),
		`INSERT INTO users (id,username,password_hash,role,created_at) VALUES ($1,$2,$3,$4,$5)`,
		id, id[:8], "x", role, time.Now().Unix())
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func insertEssay(t *testing.T, sdb *sql.DB, studentID, status string, created, updated time.Time) string {
	t.Helper()
	id := uuid.NewString()
	_, err := sdb.ExecContext(context.Background(),
		`INSERT INTO essays (id,student_id,title,body,pdf_key,status,score_total,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,'',$5,NULL,$6,$7)`,
		id, studentID, "tema", "texto", status, created.Unix(), updated.Unix())
	if err != nil {
		t.Fatalf("insert essay: %v", err)
	}
	return id
}

func TestTeacherMetricsWeeklyCorrected(t *testing.T) {
	sdb := openDashboardDB(t)
	studentID := insertUser(t, sdb, "student")
	teacherID := insertUser(t, sdb, "teacher")

	now := time.Date(2025, time.May, 10, 15, 0, 0, 0, time.UTC)
	// Two corrections today, one three days ago, one outside the window.
	insertEssay(t, sdb, studentID, "corrected", now.AddDate(0, 0, -9), now)
	insertEssay(t, sdb, studentID, "corrected", now.AddDate(0, 0, -9), now.Add(-time.Hour))
	insertEssay(t, sdb, studentID, "corrected", now.AddDate(0, 0, -9), now.AddDate(0, 0, -3))
	insertEssay(t, sdb, studentID, "corrected", now.AddDate(0, 0, -9), now.AddDate(0, 0, -8))
	insertEssay(t, sdb, studentID, "submitted", now, now)

	store := dashboard.NewSQLStore(sdb)
	store.SetNow(func() time.Time { return now })

	m, err := store.TeacherMetrics(context.Background(), teacherID)
	if err != nil {
		t.Fatalf("teacher metrics: %v", err)
	}
	if m.PendingEssays != 1 {
		t.Errorf("pending = %d, want 1", m.PendingEssays)
	}
	if len(m.WeeklyCorrected) != 7 {
		t.Fatalf("weekly series length = %d, want 7", len(m.WeeklyCorrected))
	}
	if first := m.WeeklyCorrected[0]; first.Date != "2025-05-04" || first.Count != 0 {
		t.Errorf("oldest day = %+v, want 2025-05-04 with 0", first)
	}
	if d := m.WeeklyCorrected[3]; d.Date != "2025-05-07" || d.Count != 1 {
		t.Errorf("day -3 = %+v, want 2025-05-07 with 1", d)
	}
	if last := m.WeeklyCorrected[6]; last.Date != "2025-05-10" || last.Count != 2 {
		t.Errorf("today = %+v, want 2025-05-10 with 2", last)
	}
}

func TestAdminMetricsWeeklyCreatedAndRecent(t *testing.T) {
	sdb := openDashboardDB(t)
	studentID := insertUser(t, sdb, "student")
	insertUser(t, sdb, "teacher")

	now := time.Date(2025, time.May, 10, 15, 0, 0, 0, time.UTC)
	insertEssay(t, sdb, studentID, "submitted", now.AddDate(0, 0, -1), now.AddDate(0, 0, -1))
	newest := insertEssay(t, sdb, studentID, "draft", now, now)
	insertEssay(t, sdb, studentID, "corrected", now.AddDate(0, 0, -10), now.AddDate(0, 0, -10))

	store := dashboard.NewSQLStore(sdb)
	store.SetNow(func() time.Time { return now })

	m, err := store.AdminMetrics(context.Background())
	if err != nil {
		t.Fatalf("admin metrics: %v", err)
	}
	if m.EssaysTotal != 3 || m.StudentsTotal != 1 || m.TeachersTotal != 1 {
		t.Errorf("totals = %+v", m)
	}
	if len(m.WeeklyCreated) != 7 {
		t.Fatalf("weekly series length = %d, want 7", len(m.WeeklyCreated))
	}
	if d := m.WeeklyCreated[5]; d.Count != 1 {
		t.Errorf("yesterday = %+v, want count 1", d)
	}
	if d := m.WeeklyCreated[6]; d.Count != 1 {
		t.Errorf("today = %+v, want count 1", d)
	}
	if len(m.RecentEssays) != 3 || m.RecentEssays[0].ID != newest {
		t.Fatalf("recent essays = %+v, want newest first", m.RecentEssays)
	}
}
