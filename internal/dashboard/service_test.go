package dashboard_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/redalab/redalab-backend/internal/apperr"
	"github.com/redalab/redalab-backend/internal/dashboard"
)

type fakeStore struct {
	student dashboard.StudentMetrics
	teacher dashboard.TeacherMetrics
	admin   dashboard.AdminMetrics
}

func (s *fakeStore) StudentMetrics(ctx context.Context, studentID string) (dashboard.StudentMetrics, error) {
	return s.student, nil
}

func (s *fakeStore) TeacherMetrics(ctx context.Context, graderID string) (dashboard.TeacherMetrics, error) {
	return s.teacher, nil
}

func (s *fakeStore) AdminMetrics(ctx context.Context) (dashboard.AdminMetrics, error) {
	return s.admin, nil
}

func TestMetricsForDispatch(t *testing.T) {
	score := 600
	avg := 600.0
	st := &fakeStore{
		student: dashboard.StudentMetrics{EssaysTotal: 3, PendingCount: 1, LastScore: &score, AverageScore: &avg},
		teacher: dashboard.TeacherMetrics{CorrectionsDone: 12, PendingEssays: 4},
		admin:   dashboard.AdminMetrics{UsersTotal: 20, StudentsTotal: 15, TeachersTotal: 4, EssaysTotal: 40, PendingCount: 4},
	}
	svc := dashboard.NewService(st)

	got, err := svc.MetricsFor(context.Background(), "u1", "student")
	if err != nil {
		t.Fatalf("student: %v", err)
	}
	if !reflect.DeepEqual(got, st.student) {
		t.Errorf("student metrics = %+v", got)
	}

	got, err = svc.MetricsFor(context.Background(), "u2", "teacher")
	if err != nil {
		t.Fatalf("teacher: %v", err)
	}
	if !reflect.DeepEqual(got, st.teacher) {
		t.Errorf("teacher metrics = %+v", got)
	}

	got, err = svc.MetricsFor(context.Background(), "u3", "admin")
	if err != nil {
		t.Fatalf("admin: %v", err)
	}
	if !reflect.DeepEqual(got, st.admin) {
		t.Errorf("admin metrics = %+v", got)
	}
}

func TestMetricsForUnknownRole(t *testing.T) {
	svc := dashboard.NewService(&fakeStore{})
	_, err := svc.MetricsFor(context.Background(), "u1", "guest")
	if !apperr.Is(err, apperr.KindUnknownRole) {
		t.Fatalf("err = %v, want unknown_role", err)
	}
}

func TestMetricsForIsIdempotent(t *testing.T) {
	svc := dashboard.NewService(&fakeStore{teacher: dashboard.TeacherMetrics{CorrectionsDone: 7}})
	a, _ := svc.MetricsFor(context.Background(), "u2", "teacher")
	b, _ := svc.MetricsFor(context.Background(), "u2", "teacher")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("repeated reads differ: %+v vs %+v", a, b)
	}
}
