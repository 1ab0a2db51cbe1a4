package performance_test

import (
	"context"
	"testing"
	"time"

	"github.com/redalab/redalab-backend/internal/apperr"
	"github.com/redalab/redalab-backend/internal/db"
	"github.com/redalab/redalab-backend/internal/grading"
	"github.com/redalab/redalab-backend/internal/performance"
)

/* ---------------- In-memory fake that satisfies performance.Store ---------------- */

type fakeStore struct {
	history []performance.HistoryEntry
	ledger  map[string][]grading.Scores // studentID -> corrections
	perf    map[string]performance.StudentPerformance
	monthly map[string]performance.MonthlyEvolution // student|year|month
	seq     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ledger:  map[string][]grading.Scores{},
		perf:    map[string]performance.StudentPerformance{},
		monthly: map[string]performance.MonthlyEvolution{},
	}
}

func mkey(studentID string, year, month int) string {
	return studentID + "|" + time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

func (s *fakeStore) WithTx(q db.Querier) performance.Store { return s }

func (s *fakeStore) AppendHistory(ctx context.Context, h performance.HistoryEntry) error {
	s.seq++
	h.ID = s.seq
	s.history = append(s.history, h)
	return nil
}

func (s *fakeStore) History(ctx context.Context, studentID string) ([]performance.HistoryEntry, error) {
	out := []performance.HistoryEntry{}
	for _, h := range s.history {
		if h.StudentID == studentID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *fakeStore) MonthTotals(ctx context.Context, studentID string, from, to time.Time) ([]int, error) {
	out := []int{}
	for _, h := range s.history {
		if h.StudentID == studentID && !h.CreatedAt.Before(from) && h.CreatedAt.Before(to) {
			out = append(out, h.Total())
		}
	}
	return out, nil
}

func (s *fakeStore) Ledger(ctx context.Context, studentID string) ([]grading.Scores, error) {
	return s.ledger[studentID], nil
}

func (s *fakeStore) UpsertPerformance(ctx context.Context, p performance.StudentPerformance) error {
	s.perf[p.StudentID] = p
	return nil
}

func (s *fakeStore) Performance(ctx context.Context, studentID string) (performance.StudentPerformance, error) {
	p, ok := s.perf[studentID]
	if !ok {
		return performance.StudentPerformance{}, apperr.New(apperr.KindNotFound, "no performance recorded")
	}
	return p, nil
}

func (s *fakeStore) Monthly(ctx context.Context, studentID string, year, month int) (performance.MonthlyEvolution, error) {
	m, ok := s.monthly[mkey(studentID, year, month)]
	if !ok {
		return performance.MonthlyEvolution{}, apperr.New(apperr.KindNotFound, "no monthly evolution recorded")
	}
	return m, nil
}

func (s *fakeStore) InsertMonthly(ctx context.Context, m performance.MonthlyEvolution) error {
	s.monthly[mkey(m.StudentID, m.Year, m.Month)] = m
	return nil
}

func (s *fakeStore) UpdateMonthlyAvg(ctx context.Context, studentID string, year, month int, avg float64) error {
	m := s.monthly[mkey(studentID, year, month)]
	m.AvgScore = avg
	s.monthly[mkey(studentID, year, month)] = m
	return nil
}

func (s *fakeStore) MonthlySeries(ctx context.Context, studentID string) ([]performance.MonthlyEvolution, error) {
	out := []performance.MonthlyEvolution{}
	for _, m := range s.monthly {
		if m.StudentID == studentID {
			out = append(out, m)
		}
	}
	return out, nil
}

/* ---------------- helpers ---------------- */

// correct simulates the correction flow's ordering: the score row lands in
// the ledger, then the aggregator runs.
func correct(t *testing.T, agg *performance.Aggregator, st *fakeStore, studentID, essayID string, sc grading.Scores) {
	t.Helper()
	st.ledger[studentID] = append(st.ledger[studentID], sc)
	if err := agg.Apply(context.Background(), nil, studentID, essayID, sc); err != nil {
		t.Fatalf("Apply: %v", err)
	}
}

func aggAt(store performance.Store, at time.Time) *performance.Aggregator {
	a := performance.NewAggregator(store, nil)
	a.SetNow(func() time.Time { return at })
	return a
}

/* ---------------- tests ---------------- */

func TestApplySingleCorrection(t *testing.T) {
	st := newFakeStore()
	now := time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC)
	agg := aggAt(st, now)

	correct(t, agg, st, "s1", "e1", grading.Scores{C1: 120, C2: 160, C3: 200, C4: 80, C5: 40})

	p, err := agg.PerformanceFor(context.Background(), "s1")
	if err != nil {
		t.Fatalf("PerformanceFor: %v", err)
	}
	if p.AverageScore != 600 {
		t.Errorf("average_score = %v, want 600", p.AverageScore)
	}
	if p.Averages.C1 != 120 || p.Averages.C2 != 160 || p.Averages.C3 != 200 || p.Averages.C4 != 80 || p.Averages.C5 != 40 {
		t.Errorf("per-competency averages wrong: %+v", p.Averages)
	}
	if p.TotalCorrected != 1 {
		t.Errorf("total_corrected = %d, want 1", p.TotalCorrected)
	}

	hist, _ := agg.HistoryFor(context.Background(), "s1")
	if len(hist) != 1 || hist[0].Total() != 600 {
		t.Fatalf("history = %+v, want one row with total 600", hist)
	}

	m, err := st.Monthly(context.Background(), "s1", 2025, 5)
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if m.AvgScore != 600 {
		t.Errorf("monthly avg = %v, want 600 (seeded from single total)", m.AvgScore)
	}
}

func TestApplyRecomputesFromFullLedger(t *testing.T) {
	st := newFakeStore()
	now := time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC)
	agg := aggAt(st, now)

	correct(t, agg, st, "s1", "e1", grading.Scores{C1: 120, C2: 160, C3: 200, C4: 80, C5: 40})  // 600
	correct(t, agg, st, "s1", "e2", grading.Scores{C1: 160, C2: 160, C3: 160, C4: 160, C5: 160}) // 800

	p, _ := agg.PerformanceFor(context.Background(), "s1")
	if p.AverageScore != 700 {
		t.Errorf("average_score = %v, want 700", p.AverageScore)
	}
	if p.TotalCorrected != 2 {
		t.Errorf("total_corrected = %d, want 2", p.TotalCorrected)
	}
	if p.Averages.C1 != 140 {
		t.Errorf("avg_c1 = %v, want 140", p.Averages.C1)
	}

	m, _ := st.Monthly(context.Background(), "s1", 2025, 5)
	if m.AvgScore != 700 {
		t.Errorf("monthly avg = %v, want 700 after second same-month correction", m.AvgScore)
	}
}

func TestApplyMonthlyIsolation(t *testing.T) {
	st := newFakeStore()
	may := time.Date(2025, time.May, 20, 9, 0, 0, 0, time.UTC)
	june := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

	correct(t, aggAt(st, may), st, "s1", "e1", grading.Scores{C1: 120, C2: 120, C3: 120, C4: 120, C5: 120}) // 600
	correct(t, aggAt(st, june), st, "s1", "e2", grading.Scores{C1: 160, C2: 160, C3: 160, C4: 160, C5: 160}) // 800

	mMay, err := st.Monthly(context.Background(), "s1", 2025, 5)
	if err != nil {
		t.Fatalf("May rollup: %v", err)
	}
	if mMay.AvgScore != 600 {
		t.Errorf("May avg = %v, want 600 (June correction must not alter it)", mMay.AvgScore)
	}
	mJune, err := st.Monthly(context.Background(), "s1", 2025, 6)
	if err != nil {
		t.Fatalf("June rollup: %v", err)
	}
	if mJune.AvgScore != 800 {
		t.Errorf("June avg = %v, want 800", mJune.AvgScore)
	}
}

func TestApplyEmptyLedgerIsNoOp(t *testing.T) {
	st := newFakeStore()
	agg := aggAt(st, time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC))

	// Ledger intentionally left empty: history is appended, performance skipped.
	if err := agg.Apply(context.Background(), nil, "s1", "e1", grading.Scores{C3: 200}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := agg.PerformanceFor(context.Background(), "s1"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected no performance row, got err=%v", err)
	}
	if len(st.history) != 1 {
		t.Fatalf("history rows = %d, want 1", len(st.history))
	}
}

func TestHistoryRowPerCorrection(t *testing.T) {
	st := newFakeStore()
	agg := aggAt(st, time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC))
	for i := 0; i < 5; i++ {
		correct(t, agg, st, "s1", "e"+string(rune('1'+i)), grading.Scores{C1: 100, C2: 100, C3: 100, C4: 100, C5: 100})
	}
	hist, _ := agg.HistoryFor(context.Background(), "s1")
	if len(hist) != 5 {
		t.Fatalf("history rows = %d, want 5", len(hist))
	}
}
