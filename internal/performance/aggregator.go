package performance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/redalab/redalab-backend/internal/apperr"
	"github.com/redalab/redalab-backend/internal/db"
	"github.com/redalab/redalab-backend/internal/grading"
)

// Aggregator keeps the derived views consistent with the competence-score
// ledger. Apply is called by the correction flow with the transaction it runs
// in; the caller serializes invocations per student.
type Aggregator struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewAggregator(store Store, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{store: store, log: log, now: time.Now}
}

// SetNow overrides the clock. Tests use this to pin corrections to a month.
func (a *Aggregator) SetNow(now func() time.Time) { a.now = now }

// Apply runs the three aggregate updates for one correction event:
// append the history point, recompute the student aggregate from the full
// ledger, and refresh the current month's rollup.
func (a *Aggregator) Apply(ctx context.Context, q db.Querier, studentID, essayID string, sc grading.Scores) error {
	st := a.store
	if q != nil {
		st = st.WithTx(q)
	}
	at := a.now()

	if err := st.AppendHistory(ctx, HistoryEntry{
		StudentID: studentID,
		EssayID:   essayID,
		Scores:    sc,
		CreatedAt: at,
	}); err != nil {
		return err
	}

	if err := a.recomputePerformance(ctx, st, studentID, at); err != nil {
		return err
	}

	return a.refreshMonthly(ctx, st, studentID, sc, at)
}

func (a *Aggregator) recomputePerformance(ctx context.Context, st Store, studentID string, at time.Time) error {
	ledger, err := st.Ledger(ctx, studentID)
	if err != nil {
		return err
	}
	avg, byComp, ok := grading.Mean(ledger)
	if !ok {
		// A correction event with no ledger rows means something upstream
		// skipped the score insert. Tolerated as a logged no-op.
		a.log.Warn("aggregate recompute with empty ledger", zap.String("student_id", studentID))
		return nil
	}
	return st.UpsertPerformance(ctx, StudentPerformance{
		StudentID:      studentID,
		AverageScore:   avg,
		Averages:       byComp,
		TotalCorrected: len(ledger),
		UpdatedAt:      at,
	})
}

// refreshMonthly keys the rollup by the wall-clock month of the correction,
// not the essay's submission date. First event in a month seeds the average
// with that event's total; later events recompute the mean over the month's
// history window.
func (a *Aggregator) refreshMonthly(ctx context.Context, st Store, studentID string, sc grading.Scores, at time.Time) error {
	year, month := at.Year(), int(at.Month())
	total := sc.C1 + sc.C2 + sc.C3 + sc.C4 + sc.C5

	_, err := st.Monthly(ctx, studentID, year, month)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		return st.InsertMonthly(ctx, MonthlyEvolution{
			StudentID: studentID,
			Year:      year,
			Month:     month,
			AvgScore:  float64(total),
			CreatedAt: at,
		})
	case err != nil:
		return err
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, at.Location())
	to := from.AddDate(0, 1, 0)
	totals, err := st.MonthTotals(ctx, studentID, from, to)
	if err != nil {
		return err
	}
	avg := float64(total)
	if len(totals) > 0 {
		sum := 0
		for _, t := range totals {
			sum += t
		}
		avg = float64(sum) / float64(len(totals))
	}
	return st.UpdateMonthlyAvg(ctx, studentID, year, month, avg)
}

// PerformanceFor reads the materialized aggregate for a student.
func (a *Aggregator) PerformanceFor(ctx context.Context, studentID string) (StudentPerformance, error) {
	return a.store.Performance(ctx, studentID)
}

// HistoryFor reads the per-essay competence points for chart rendering.
func (a *Aggregator) HistoryFor(ctx context.Context, studentID string) ([]HistoryEntry, error) {
	return a.store.History(ctx, studentID)
}

// MonthlyFor reads the monthly evolution series.
func (a *Aggregator) MonthlyFor(ctx context.Context, studentID string) ([]MonthlyEvolution, error) {
	return a.store.MonthlySeries(ctx, studentID)
}
