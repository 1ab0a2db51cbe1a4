package performance

import (
	"context"
	"time"

	"github.com/redalab/redalab-backend/internal/db"
	"github.com/redalab/redalab-backend/internal/grading"
)

type Store interface {
	// WithTx returns a store bound to the given transaction scope.
	WithTx(q db.Querier) Store

	AppendHistory(ctx context.Context, h HistoryEntry) error
	History(ctx context.Context, studentID string) ([]HistoryEntry, error)
	// MonthTotals returns the summed totals of history rows whose creation
	// time falls in [from, to).
	MonthTotals(ctx context.Context, studentID string, from, to time.Time) ([]int, error)

	// Ledger returns every competence-score row belonging to the student's
	// essays. This is the ground truth aggregates are recomputed from.
	Ledger(ctx context.Context, studentID string) ([]grading.Scores, error)

	UpsertPerformance(ctx context.Context, p StudentPerformance) error
	Performance(ctx context.Context, studentID string) (StudentPerformance, error)

	Monthly(ctx context.Context, studentID string, year, month int) (MonthlyEvolution, error)
	InsertMonthly(ctx context.Context, m MonthlyEvolution) error
	UpdateMonthlyAvg(ctx context.Context, studentID string, year, month int, avg float64) error
	MonthlySeries(ctx context.Context, studentID string) ([]MonthlyEvolution, error)
}
