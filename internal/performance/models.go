// Package performance maintains the derived per-student views: the running
// performance aggregate, the append-only competence history and the monthly
// evolution rollup. All three are recomputed from the competence-score ledger
// on every correction, never incrementally merged, so a persisted aggregate
// always equals the ledger it was computed from.
package performance

import (
	"time"

	"github.com/redalab/redalab-backend/internal/grading"
)

// StudentPerformance is the materialized per-student aggregate, overwritten
// on every correction.
type StudentPerformance struct {
	StudentID        string  `json:"student_id"`
	AverageScore     float64 `json:"average_score"`
	grading.Averages         // avg_c1..avg_c5
	TotalCorrected   int       `json:"total_essays_corrected"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HistoryEntry is one immutable point in the student's evolution: the five
// competency scores of a single corrected essay.
type HistoryEntry struct {
	ID             int64  `json:"id"`
	StudentID      string `json:"student_id"`
	EssayID        string `json:"essay_id"`
	grading.Scores        // c1..c5
	CreatedAt      time.Time `json:"created_at"`
}

// Total is the summed score of the entry's five competencies.
func (h HistoryEntry) Total() int {
	return h.C1 + h.C2 + h.C3 + h.C4 + h.C5
}

// MonthlyEvolution is the per-calendar-month average total, unique per
// (student, year, month).
type MonthlyEvolution struct {
	StudentID string    `json:"student_id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	AvgScore  float64   `json:"avg_score_month"`
	CreatedAt time.Time `json:"created_at"`
}
