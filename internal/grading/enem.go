// Package grading implements ENEM-style essay scoring: five competency
// dimensions, each graded 0-200, summing to a 0-1000 total.
package grading

import "github.com/redalab/redalab-backend/internal/apperr"

const (
	// CompetencyMax is the highest score a single competency can receive.
	CompetencyMax = 200
	// TotalMax is the highest total an essay can receive (5 x 200).
	TotalMax = 1000
)

// Scores holds the five competency scores submitted by a grader.
type Scores struct {
	C1 int `json:"c1"`
	C2 int `json:"c2"`
	C3 int `json:"c3"`
	C4 int `json:"c4"`
	C5 int `json:"c5"`
}

// Validate checks every competency against the [0, CompetencyMax] bound.
// The official ENEM grid only awards multiples of 40; the bound here is
// deliberately the continuous range, matching how graders are onboarded today.
func (s Scores) Validate() error {
	for i, c := range s.values() {
		if c < 0 || c > CompetencyMax {
			return apperr.Newf(apperr.KindValidation, "c%d must be between 0 and %d, got %d", i+1, CompetencyMax, c)
		}
	}
	return nil
}

// Total returns the sum of the five competencies. It does not clamp: a caller
// that skipped Validate gets an error back, never a silently adjusted score.
func (s Scores) Total() (int, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	return s.C1 + s.C2 + s.C3 + s.C4 + s.C5, nil
}

func (s Scores) values() [5]int {
	return [5]int{s.C1, s.C2, s.C3, s.C4, s.C5}
}

// Averages is the per-competency mean over a set of corrections.
type Averages struct {
	C1 float64 `json:"avg_c1"`
	C2 float64 `json:"avg_c2"`
	C3 float64 `json:"avg_c3"`
	C4 float64 `json:"avg_c4"`
	C5 float64 `json:"avg_c5"`
}

// Mean computes the overall average total and the per-competency averages
// across the given corrections. ok is false when the set is empty.
func Mean(set []Scores) (avg float64, byComp Averages, ok bool) {
	if len(set) == 0 {
		return 0, Averages{}, false
	}
	var sum [5]int
	total := 0
	for _, s := range set {
		for i, c := range s.values() {
			sum[i] += c
			total += c
		}
	}
	n := float64(len(set))
	byComp = Averages{
		C1: float64(sum[0]) / n,
		C2: float64(sum[1]) / n,
		C3: float64(sum[2]) / n,
		C4: float64(sum[3]) / n,
		C5: float64(sum[4]) / n,
	}
	return float64(total) / n, byComp, true
}
