package grading_test

import (
	"testing"

	"github.com/redalab/redalab-backend/internal/apperr"
	"github.com/redalab/redalab-backend/internal/grading"
)

func TestTotalSumsCompetencies(t *testing.T) {
	s := grading.Scores{C1: 120, C2: 160, C3: 200, C4: 80, C5: 40}
	got, err := s.Total()
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if got != 600 {
		t.Fatalf("total = %d, want 600", got)
	}
}

func TestTotalBounds(t *testing.T) {
	cases := []struct {
		name  string
		s     grading.Scores
		want  int
		valid bool
	}{
		{"all zero", grading.Scores{}, 0, true},
		{"all max", grading.Scores{C1: 200, C2: 200, C3: 200, C4: 200, C5: 200}, 1000, true},
		{"boundary 200 valid", grading.Scores{C3: 200}, 200, true},
		{"201 rejected", grading.Scores{C3: 201}, 0, false},
		{"negative rejected", grading.Scores{C5: -1}, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.s.Total()
			if tc.valid {
				if err != nil {
					t.Fatalf("Total: %v", err)
				}
				if got != tc.want {
					t.Fatalf("total = %d, want %d", got, tc.want)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected validation error, got total %d", got)
			}
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("kind = %s, want validation", apperr.KindOf(err))
			}
		})
	}
}

func TestMean(t *testing.T) {
	set := []grading.Scores{
		{C1: 120, C2: 160, C3: 200, C4: 80, C5: 40},  // 600
		{C1: 160, C2: 160, C3: 160, C4: 160, C5: 160}, // 800
	}
	avg, byComp, ok := grading.Mean(set)
	if !ok {
		t.Fatal("Mean reported empty set")
	}
	if avg != 700 {
		t.Fatalf("avg = %v, want 700", avg)
	}
	if byComp.C1 != 140 || byComp.C4 != 120 || byComp.C5 != 100 {
		t.Fatalf("per-competency averages wrong: %+v", byComp)
	}
}

func TestMeanEmpty(t *testing.T) {
	if _, _, ok := grading.Mean(nil); ok {
		t.Fatal("Mean on empty set must report ok=false")
	}
}
