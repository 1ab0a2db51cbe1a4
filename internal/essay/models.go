package essay

import (
	"time"

	"github.com/redalab/redalab-backend/internal/grading"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusCorrected Status = "corrected"
)

// Essay is a student submission. ScoreTotal is nil until the essay is
// corrected; a corrected essay never moves back to draft or submitted.
type Essay struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	PDFKey     string    `json:"pdf_key,omitempty"`
	Status     Status    `json:"status"`
	ScoreTotal *int      `json:"score_total"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CompetenceScore records one grading action. At most one exists per essay.
type CompetenceScore struct {
	EssayID        string `json:"essay_id"`
	grading.Scores        // c1..c5
	GradedBy       string    `json:"graded_by"`
	GradedAt       time.Time `json:"graded_at"`
}
