package essay

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/redalab/redalab-backend/internal/apperr"
	"github.com/redalab/redalab-backend/internal/audit"
	"github.com/redalab/redalab-backend/internal/db"
	"github.com/redalab/redalab-backend/internal/grading"
)

// Aggregator recomputes the derived per-student views after a correction.
// It runs inside the correction transaction via q.
type Aggregator interface {
	Apply(ctx context.Context, q db.Querier, studentID, essayID string, sc grading.Scores) error
}

// Artifacts renders and stores the PDF artifact for an essay, returning the
// blob key.
type Artifacts interface {
	EssayPDF(ctx context.Context, e Essay) (string, error)
}

// Auditor appends a write-event record. Inside the correction flow it is
// handed the open transaction; elsewhere q is nil and the auditor uses its
// own connection.
type Auditor interface {
	Record(ctx context.Context, q db.Querier, actor, action, subject string) error
}

type Service struct {
	essays    Store
	agg       Aggregator
	runTx     db.TxRunner
	artifacts Artifacts // optional
	audit     Auditor   // optional
	log       *zap.Logger
	locks     *studentLocks
	now       func() time.Time
}

func NewService(runTx db.TxRunner, essays Store, agg Aggregator, artifacts Artifacts, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		essays:    essays,
		agg:       agg,
		runTx:     runTx,
		artifacts: artifacts,
		log:       log,
		locks:     newStudentLocks(),
		now:       time.Now,
	}
}

// SetAudit attaches the audit trail. Failed audit writes outside a
// transaction are logged, never surfaced; inside the correction transaction
// they abort the correction.
func (s *Service) SetAudit(a Auditor) { s.audit = a }

func (s *Service) auditOutsideTx(ctx context.Context, actor, action, subject string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, nil, actor, action, subject); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

// Create registers a new essay for studentID. submit=false leaves it as a
// draft the student can still send later. Artifact rendering is best-effort:
// a failed render is logged and the essay stays without a PDF, as in the
// upload-optional flow.
func (s *Service) Create(ctx context.Context, studentID, title, body string, submit bool) (Essay, error) {
	if strings.TrimSpace(title) == "" {
		return Essay{}, apperr.New(apperr.KindValidation, "title is required")
	}
	if strings.TrimSpace(body) == "" {
		return Essay{}, apperr.New(apperr.KindValidation, "text is required")
	}
	status := StatusDraft
	if submit {
		status = StatusSubmitted
	}
	now := s.now()
	e := Essay{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Title:     title,
		Body:      body,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.essays.Create(ctx, e); err != nil {
		return Essay{}, err
	}
	if s.artifacts != nil {
		key, err := s.artifacts.EssayPDF(ctx, e)
		if err != nil {
			s.log.Warn("essay pdf render failed", zap.String("essay_id", e.ID), zap.Error(err))
		} else if err := s.essays.SetArtifact(ctx, e.ID, key); err != nil {
			s.log.Warn("essay pdf attach failed", zap.String("essay_id", e.ID), zap.Error(err))
		} else {
			e.PDFKey = key
		}
	}
	s.auditOutsideTx(ctx, studentID, audit.ActionEssayCreated, e.ID)
	return e, nil
}

// Submit moves a draft to submitted. Corrected essays never regress.
func (s *Service) Submit(ctx context.Context, essayID, studentID string) (Essay, error) {
	e, err := s.essays.Get(ctx, essayID)
	if err != nil {
		return Essay{}, err
	}
	if e.StudentID != studentID {
		return Essay{}, apperr.New(apperr.KindForbidden, "not your essay")
	}
	switch e.Status {
	case StatusSubmitted:
		return e, nil
	case StatusCorrected:
		return Essay{}, apperr.New(apperr.KindConflict, "essay already corrected")
	}
	if err := s.essays.MarkSubmitted(ctx, essayID, s.now()); err != nil {
		return Essay{}, err
	}
	s.auditOutsideTx(ctx, studentID, audit.ActionEssaySubmitted, essayID)
	return s.essays.Get(ctx, essayID)
}

func (s *Service) Get(ctx context.Context, id string) (Essay, error) {
	return s.essays.Get(ctx, id)
}

// Score returns the recorded correction for an essay, not_found until the
// essay is corrected.
func (s *Service) Score(ctx context.Context, essayID string) (CompetenceScore, error) {
	return s.essays.GetScore(ctx, essayID)
}

func (s *Service) ListByStudent(ctx context.Context, studentID string) ([]Essay, error) {
	return s.essays.ListByStudent(ctx, studentID)
}

func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]Essay, error) {
	return s.essays.ListPending(ctx, limit, offset)
}

// SubmitCorrection records the grader's competency scores for an essay:
// derives the total, marks the essay corrected, inserts the score row and
// runs the aggregate recomputation — all in one transaction, serialized per
// student. A second correction for the same essay is rejected.
func (s *Service) SubmitCorrection(ctx context.Context, essayID, graderID string, sc grading.Scores) (CompetenceScore, error) {
	total, err := sc.Total()
	if err != nil {
		return CompetenceScore{}, err
	}

	e, err := s.essays.Get(ctx, essayID)
	if err != nil {
		return CompetenceScore{}, err
	}

	unlock := s.locks.Lock(e.StudentID)
	defer unlock()

	cs := CompetenceScore{
		EssayID:  essayID,
		Scores:   sc,
		GradedBy: graderID,
		GradedAt: s.now(),
	}
	err = s.runTx(ctx, func(q db.Querier) error {
		es := s.essays.WithTx(q)
		cur, err := es.Get(ctx, essayID)
		if err != nil {
			return err
		}
		if cur.Status == StatusCorrected {
			return apperr.New(apperr.KindConflict, "essay already corrected")
		}
		if err := es.MarkCorrected(ctx, essayID, total, cs.GradedAt); err != nil {
			return err
		}
		if err := es.InsertScore(ctx, cs); err != nil {
			return err
		}
		if err := s.agg.Apply(ctx, q, cur.StudentID, essayID, sc); err != nil {
			return err
		}
		if s.audit != nil {
			return s.audit.Record(ctx, q, graderID, audit.ActionEssayCorrected, essayID)
		}
		return nil
	})
	if err != nil {
		return CompetenceScore{}, err
	}

	s.log.Info("essay corrected",
		zap.String("essay_id", essayID),
		zap.String("graded_by", graderID),
		zap.Int("total", total))
	return cs, nil
}
