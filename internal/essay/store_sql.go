package essay

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redalab/redalab-backend/internal/apperr"
	"github.com/redalab/redalab-backend/internal/db"
)

type SQLStore struct {
	q db.Querier
}

func NewSQLStore(sdb *sql.DB) *SQLStore { return &SQLStore{q: sdb} }

func (s *SQLStore) WithTx(q db.Querier) Store { return &SQLStore{q: q} }

func (s *SQLStore) Create(ctx context.Context, e Essay) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO essays (id,student_id,title,body,pdf_key,status,score_total,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,NULL,$7,$8)`,
		e.ID, e.StudentID, e.Title, e.Body, e.PDFKey, string(e.Status), e.CreatedAt.Unix(), e.UpdatedAt.Unix())
	return err
}

const essayCols = `id,student_id,title,body,pdf_key,status,score_total,created_at,updated_at`

func (s *SQLStore) Get(ctx context.Context, id string) (Essay, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+essayCols+` FROM essays WHERE id=$1`, id)
	e, err := scanEssay(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Essay{}, apperr.New(apperr.KindNotFound, "essay not found")
	}
	return e, err
}

func (s *SQLStore) ListByStudent(ctx context.Context, studentID string) ([]Essay, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+essayCols+` FROM essays WHERE student_id=$1 ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEssays(rows)
}

func (s *SQLStore) ListPending(ctx context.Context, limit, offset int) ([]Essay, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+essayCols+` FROM essays WHERE status=$1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`,
		string(StatusSubmitted), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEssays(rows)
}

func (s *SQLStore) SetArtifact(ctx context.Context, id, key string) error {
	_, err := s.q.ExecContext(ctx, `UPDATE essays SET pdf_key=$1 WHERE id=$2`, key, id)
	return err
}

func (s *SQLStore) MarkSubmitted(ctx context.Context, id string, at time.Time) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE essays SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`,
		string(StatusSubmitted), at.Unix(), id, string(StatusDraft))
	return err
}

func (s *SQLStore) MarkCorrected(ctx context.Context, id string, total int, at time.Time) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE essays SET status=$1, score_total=$2, updated_at=$3 WHERE id=$4`,
		string(StatusCorrected), total, at.Unix(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.New(apperr.KindNotFound, "essay not found")
	}
	return nil
}

func (s *SQLStore) InsertScore(ctx context.Context, cs CompetenceScore) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO competence_scores (essay_id,c1,c2,c3,c4,c5,graded_by,graded_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		cs.EssayID, cs.C1, cs.C2, cs.C3, cs.C4, cs.C5, cs.GradedBy, cs.GradedAt.Unix())
	return err
}

func (s *SQLStore) GetScore(ctx context.Context, essayID string) (CompetenceScore, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT essay_id,c1,c2,c3,c4,c5,graded_by,graded_at FROM competence_scores WHERE essay_id=$1`, essayID)
	var cs CompetenceScore
	var gradedAt int64
	err := row.Scan(&cs.EssayID, &cs.C1, &cs.C2, &cs.C3, &cs.C4, &cs.C5, &cs.GradedBy, &gradedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CompetenceScore{}, apperr.New(apperr.KindNotFound, "competence score not found")
	}
	if err != nil {
		return CompetenceScore{}, err
	}
	cs.GradedAt = time.Unix(gradedAt, 0)
	return cs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEssay(row rowScanner) (Essay, error) {
	var e Essay
	var status string
	var score sql.NullInt64
	var created, updated int64
	if err := row.Scan(&e.ID, &e.StudentID, &e.Title, &e.Body, &e.PDFKey, &status, &score, &created, &updated); err != nil {
		return Essay{}, err
	}
	e.Status = Status(status)
	if score.Valid {
		v := int(score.Int64)
		e.ScoreTotal = &v
	}
	e.CreatedAt = time.Unix(created, 0)
	e.UpdatedAt = time.Unix(updated, 0)
	return e, nil
}

func collectEssays(rows *sql.Rows) ([]Essay, error) {
	out := []Essay{}
	for rows.Next() {
		e, err := scanEssay(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
