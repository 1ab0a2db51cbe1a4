package performance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redalab/redalab-backend/internal/apperr"
	"github.com/redalab/redalab-backend/internal/db"
	"github.com/redalab/redalab-backend/internal/grading"
)

type SQLStore struct {
	q db.Querier
}

func NewSQLStore(sdb *sql.DB) *SQLStore { return &SQLStore{q: sdb} }

func (s *SQLStore) WithTx(q db.Querier) Store { return &SQLStore{q: q} }

func (s *SQLStore) AppendHistory(ctx context.Context, h HistoryEntry) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO competence_history (student_id,essay_id,c1,c2,c3,c4,c5,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		h.StudentID, h.EssayID, h.C1, h.C2, h.C3, h.C4, h.C5, h.CreatedAt.Unix())
	return err
}

func (s *SQLStore) History(ctx context.Context, studentID string) ([]HistoryEntry, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id,student_id,essay_id,c1,c2,c3,c4,c5,created_at
		 FROM competence_history WHERE student_id=$1 ORDER BY created_at ASC, id ASC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []HistoryEntry{}
	for rows.Next() {
		var h HistoryEntry
		var created int64
		if err := rows.Scan(&h.ID, &h.StudentID, &h.EssayID, &h.C1, &h.C2, &h.C3, &h.C4, &h.C5, &created); err != nil {
			return nil, err
		}
		h.CreatedAt = time.Unix(created, 0)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLStore) MonthTotals(ctx context.Context, studentID string, from, to time.Time) ([]int, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT c1+c2+c3+c4+c5 FROM competence_history
		 WHERE student_id=$1 AND created_at >= $2 AND created_at < $3`,
		studentID, from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []int{}
	for rows.Next() {
		var t int
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) Ledger(ctx context.Context, studentID string) ([]grading.Scores, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT cs.c1,cs.c2,cs.c3,cs.c4,cs.c5
		 FROM competence_scores cs
		 JOIN essays e ON e.id = cs.essay_id
		 WHERE e.student_id=$1`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []grading.Scores{}
	for rows.Next() {
		var sc grading.Scores
		if err := rows.Scan(&sc.C1, &sc.C2, &sc.C3, &sc.C4, &sc.C5); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertPerformance(ctx context.Context, p StudentPerformance) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO student_performance
		   (student_id,average_score,avg_c1,avg_c2,avg_c3,avg_c4,avg_c5,total_corrected,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (student_id) DO UPDATE SET
		   average_score=EXCLUDED.average_score,
		   avg_c1=EXCLUDED.avg_c1, avg_c2=EXCLUDED.avg_c2, avg_c3=EXCLUDED.avg_c3,
		   avg_c4=EXCLUDED.avg_c4, avg_c5=EXCLUDED.avg_c5,
		   total_corrected=EXCLUDED.total_corrected,
		   updated_at=EXCLUDED.updated_at`,
		p.StudentID, p.AverageScore, p.Averages.C1, p.Averages.C2, p.Averages.C3,
		p.Averages.C4, p.Averages.C5, p.TotalCorrected, p.UpdatedAt.Unix())
	return err
}

func (s *SQLStore) Performance(ctx context.Context, studentID string) (StudentPerformance, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT student_id,average_score,avg_c1,avg_c2,avg_c3,avg_c4,avg_c5,total_corrected,updated_at
		 FROM student_performance WHERE student_id=$1`, studentID)
	var p StudentPerformance
	var updated int64
	err := row.Scan(&p.StudentID, &p.AverageScore, &p.Averages.C1, &p.Averages.C2,
		&p.Averages.C3, &p.Averages.C4, &p.Averages.C5, &p.TotalCorrected, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return StudentPerformance{}, apperr.New(apperr.KindNotFound, "no performance recorded")
	}
	if err != nil {
		return StudentPerformance{}, err
	}
	p.UpdatedAt = time.Unix(updated, 0)
	return p, nil
}

func (s *SQLStore) Monthly(ctx context.Context, studentID string, year, month int) (MonthlyEvolution, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT student_id,year,month,avg_score,created_at
		 FROM monthly_evolution WHERE student_id=$1 AND year=$2 AND month=$3`,
		studentID, year, month)
	var m MonthlyEvolution
	var created int64
	err := row.Scan(&m.StudentID, &m.Year, &m.Month, &m.AvgScore, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return MonthlyEvolution{}, apperr.New(apperr.KindNotFound, "no monthly evolution recorded")
	}
	if err != nil {
		return MonthlyEvolution{}, err
	}
	m.CreatedAt = time.Unix(created, 0)
	return m, nil
}

func (s *SQLStore) InsertMonthly(ctx context.Context, m MonthlyEvolution) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO monthly_evolution (student_id,year,month,avg_score,created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		m.StudentID, m.Year, m.Month, m.AvgScore, m.CreatedAt.Unix())
	return err
}

func (s *SQLStore) UpdateMonthlyAvg(ctx context.Context, studentID string, year, month int, avg float64) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE monthly_evolution SET avg_score=$1 WHERE student_id=$2 AND year=$3 AND month=$4`,
		avg, studentID, year, month)
	return err
}

func (s *SQLStore) MonthlySeries(ctx context.Context, studentID string) ([]MonthlyEvolution, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT student_id,year,month,avg_score,created_at
		 FROM monthly_evolution WHERE student_id=$1 ORDER BY year ASC, month ASC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MonthlyEvolution{}
	for rows.Next() {
		var m MonthlyEvolution
		var created int64
		if err := rows.Scan(&m.StudentID, &m.Year, &m.Month, &m.AvgScore, &created); err != nil {
			return nil, err
		}
		m.CreatedAt = time.Unix(created, 0)
		out = append(out, m)
	}
	return out, rows.Err()
}
