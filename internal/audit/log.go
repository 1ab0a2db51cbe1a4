// Package audit records the write events of the grading flow into an
// append-only log, keyed by actor and subject.
package audit

import (
	"context"
	"time"

	"github.com/redalab/redalab-backend/internal/db"
)

type Event struct {
	ID        int64  `json:"id"`
	Actor     string `json:"actor"`   // user id performing the action
	Action    string `json:"action"`  // e.g. "essay.submitted", "essay.corrected"
	Subject   string `json:"subject"` // essay id
	CreatedAt int64  `json:"created_at"`
}

const (
	ActionEssayCreated   = "essay.created"
	ActionEssaySubmitted = "essay.submitted"
	ActionEssayCorrected = "essay.corrected"
)

// Log appends events through whatever Querier the caller is in: the base DB
// for standalone writes, or the open transaction during a correction.
type Log struct{ q db.Querier }

func NewLog(q db.Querier) *Log { return &Log{q: q} }

func (l *Log) Record(ctx context.Context, q db.Querier, actor, action, subject string) error {
	if q == nil {
		q = l.q
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO audit_log (actor, action, subject, created_at) VALUES ($1,$2,$3,$4)`,
		actor, action, subject, time.Now().Unix())
	return err
}

// Recent returns the newest events for a subject, most recent first.
func (l *Log) Recent(ctx context.Context, subject string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.q.QueryContext(ctx,
		`SELECT id, actor, action, subject, created_at FROM audit_log
		 WHERE subject=$1 ORDER BY id DESC LIMIT $2`, subject, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Subject, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
