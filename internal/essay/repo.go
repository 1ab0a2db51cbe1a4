package essay

import (
	"context"
	"time"

	"github.com/redalab/redalab-backend/internal/db"
)

type Store interface {
	// WithTx returns a store bound to the given transaction scope.
	WithTx(q db.Querier) Store

	Create(ctx context.Context, e Essay) error
	Get(ctx context.Context, id string) (Essay, error)
	ListByStudent(ctx context.Context, studentID string) ([]Essay, error)
	ListPending(ctx context.Context, limit, offset int) ([]Essay, error)
	SetArtifact(ctx context.Context, id, key string) error
	MarkSubmitted(ctx context.Context, id string, at time.Time) error

	MarkCorrected(ctx context.Context, id string, total int, at time.Time) error
	InsertScore(ctx context.Context, cs CompetenceScore) error
	GetScore(ctx context.Context, essayID string) (CompetenceScore, error)
}
