package repository

import (
	"context"

	"github.com/TheGringo-ai/FixItFred/internal/domain"
)

// RecordStore persists the registry collection and its stats mirror as two
// JSON-serialized values under well-known keys. There is no schema
// versioning: a value that cannot be decoded is reported as ErrCorrupt and
// the caller reseeds.
type RecordStore interface {
	LoadRecords(ctx context.Context) ([]domain.DeploymentRecord, error)
	SaveRecords(ctx context.Context, records []domain.DeploymentRecord) error
	SaveStats(ctx context.Context, stats domain.AggregateStats) error
	Ping(ctx context.Context) error
	Close()
}
