package memory

import (
	"context"
	"sync"

	"github.com/TheGringo-ai/FixItFred/internal/domain"
	"github.com/TheGringo-ai/FixItFred/internal/repository"
)

// Store keeps registry snapshots in process memory. It backs deployments
// that run without Redis or Postgres configured, and doubles as the test
// fixture for the registry service.
type Store struct {
	mu      sync.Mutex
	records []domain.DeploymentRecord
	stats   domain.AggregateStats
	seeded  bool
}

var _ repository.RecordStore = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{}
}

// LoadRecords returns the stored collection, or ErrNotFound before the first
// save.
func (s *Store) LoadRecords(ctx context.Context) ([]domain.DeploymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seeded {
		return nil, repository.ErrNotFound
	}
	out := make([]domain.DeploymentRecord, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Clone()
	}
	return out, nil
}

// SaveRecords replaces the stored collection.
func (s *Store) SaveRecords(ctx context.Context, records []domain.DeploymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]domain.DeploymentRecord, len(records))
	for i, rec := range records {
		copied[i] = rec.Clone()
	}
	s.records = copied
	s.seeded = true
	return nil
}

// SaveStats replaces the stats mirror.
func (s *Store) SaveStats(ctx context.Context, stats domain.AggregateStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	return nil
}

// Stats returns the last saved stats mirror.
func (s *Store) Stats() domain.AggregateStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}
