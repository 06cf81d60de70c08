package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheGringo-ai/FixItFred/internal/domain"
	"github.com/TheGringo-ai/FixItFred/internal/repository"
)

// Keys within the registry_kv table. One row per snapshot, mirroring the
// two-key layout of the Redis store.
const (
	recordsKey = "projects"
	statsKey   = "stats"
)

// Store persists registry snapshots in a key-value table on PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ repository.RecordStore = (*Store)(nil)

// New constructs a Store on an existing pool.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

// LoadRecords fetches and decodes the collection snapshot.
func (s *Store) LoadRecords(ctx context.Context) ([]domain.DeploymentRecord, error) {
	const query = `SELECT value FROM registry_kv WHERE key = $1`
	var raw []byte
	if err := s.pool.QueryRow(ctx, query, recordsKey).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select %s: %w", recordsKey, err)
	}
	var records []domain.DeploymentRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		s.logger.Warn("stored collection is not valid JSON", "key", recordsKey, "error", err)
		return nil, repository.ErrCorrupt
	}
	return records, nil
}

// SaveRecords serializes and upserts the full collection.
func (s *Store) SaveRecords(ctx context.Context, records []domain.DeploymentRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return s.upsert(ctx, recordsKey, payload)
}

// SaveStats mirrors the latest aggregate stats.
func (s *Store) SaveStats(ctx context.Context, stats domain.AggregateStats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	return s.upsert(ctx, statsKey, payload)
}

func (s *Store) upsert(ctx context.Context, key string, payload []byte) error {
	const query = `INSERT INTO registry_kv (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := s.pool.Exec(ctx, query, key, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Ping checks the pool connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
