package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/TheGringo-ai/FixItFred/internal/domain"
	"github.com/TheGringo-ai/FixItFred/internal/repository"
)

const connectTimeout = 2 * time.Second

// Store persists registry snapshots under two Redis keys.
type Store struct {
	client *redis.Client
	logger *slog.Logger

	recordsKey string
	statsKey   string
}

var _ repository.RecordStore = (*Store)(nil)

// New connects to Redis and verifies the connection before returning.
func New(addr, password string, db int, keyPrefix string, logger *slog.Logger) (*Store, error) {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{
		client:     client,
		logger:     logger,
		recordsKey: keyPrefix + "projects",
		statsKey:   keyPrefix + "stats",
	}, nil
}

// LoadRecords fetches and decodes the collection snapshot.
func (s *Store) LoadRecords(ctx context.Context) ([]domain.DeploymentRecord, error) {
	raw, err := s.client.Get(ctx, s.recordsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", s.recordsKey, err)
	}
	var records []domain.DeploymentRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		s.logger.Warn("stored collection is not valid JSON", "key", s.recordsKey, "error", err)
		return nil, repository.ErrCorrupt
	}
	return records, nil
}

// SaveRecords serializes and stores the full collection.
func (s *Store) SaveRecords(ctx context.Context, records []domain.DeploymentRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := s.client.Set(ctx, s.recordsKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.recordsKey, err)
	}
	return nil
}

// SaveStats mirrors the latest aggregate stats.
func (s *Store) SaveStats(ctx context.Context, stats domain.AggregateStats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := s.client.Set(ctx, s.statsKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.statsKey, err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *Store) Close() {
	if s.client != nil {
		_ = s.client.Close()
	}
}
