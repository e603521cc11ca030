package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"forumflow/internal/logger"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS analytics_snapshots (
	id          BIGSERIAL PRIMARY KEY,
	data        JSONB NOT NULL,
	captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// SnapshotStore periodically persists the dashboard rollup to Postgres
// so history survives restarts. It is write-only: the store never reads
// snapshots back, in-memory state stays authoritative.
type SnapshotStore struct {
	db       *sql.DB
	store    *Store
	interval time.Duration
	logger   logger.Logger
}

func NewSnapshotStore(dsn string, store *Store, interval time.Duration, log logger.Logger) (*SnapshotStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, snapshotSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure snapshot schema: %w", err)
	}

	return &SnapshotStore{
		db:       db,
		store:    store,
		interval: interval,
		logger:   log,
	}, nil
}

// Save writes one snapshot row. Failures are returned, not fatal; the
// caller decides whether a missed snapshot matters.
func (s *SnapshotStore) Save(ctx context.Context) error {
	data, err := json.Marshal(s.store.Dashboard())
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `INSERT INTO analytics_snapshots (data) VALUES ($1)`, data); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Run saves a snapshot every interval until ctx is cancelled, then
// takes a final snapshot so shutdown never loses the last window.
func (s *SnapshotStore) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.Save(final); err != nil {
				s.logger.Warnw("Final analytics snapshot failed", "error", err)
			}
			cancel()
			return
		case <-ticker.C:
			if err := s.Save(ctx); err != nil {
				s.logger.Warnw("Analytics snapshot failed", "error", err)
			}
		}
	}
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
