// Package statsstore backs GET /api/stats's platform counters. When
// DATABASE_URL is configured it persists counters in Postgres via sqlx/pq,
// the way the rest of this lineage's optional persistence layer connects;
// otherwise it falls back to in-process atomic counters so the route still
// answers without a database. This is operational telemetry, not market
// data, so it sits outside the core's Non-goals on persisting market data.
package statsstore

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Store reports and increments the platform's block/transaction counters.
type Store struct {
	db  *sqlx.DB
	log zerolog.Logger

	blocks       atomic.Int64
	transactions atomic.Int64
}

const schema = `
CREATE TABLE IF NOT EXISTS platform_counters (
	name  TEXT PRIMARY KEY,
	value BIGINT NOT NULL DEFAULT 0
);
INSERT INTO platform_counters (name, value) VALUES ('total_blocks', 0), ('total_transactions', 0)
	ON CONFLICT (name) DO NOTHING;
`

// Open connects to databaseURL if non-empty, provisioning the counters
// table; an empty URL yields a Store that only tracks in-process counters.
func Open(databaseURL string, log zerolog.Logger) (*Store, error) {
	s := &Store{log: log}
	if databaseURL == "" {
		return s, nil
	}

	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Warn().Err(err).Msg("statsstore: database unreachable, falling back to in-process counters")
		return s, nil
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, err
	}

	s.db = db
	return s, nil
}

func (s *Store) IsPersistent() bool { return s.db != nil }

func (s *Store) IncrBlocks(n int64) {
	if s.db == nil {
		s.blocks.Add(n)
		return
	}
	if _, err := s.db.Exec(`UPDATE platform_counters SET value = value + $1 WHERE name = 'total_blocks'`, n); err != nil {
		s.log.Warn().Err(err).Msg("statsstore: failed to persist block count")
	}
}

func (s *Store) IncrTransactions(n int64) {
	if s.db == nil {
		s.transactions.Add(n)
		return
	}
	if _, err := s.db.Exec(`UPDATE platform_counters SET value = value + $1 WHERE name = 'total_transactions'`, n); err != nil {
		s.log.Warn().Err(err).Msg("statsstore: failed to persist transaction count")
	}
}

func (s *Store) TotalBlocks(ctx context.Context) int64 {
	if s.db == nil {
		return s.blocks.Load()
	}
	var v int64
	if err := s.db.GetContext(ctx, &v, `SELECT value FROM platform_counters WHERE name = 'total_blocks'`); err != nil {
		return s.blocks.Load()
	}
	return v
}

func (s *Store) TotalTransactions(ctx context.Context) int64 {
	if s.db == nil {
		return s.transactions.Load()
	}
	var v int64
	if err := s.db.GetContext(ctx, &v, `SELECT value FROM platform_counters WHERE name = 'total_transactions'`); err != nil {
		return s.transactions.Load()
	}
	return v
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
