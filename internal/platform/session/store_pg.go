package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ---------------------------------------------------------------------------
// pgRow / pgConn abstractions (allow unit testing without a real DB)
// ---------------------------------------------------------------------------

// pgRow represents a single row returned by QueryRow.
type pgRow interface {
	Scan(dest ...any) error
}

// pgConn is the minimal database interface required by PGStore. Both
// *pgxpool.Pool (via a thin adapter) and test mocks implement it.
type pgConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgRow
	Exec(ctx context.Context, sql string, args ...any) error
}

// ---------------------------------------------------------------------------
// PGStore
// ---------------------------------------------------------------------------

// PGStore is a PostgreSQL-backed Store. Sessions are stored in the sessions
// table as JSONB with an explicit expires_at column that the database uses
// for filtering and cleanup.
type PGStore struct {
	db  pgConn
	ttl time.Duration
}

// NewPGStore creates a PG-backed store. The db parameter must satisfy the
// pgConn interface -- use NewPGStoreFromPool to wrap a *pgxpool.Pool, or pass
// a mock in tests.
func NewPGStore(db pgConn, ttl time.Duration) *PGStore {
	return &PGStore{db: db, ttl: ttl}
}

// Save inserts or replaces (upsert) the session. The row expiry is the
// session TTL from now, independent of the access token expiry inside the
// payload.
func (s *PGStore) Save(ctx context.Context, sid string, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	const query = `INSERT INTO sessions (sid, payload, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (sid) DO UPDATE SET payload    = EXCLUDED.payload,
                                expires_at = EXCLUDED.expires_at`

	if err := s.db.Exec(ctx, query, sid, data, time.Now().Add(s.ttl)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get selects the session only if the row has not expired.
func (s *PGStore) Get(ctx context.Context, sid string) (*Session, error) {
	const query = `SELECT payload FROM sessions
WHERE sid = $1 AND expires_at > now()`

	var data []byte
	if err := s.db.QueryRow(ctx, query, sid).Scan(&data); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Delete removes the session row.
func (s *PGStore) Delete(ctx context.Context, sid string) error {
	if err := s.db.Exec(ctx, `DELETE FROM sessions WHERE sid = $1`, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Cleanup deletes all expired rows from the table.
func (s *PGStore) Cleanup(ctx context.Context) error {
	if err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`); err != nil {
		return fmt.Errorf("cleanup sessions: %w", err)
	}
	return nil
}

// isNoRows returns true when the error represents a "no rows" condition.
// It works with both pgx (pgx.ErrNoRows) and the mock used in tests.
func isNoRows(err error) bool {
	if err == pgx.ErrNoRows {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "no rows")
}

// ---------------------------------------------------------------------------
// pgxPoolWrapper adapts *pgxpool.Pool to the pgConn interface
// ---------------------------------------------------------------------------

// pgxPoolWrapper wraps a *pgxpool.Pool so it satisfies the pgConn interface.
// The adapter is necessary because pgxpool.Pool.Exec returns
// (pgconn.CommandTag, error) whereas pgConn.Exec returns only error.
type pgxPoolWrapper struct {
	pool *pgxpool.Pool
}

func (w *pgxPoolWrapper) QueryRow(ctx context.Context, sql string, args ...any) pgRow {
	return w.pool.QueryRow(ctx, sql, args...)
}

func (w *pgxPoolWrapper) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := w.pool.Exec(ctx, sql, args...)
	return err
}

// NewPGStoreFromPool creates a PG-backed store directly from a *pgxpool.Pool.
// This is the recommended constructor for production use.
func NewPGStoreFromPool(pool *pgxpool.Pool, ttl time.Duration) *PGStore {
	return &PGStore{
		db:  &pgxPoolWrapper{pool: pool},
		ttl: ttl,
	}
}
