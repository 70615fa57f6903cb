package dedup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a durable Guard backed by a SQLite table. The claim is a
// single upsert so concurrent deliveries of the same event id race inside
// the database, not in Go.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

var _ Guard = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the dedup database at dbPath.
func NewSQLiteStore(dbPath string, ttl time.Duration) (*SQLiteStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS processed_events (
		event_id   TEXT PRIMARY KEY,
		expires_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}, nil
}

// Claim records eventID as processed. An existing unexpired row loses the
// race; an expired row is reclaimed.
func (s *SQLiteStore) Claim(ctx context.Context, eventID string) (bool, error) {
	now := s.now().Unix()
	expiresAt := s.now().Add(s.ttl).Unix()

	res, err := s.db.ExecContext(ctx, `INSERT INTO processed_events (event_id, expires_at) VALUES (?, ?)
		ON CONFLICT(event_id) DO UPDATE SET expires_at = excluded.expires_at
		WHERE processed_events.expires_at <= ?`,
		eventID, expiresAt, now)
	if err != nil {
		return false, fmt.Errorf("failed to claim event %s: %w", eventID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}

	// Hygiene only; the upsert above is what makes claims correct.
	s.purgeExpired(ctx, now)

	return affected > 0, nil
}

func (s *SQLiteStore) purgeExpired(ctx context.Context, now int64) {
	_, _ = s.db.ExecContext(ctx, `DELETE FROM processed_events WHERE expires_at <= ?`, now)
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
