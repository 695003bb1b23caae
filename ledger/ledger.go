// Package ledger records the outcome of draft and send operations under a
// caller supplied idempotency key.
//
// A replayed key with the same operation and payload returns the stored
// result instead of repeating the side effect. Reusing a key for a different
// payload is rejected with ErrConflict.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrConflict reports an idempotency key reused with a different operation or
// payload.
var ErrConflict = errors.New("ledger: idempotency key already used with a different payload")

// ErrInFlight reports an idempotency key reserved by an operation that has not
// finished yet.
var ErrInFlight = errors.New("ledger: idempotency key is in flight")

const (
	statusPending = "pending"
	statusDone    = "done"
)

const schema = `CREATE TABLE IF NOT EXISTS idempotency (
	key          TEXT PRIMARY KEY,
	operation    TEXT NOT NULL,
	payload_hash TEXT NOT NULL,
	result       BLOB NOT NULL,
	status       TEXT NOT NULL DEFAULT 'done',
	created_at   INTEGER NOT NULL
)`

const entryColumns = `key, operation, payload_hash, result, status, created_at`

// Entry is one recorded operation.
type Entry struct {
	Key         string
	Operation   string
	PayloadHash string
	Result      []byte
	Pending     bool
	CreatedAt   time.Time
}

// Ledger is an idempotency store backed by a SQLite database file.
//
// A Ledger is safe for concurrent use.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("ledger: database path is required")
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_busy_timeout=5000", strings.ReplaceAll(path, " ", "%20"))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: opening sqlite database failed: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: connecting to sqlite database failed: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: creating schema failed: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Lookup returns the result stored under key.
//
// found is false when key has never been stored. A key stored for another
// operation or payload yields ErrConflict; a key reserved but not yet stored
// yields ErrInFlight.
func (l *Ledger) Lookup(ctx context.Context, key, operation string, payload []byte) (result []byte, found bool, err error) {
	entry, found, err := l.get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}
	if entry.Operation != operation || entry.PayloadHash != HashPayload(payload) {
		return nil, false, fmt.Errorf("%w: key %q was recorded for %s", ErrConflict, key, entry.Operation)
	}
	if entry.Pending {
		return nil, false, fmt.Errorf("%w: key %q", ErrInFlight, key)
	}
	return entry.Result, true, nil
}

// Reserve claims key for operation before it runs.
//
// When the claim succeeds, found is false and the caller must either Store the
// result or Release the key. When key already holds a result for the same
// operation and payload, that result is returned with found set. A key
// claimed by an unfinished call yields ErrInFlight.
func (l *Ledger) Reserve(ctx context.Context, key, operation string, payload []byte) (result []byte, found bool, err error) {
	if strings.TrimSpace(key) == "" {
		return nil, false, errors.New("ledger: idempotency key is required")
	}

	res, err := l.db.ExecContext(ctx,
		`INSERT INTO idempotency (key, operation, payload_hash, result, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO NOTHING`,
		key, operation, HashPayload(payload), []byte{}, statusPending, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("ledger: reserving key %q failed: %w", key, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("ledger: reserving key %q failed: %w", key, err)
	}
	if inserted > 0 {
		return nil, false, nil
	}
	return l.Lookup(ctx, key, operation, payload)
}

// Release drops an unfinished reservation of key so it can be claimed again.
// Stored results are never released.
func (l *Ledger) Release(ctx context.Context, key string) error {
	if _, err := l.db.ExecContext(ctx,
		`DELETE FROM idempotency WHERE key = ? AND status = ?`, key, statusPending); err != nil {
		return fmt.Errorf("ledger: releasing key %q failed: %w", key, err)
	}
	return nil
}

// Store records result under key.
//
// Store completes a reservation made with Reserve, or records key directly.
// Storing the same operation and payload twice keeps the first result. A key
// already recorded for another operation or payload yields ErrConflict.
func (l *Ledger) Store(ctx context.Context, key, operation string, payload, result []byte) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("ledger: idempotency key is required")
	}
	if result == nil {
		result = []byte{}
	}

	res, err := l.db.ExecContext(ctx,
		`INSERT INTO idempotency (key, operation, payload_hash, result, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET result = excluded.result, status = excluded.status
		 WHERE idempotency.status = ?
		   AND idempotency.operation = excluded.operation
		   AND idempotency.payload_hash = excluded.payload_hash`,
		key, operation, HashPayload(payload), result, statusDone, time.Now().UTC().UnixMilli(), statusPending,
	)
	if err != nil {
		return fmt.Errorf("ledger: storing key %q failed: %w", key, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ledger: storing key %q failed: %w", key, err)
	}
	if inserted > 0 {
		return nil
	}

	_, _, err = l.Lookup(ctx, key, operation, payload)
	return err
}

// Entries lists every recorded operation, oldest first.
func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM idempotency ORDER BY created_at, key`)
	if err != nil {
		return nil, fmt.Errorf("ledger: listing entries failed: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, 16)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: listing entries failed: %w", err)
	}
	return entries, nil
}

// HashPayload returns the hex SHA-256 of payload.
func HashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (l *Ledger) get(ctx context.Context, key string) (Entry, bool, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM idempotency WHERE key = ?`, key)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		entry     Entry
		status    string
		createdAt int64
	)
	if err := s.Scan(&entry.Key, &entry.Operation, &entry.PayloadHash, &entry.Result, &status, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("ledger: reading entry failed: %w", err)
	}
	entry.Pending = status == statusPending
	entry.CreatedAt = time.UnixMilli(createdAt).UTC()
	return entry, nil
}
