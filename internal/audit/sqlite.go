// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/deep-research/pkg/types"
)

// ErrSessionNotFound is returned by Store.Session for unknown identifiers.
var ErrSessionNotFound = errors.New("session not found")

// Store is a SQLite-backed Sink that also keeps one row per session, so
// sessions can be listed and inspected without replaying the event log.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the audit database at path and bootstraps the
// schema. Writes are serialized through a single connection.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating audit database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			session_id TEXT NOT NULL,
			stage TEXT NOT NULL,
			detail TEXT,
			metadata TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			query TEXT,
			user TEXT,
			start_time TEXT,
			end_time TEXT,
			result TEXT,
			error TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts ev and, for session start and end stages, updates the
// session row in the same transaction.
func (s *Store) Record(ctx context.Context, ev types.AuditEvent) error {
	var metaJSON []byte
	if len(ev.Metadata) > 0 {
		var err error
		if metaJSON, err = json.Marshal(ev.Metadata); err != nil {
			return fmt.Errorf("marshaling metadata: %w", err)
		}
	}
	ts := ev.Timestamp.UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (timestamp, session_id, stage, detail, metadata) VALUES (?, ?, ?, ?, ?)`,
		ts, ev.SessionID, ev.Stage, ev.Detail, nullable(metaJSON),
	); err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	switch ev.Stage {
	case StageSessionStart:
		query, _ := ev.Metadata[MetaQuery].(string)
		user, _ := ev.Metadata[MetaUser].(string)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (session_id, query, user, start_time) VALUES (?, ?, ?, ?)
			 ON CONFLICT(session_id) DO UPDATE SET query=excluded.query, user=excluded.user, start_time=excluded.start_time`,
			ev.SessionID, query, user, ts,
		); err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}
	case StageSessionFinalized:
		resultJSON, err := json.Marshal(ev.Metadata[MetaResult])
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET end_time = ?, result = ? WHERE session_id = ?`,
			ts, string(resultJSON), ev.SessionID,
		); err != nil {
			return fmt.Errorf("finalizing session: %w", err)
		}
	case StageSessionFailed:
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET end_time = ?, error = ? WHERE session_id = ?`,
			ts, ev.Detail, ev.SessionID,
		); err != nil {
			return fmt.Errorf("failing session: %w", err)
		}
	}

	return tx.Commit()
}

// Events returns the events of sessionID in insertion order.
func (s *Store) Events(ctx context.Context, sessionID string) ([]types.AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, session_id, stage, detail, metadata FROM events WHERE session_id = ? ORDER BY id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []types.AuditEvent
	for rows.Next() {
		var (
			ev       types.AuditEvent
			ts       string
			detail   sql.NullString
			metadata sql.NullString
		)
		if err := rows.Scan(&ts, &ev.SessionID, &ev.Stage, &detail, &metadata); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		ev.Detail = detail.String
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &ev.Metadata); err != nil {
				return nil, fmt.Errorf("decoding metadata: %w", err)
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Sessions returns up to limit sessions, most recent first. limit <= 0
// returns all of them.
func (s *Store) Sessions(ctx context.Context, limit int) ([]types.SessionRecord, error) {
	q := `SELECT session_id, query, user, start_time, end_time, result, error FROM sessions ORDER BY rowid DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []types.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Session returns one session by identifier.
func (s *Store) Session(ctx context.Context, sessionID string) (types.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, query, user, start_time, end_time, result, error FROM sessions WHERE session_id = ?`,
		sessionID)
	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.SessionRecord{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (types.SessionRecord, error) {
	var (
		rec                     types.SessionRecord
		query, user, start, end sql.NullString
		result, errText         sql.NullString
	)
	if err := sc.Scan(&rec.SessionID, &query, &user, &start, &end, &result, &errText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scanning session: %w", err)
	}
	rec.Query = query.String
	rec.User = user.String
	rec.Error = errText.String
	rec.StartTime, _ = time.Parse(time.RFC3339Nano, start.String)
	if end.Valid {
		rec.EndTime, _ = time.Parse(time.RFC3339Nano, end.String)
	}
	if result.Valid && result.String != "" && result.String != "null" {
		var r types.Result
		if err := json.Unmarshal([]byte(result.String), &r); err != nil {
			return rec, fmt.Errorf("decoding result: %w", err)
		}
		rec.Result = &r
	}
	return rec, nil
}

func nullable(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
