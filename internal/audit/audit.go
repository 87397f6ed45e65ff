// Package audit keeps a SQLite diagnostics log of answered turns. It stores
// outcome and latency per turn and, for malformed upstream payloads, the raw
// body so shape drift can be diagnosed later. It does not store conversation
// state; each row is an independent record.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Log is the SQLite-backed audit log.
type Log struct {
	db     *sql.DB
	logger *slog.Logger
}

// Entry is one answered turn.
type Entry struct {
	Channel    string
	ChatID     string
	Provider   string
	Language   string
	Outcome    string // ok | truncated | transport_error | malformed_payload | empty_answer
	LatencyMs  int64
	RawPayload string // set only for malformed payloads
}

func Open(dbPath string, logger *slog.Logger) (*Log, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	l := &Log{db: db, logger: logger}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return l, nil
}

func (l *Log) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		channel     TEXT NOT NULL,
		chat_id     TEXT NOT NULL,
		provider    TEXT,
		lang        TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		latency_ms  INTEGER DEFAULT 0,
		raw_payload TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_turns_time ON turns(created_at);
	CREATE INDEX IF NOT EXISTS idx_turns_outcome ON turns(outcome);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Record inserts one turn. Failures are logged, not returned, so a broken
// audit database can never fail a user-visible answer.
func (l *Log) Record(ctx context.Context, e Entry) {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO turns (channel, chat_id, provider, lang, outcome, latency_ms, raw_payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Channel, e.ChatID, e.Provider, e.Language, e.Outcome, e.LatencyMs, e.RawPayload,
	)
	if err != nil {
		l.logger.Error("audit record failed", "err", err, "outcome", e.Outcome)
	}
}

// Prune deletes turns older than retentionDays and returns how many went.
func (l *Log) Prune(ctx context.Context, retentionDays int) (int64, error) {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM turns WHERE created_at < datetime('now', ?)`,
		fmt.Sprintf("-%d days", retentionDays),
	)
	if err != nil {
		return 0, fmt.Errorf("prune audit log: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// CountByOutcome returns turn counts per outcome, for the status command.
func (l *Log) CountByOutcome(ctx context.Context) (map[string]int64, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM turns GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("count audit log: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var outcome string
		var n int64
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

func (l *Log) Close() error {
	return l.db.Close()
}
