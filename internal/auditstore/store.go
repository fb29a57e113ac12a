// Package auditstore persists grid audit entries to PostgreSQL.
//
// The grid engine keeps its audit trail in memory; this package is an
// outside consumer that mirrors every published change into the
// grid_audit_log table so the trail survives restarts and can be queried
// by reporting tools.
package auditstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/gridreview/internal/grid"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS grid_audit_log (
    id               TEXT PRIMARY KEY,
    seq              BIGINT NOT NULL,
    row_id           TEXT NOT NULL,
    column_id        TEXT NOT NULL,
    previous_value   TEXT NOT NULL,
    new_value        TEXT NOT NULL,
    previous_status  TEXT NOT NULL,
    previous_message TEXT NOT NULL DEFAULT '',
    new_status       TEXT NOT NULL,
    new_message      TEXT NOT NULL DEFAULT '',
    actor_id         TEXT NOT NULL,
    action           TEXT NOT NULL,
    severity         TEXT NOT NULL,
    batch_id         TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS grid_audit_log_row_idx ON grid_audit_log (row_id, seq);
`

const insertSQL = `
INSERT INTO grid_audit_log (
    id, seq, row_id, column_id, previous_value, new_value,
    previous_status, previous_message, new_status, new_message,
    actor_id, action, severity, batch_id, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (id) DO NOTHING`

const selectColumns = `id, seq, row_id, column_id, previous_value, new_value,
    previous_status, previous_message, new_status, new_message,
    actor_id, action, severity, batch_id, created_at`

// Store reads and writes audit entries.
type Store struct {
	db DBTX
}

// New creates a store backed by db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the audit table and index if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Insert writes one entry. Re-inserting an entry with the same id is a no-op.
func (s *Store) Insert(ctx context.Context, e grid.AuditEntry) error {
	if _, err := s.db.Exec(ctx, insertSQL, insertArgs(e)...); err != nil {
		return fmt.Errorf("insert audit entry %s: %w", e.ID, err)
	}
	return nil
}

// InsertBatch writes entries in one round trip. It stops at the first
// failing entry.
func (s *Store) InsertBatch(ctx context.Context, entries []grid.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(insertSQL, insertArgs(e)...)
	}

	br := s.db.SendBatch(ctx, batch)
	for _, e := range entries {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert audit entry %s: %w", e.ID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close audit batch: %w", err)
	}
	return nil
}

func insertArgs(e grid.AuditEntry) []interface{} {
	return []interface{}{
		e.ID, int64(e.Seq), e.RowID, e.ColumnID, e.PreviousValue, e.NewValue,
		string(e.PreviousStatus.Kind), e.PreviousStatus.Message,
		string(e.NewStatus.Kind), e.NewStatus.Message,
		e.ActorID, string(e.Action), string(e.Severity), e.BatchID, e.Timestamp,
	}
}

// List returns stored entries matching f in application order.
func (s *Store) List(ctx context.Context, f grid.AuditFilter) ([]grid.AuditEntry, error) {
	if f.Limit <= 0 {
		f.Limit = grid.DefaultAuditLimit
	}

	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.RowID != "" {
		add("row_id = $%d", f.RowID)
	}
	if f.ColumnID != "" {
		add("column_id = $%d", f.ColumnID)
	}
	if f.ActorID != "" {
		add("actor_id = $%d", f.ActorID)
	}
	if !f.Since.IsZero() {
		add("created_at >= $%d", f.Since)
	}
	if !f.Until.IsZero() {
		add("created_at < $%d", f.Until)
	}

	query := "SELECT " + selectColumns + " FROM grid_audit_log"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY seq LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]grid.AuditEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return entries, nil
}

// ListByRow returns the stored history of one row.
func (s *Store) ListByRow(ctx context.Context, rowID string, limit, offset int) ([]grid.AuditEntry, error) {
	return s.List(ctx, grid.AuditFilter{RowID: rowID, Limit: limit, Offset: offset})
}

func scanEntry(row pgx.Row) (grid.AuditEntry, error) {
	var (
		e                 grid.AuditEntry
		seq               int64
		prevKind, prevMsg string
		newKind, newMsg   string
		action, severity  string
		createdAt         time.Time
	)
	err := row.Scan(
		&e.ID, &seq, &e.RowID, &e.ColumnID, &e.PreviousValue, &e.NewValue,
		&prevKind, &prevMsg, &newKind, &newMsg,
		&e.ActorID, &action, &severity, &e.BatchID, &createdAt,
	)
	if err != nil {
		return grid.AuditEntry{}, err
	}
	e.Seq = uint64(seq)
	e.PreviousStatus = grid.Status{Kind: grid.StatusKind(prevKind), Message: prevMsg}
	e.NewStatus = grid.Status{Kind: grid.StatusKind(newKind), Message: newMsg}
	e.Action = grid.AuditAction(action)
	e.Severity = grid.AuditSeverity(severity)
	e.Timestamp = createdAt.UTC()
	return e, nil
}
