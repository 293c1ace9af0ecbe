// Package store is the Postgres persistence layer: saved drafts and the
// edit audit trail. Sessions themselves live in memory; only what the user
// explicitly saves, plus the append-only audit log, touches the database.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmarchini/octable/internal/core"
)

// Store implements core.DraftStore on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store backed by the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the tables this store needs if they do not exist.
// Ran at startup; safe to call repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS drafts (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	kind          TEXT NOT NULL,
	file_name     TEXT NOT NULL,
	verify_ids    BOOLEAN NOT NULL DEFAULT FALSE,
	csv_data      BYTEA NOT NULL,
	baseline_data BYTEA NOT NULL,
	edited_items  INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS edit_audit (
	id         BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	action     TEXT NOT NULL,
	item_id    TEXT NOT NULL DEFAULT '',
	row_id     TEXT NOT NULL DEFAULT '',
	old_value  TEXT NOT NULL DEFAULT '',
	new_value  TEXT NOT NULL DEFAULT '',
	client_ip  TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_edit_audit_session ON edit_audit (session_id, created_at);
`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveDraft inserts or updates a draft. A draft without an ID gets one;
// an existing ID overwrites the stored snapshot.
func (s *Store) SaveDraft(ctx context.Context, d core.Draft) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	const q = `
INSERT INTO drafts (id, name, kind, file_name, verify_ids, csv_data, baseline_data, edited_items, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
ON CONFLICT (id) DO UPDATE SET
	name          = EXCLUDED.name,
	csv_data      = EXCLUDED.csv_data,
	baseline_data = EXCLUDED.baseline_data,
	edited_items  = EXCLUDED.edited_items,
	updated_at    = NOW()
`
	_, err := s.pool.Exec(ctx, q,
		d.ID, d.Name, string(d.Kind), d.FileName, d.VerifyIDs,
		d.CSV, d.BaselineCSV, d.EditedItems,
	)
	if err != nil {
		return fmt.Errorf("save draft %s: %w", d.ID, err)
	}
	return nil
}

// LoadDraft returns a stored draft by ID, or core.ErrDraftNotFound.
func (s *Store) LoadDraft(ctx context.Context, id string) (*core.Draft, error) {
	const q = `
SELECT id, name, kind, file_name, verify_ids, csv_data, baseline_data, edited_items, created_at, updated_at
FROM drafts WHERE id = $1
`
	var d core.Draft
	var kind string
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&d.ID, &d.Name, &kind, &d.FileName, &d.VerifyIDs,
		&d.CSV, &d.BaselineCSV, &d.EditedItems, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load draft %s: %w", id, err)
	}
	d.Kind = core.TableKind(kind)
	return &d, nil
}

// ListDrafts returns draft metadata, most recently updated first.
func (s *Store) ListDrafts(ctx context.Context) ([]core.DraftInfo, error) {
	const q = `
SELECT id, name, kind, file_name, edited_items, updated_at
FROM drafts ORDER BY updated_at DESC
`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var out []core.DraftInfo
	for rows.Next() {
		var info core.DraftInfo
		var kind string
		if err := rows.Scan(&info.ID, &info.Name, &kind, &info.FileName, &info.EditedItems, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan draft row: %w", err)
		}
		info.Kind = core.TableKind(kind)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	return out, nil
}

// DeleteDraft removes a draft. Returns false if it did not exist.
func (s *Store) DeleteDraft(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM drafts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete draft %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// RecordEdit appends one entry to the audit trail. Audit writes are
// best-effort from the caller's point of view; they never block an edit.
func (s *Store) RecordEdit(ctx context.Context, rec core.EditRecord) error {
	const q = `
INSERT INTO edit_audit (session_id, action, item_id, row_id, old_value, new_value, client_ip, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	// Audit writes get their own short deadline so a slow database cannot
	// stall the edit path they are attached to.
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.pool.Exec(ctx, q,
		rec.SessionID, rec.Action, rec.ItemID, rec.RowID,
		rec.OldValue, rec.NewValue, rec.ClientIP, rec.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("record edit: %w", err)
	}
	return nil
}
