package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresStore persists documents in a single JSONB-backed table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore returns a store bound to the given database handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the documents table when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			parent TEXT NOT NULL,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_documents_parent ON documents (parent);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate documents table: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// pgOps implements the document operations against either a DB or a Tx.
type pgOps struct {
	q queryer
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return pgOps{q: s.db}.get(ctx, path)
}

// Set implements Store.
func (s *PostgresStore) Set(ctx context.Context, path string, value interface{}, merge bool) error {
	return pgOps{q: s.db}.set(ctx, path, value, merge)
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, path string) error {
	return pgOps{q: s.db}.del(ctx, path)
}

// Query implements Store.
func (s *PostgresStore) Query(ctx context.Context, parent string, filter map[string]interface{}) ([]Entry, error) {
	return pgOps{q: s.db}.query(ctx, parent, filter)
}

// InTx runs fn inside a serializable database transaction.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	dbTx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&pgTxStore{ops: pgOps{q: dbTx}}); err != nil {
		_ = dbTx.Rollback()
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// pgTxStore adapts pgOps to the Store interface within a transaction.
type pgTxStore struct {
	ops pgOps
}

func (t *pgTxStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return t.ops.get(ctx, path)
}

func (t *pgTxStore) Set(ctx context.Context, path string, value interface{}, merge bool) error {
	return t.ops.set(ctx, path, value, merge)
}

func (t *pgTxStore) Delete(ctx context.Context, path string) error {
	return t.ops.del(ctx, path)
}

func (t *pgTxStore) Query(ctx context.Context, parent string, filter map[string]interface{}) ([]Entry, error) {
	return t.ops.query(ctx, parent, filter)
}

func (t *pgTxStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	// Already transactional; nested calls reuse the same transaction.
	return fn(t)
}

func (o pgOps) get(ctx context.Context, path string) (json.RawMessage, error) {
	if !ValidPath(path) {
		return nil, fmt.Errorf("invalid document path %q", path)
	}
	const query = `SELECT data FROM documents WHERE path = $1`
	var raw []byte
	if err := o.q.QueryRowContext(ctx, query, path).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document %s: %w", path, err)
	}
	return json.RawMessage(raw), nil
}

func (o pgOps) set(ctx context.Context, path string, value interface{}, merge bool) error {
	if !ValidPath(path) {
		return fmt.Errorf("invalid document path %q", path)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", path, err)
	}

	query := `INSERT INTO documents (path, parent, data, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	if merge {
		query = `INSERT INTO documents (path, parent, data, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (path) DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	}

	if _, err := o.q.ExecContext(ctx, query, path, ParentOf(path), payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("set document %s: %w", path, err)
	}
	return nil
}

func (o pgOps) del(ctx context.Context, path string) error {
	if !ValidPath(path) {
		return fmt.Errorf("invalid document path %q", path)
	}
	if _, err := o.q.ExecContext(ctx, `DELETE FROM documents WHERE path = $1`, path); err != nil {
		return fmt.Errorf("delete document %s: %w", path, err)
	}
	return nil
}

func (o pgOps) query(ctx context.Context, parent string, filter map[string]interface{}) ([]Entry, error) {
	query := `SELECT path, data FROM documents WHERE parent = $1`
	args := []interface{}{parent}
	if len(filter) > 0 {
		predicate, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("marshal query filter: %w", err)
		}
		query += ` AND data @> $2`
		args = append(args, predicate)
	}
	query += ` ORDER BY path`

	rows, err := o.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", parent, err)
	}
	defer rows.Close() //nolint:errcheck

	var entries []Entry
	for rows.Next() {
		var (
			path string
			raw  []byte
		)
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		entries = append(entries, Entry{Path: path, Data: json.RawMessage(raw)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collection %s: %w", parent, err)
	}
	return entries, nil
}
