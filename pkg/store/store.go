// Package store keeps plate-model snapshots in sqlite so that separate CLI
// invocations can chain operations the way a canvas chains components.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chazu/lamina/pkg/plate"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Latest resolves to the most recent snapshot.
const Latest = "latest"

var (
	// ErrNotFound is returned when no snapshot matches a reference.
	ErrNotFound = errors.New("snapshot not found")
	// ErrAmbiguous is returned when an id prefix matches several snapshots.
	ErrAmbiguous = errors.New("ambiguous snapshot reference")
)

// now is replaced in tests.
var now = time.Now

// Store is a sqlite-backed snapshot store.
type Store struct {
	*sql.DB
	log *zap.Logger
}

// Summary describes a snapshot without decoding its model.
type Summary struct {
	ID        string    `json:"id"`
	Parent    string    `json:"parent,omitempty"`
	Operation string    `json:"operation"`
	Plates    int       `json:"plates"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is a stored model with its provenance.
type Snapshot struct {
	Summary
	Model *plate.Model `json:"model"`
}

// Open opens or creates the database at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers; one connection also keeps :memory: stable.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			id                TEXT PRIMARY KEY,
			parent            TEXT,
			operation         TEXT NOT NULL,
			plates            INTEGER NOT NULL,
			created_at        INTEGER NOT NULL,
			model             TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS snapshots_created ON snapshots (created_at);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{DB: db, log: log}, nil
}

// Save stores m as a new snapshot derived from parent (empty for a root)
// by operation.
func (s *Store) Save(ctx context.Context, parent, operation string, m *plate.Model) (Summary, error) {
	if m == nil {
		return Summary{}, fmt.Errorf("save %s: nil model", operation)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to encode model: %w", err)
	}
	sum := Summary{
		ID:        uuid.NewString(),
		Parent:    parent,
		Operation: operation,
		Plates:    len(m.Plates()),
		CreatedAt: now().UTC(),
	}
	_, err = s.ExecContext(ctx,
		`INSERT INTO snapshots (id, parent, operation, plates, created_at, model)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sum.ID, nullString(parent), sum.Operation, sum.Plates, sum.CreatedAt.UnixNano(), string(data),
	)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	s.log.Debug("snapshot saved",
		zap.String("id", sum.ID),
		zap.String("operation", operation),
		zap.Int("plates", sum.Plates))
	return sum, nil
}

// Get loads the snapshot named by ref: a full id, a unique id prefix, or
// Latest.
func (s *Store) Get(ctx context.Context, ref string) (Snapshot, error) {
	id, err := s.resolve(ctx, ref)
	if err != nil {
		return Snapshot{}, err
	}
	row := s.QueryRowContext(ctx,
		`SELECT id, parent, operation, plates, created_at, model FROM snapshots WHERE id = ?`, id)

	var snap Snapshot
	var parent sql.NullString
	var created int64
	var data string
	if err := row.Scan(&snap.ID, &parent, &snap.Operation, &snap.Plates, &created, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return Snapshot{}, err
	}
	snap.Parent = parent.String
	snap.CreatedAt = time.Unix(0, created).UTC()

	snap.Model = new(plate.Model)
	if err := json.Unmarshal([]byte(data), snap.Model); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot %s: %w", snap.ID, err)
	}
	return snap, nil
}

func (s *Store) resolve(ctx context.Context, ref string) (string, error) {
	var query string
	var args []any
	switch {
	case ref == "" || ref == Latest:
		query = `SELECT id FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT 1`
	default:
		query = `SELECT id FROM snapshots WHERE id LIKE ? || '%' LIMIT 2`
		args = []any{ref}
	}
	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguous, ref)
	}
}

// List returns every snapshot, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, parent, operation, plates, created_at FROM snapshots
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var parent sql.NullString
		var created int64
		if err := rows.Scan(&sum.ID, &parent, &sum.Operation, &sum.Plates, &created); err != nil {
			return nil, err
		}
		sum.Parent = parent.String
		sum.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes the snapshot named by ref.
func (s *Store) Delete(ctx context.Context, ref string) error {
	id, err := s.resolve(ctx, ref)
	if err != nil {
		return err
	}
	if _, err := s.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
