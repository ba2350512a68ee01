package roster

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const agentTable = "org_agents"

// SQLiteStore persists the agent roster in a SQLite database. It backs the
// dashboard's authoritative roster and implements Provider.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the roster database at path and ensures schema.
func Open(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("roster db path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an existing database handle and ensures schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			runtime_id TEXT NOT NULL DEFAULT '',
			slug TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT '',
			station TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL DEFAULT ''
		);`, agentTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_runtime ON %s(runtime_id);`, agentTable, agentTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_slug ON %s(slug);`, agentTable, agentTable),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// List returns every roster record ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, runtime_id, slug, name, display_name, role, station, status, kind
		 FROM %s ORDER BY name, id`, agentTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.RuntimeID, &rec.Slug, &rec.Name,
			&rec.DisplayName, &rec.Role, &rec.Station, &rec.Status, &rec.Kind); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Upsert inserts or replaces a roster record, assigning an id when absent.
func (s *SQLiteStore) Upsert(ctx context.Context, rec Record) (Record, error) {
	if rec.Name == "" {
		return Record{}, fmt.Errorf("roster record requires a name")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, runtime_id, slug, name, display_name, role, station, status, kind)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			runtime_id = excluded.runtime_id,
			slug = excluded.slug,
			name = excluded.name,
			display_name = excluded.display_name,
			role = excluded.role,
			station = excluded.station,
			status = excluded.status,
			kind = excluded.kind`, agentTable),
		rec.ID, rec.RuntimeID, rec.Slug, rec.Name, rec.DisplayName,
		rec.Role, rec.Station, rec.Status, rec.Kind)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
