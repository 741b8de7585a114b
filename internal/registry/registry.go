// Package registry persists generated schemas as an append-only sequence
// of versions in a SQLite database, so repeated runs over the same data
// source can detect whether the inferred schema has changed since the
// last run without re-running inference from scratch.
package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/snappy"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kestrel-labs/bqschema/internal/fingerprint"
	"github.com/kestrel-labs/bqschema/internal/lattice"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS schema_versions (
	version     INTEGER PRIMARY KEY,
	fingerprint BLOB NOT NULL,
	schema_blob BLOB NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_schema_versions_fingerprint ON schema_versions(fingerprint);
`

// Registry tracks schema versions for a single logical table or data
// source. Each registered schema that differs (by fingerprint) from the
// current version is stored as a new version; re-registering an
// unchanged schema is a no-op that returns the existing version.
type Registry struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the schema_versions table exists.
func Open(path string) (*Registry, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to open database: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: failed to initialize schema: %w", err)
	}
	return &Registry{db: db}, nil
}

// Close closes the underlying database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Version is a single stored schema version.
type Version struct {
	Version     int
	Fingerprint [16]byte
	Fields      []lattice.Field
	CreatedAt   time.Time
}

// CurrentVersion returns the latest registered version number, or 0 if
// none has been registered yet.
func (r *Registry) CurrentVersion(ctx context.Context) (int, error) {
	var version int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_versions",
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("registry: failed to read current version: %w", err)
	}
	return version, nil
}

// Get retrieves a specific schema version.
func (r *Registry) Get(ctx context.Context, version int) (*Version, error) {
	var fp []byte
	var blob []byte
	var createdAtUnix int64

	err := r.db.QueryRowContext(ctx,
		"SELECT fingerprint, schema_blob, created_at FROM schema_versions WHERE version = ?",
		version,
	).Scan(&fp, &blob, &createdAtUnix)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("registry: version %d not found", version)
		}
		return nil, fmt.Errorf("registry: failed to read version %d: %w", version, err)
	}

	fields, err := decodeFields(blob)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to decode version %d: %w", version, err)
	}

	v := &Version{Version: version, Fields: fields, CreatedAt: time.Unix(createdAtUnix, 0)}
	copy(v.Fingerprint[:], fp)
	return v, nil
}

// Register stores fields as a new version if its fingerprint differs
// from the current version's, and returns the resulting version number.
// Registering an unchanged schema returns the existing version without
// writing a new row.
func (r *Registry) Register(ctx context.Context, fields []lattice.Field) (int, error) {
	fp := fingerprint.Schema(fields)

	current, err := r.CurrentVersion(ctx)
	if err != nil {
		return 0, err
	}

	if current > 0 {
		existing, err := r.Get(ctx, current)
		if err != nil {
			return 0, err
		}
		if existing.Fingerprint == fp {
			return current, nil
		}
	}

	next := current + 1
	blob, err := encodeFields(fields)
	if err != nil {
		return 0, fmt.Errorf("registry: failed to encode schema: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO schema_versions (version, fingerprint, schema_blob, created_at) VALUES (?, ?, ?, ?)",
		next, fp[:], blob, time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("registry: failed to insert version %d: %w", next, err)
	}

	return next, nil
}

// ListVersions returns every registered version, oldest first.
func (r *Registry) ListVersions(ctx context.Context) ([]Version, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT version, fingerprint, schema_blob, created_at FROM schema_versions ORDER BY version ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to list versions: %w", err)
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		var version int
		var fp, blob []byte
		var createdAtUnix int64
		if err := rows.Scan(&version, &fp, &blob, &createdAtUnix); err != nil {
			return nil, fmt.Errorf("registry: failed to scan version: %w", err)
		}
		fields, err := decodeFields(blob)
		if err != nil {
			return nil, fmt.Errorf("registry: failed to decode version %d: %w", version, err)
		}
		v := Version{Version: version, Fields: fields, CreatedAt: time.Unix(createdAtUnix, 0)}
		copy(v.Fingerprint[:], fp)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registry: error iterating versions: %w", err)
	}
	return out, nil
}

func encodeFields(fields []lattice.Field) ([]byte, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, raw), nil
}

func decodeFields(blob []byte) ([]lattice.Field, error) {
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, err
	}
	var fields []lattice.Field
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
