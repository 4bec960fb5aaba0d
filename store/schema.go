// Package store persists sampler results in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema of the result store.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    state TEXT NOT NULL,
    names TEXT NOT NULL,      -- JSON array
    anomalies TEXT NOT NULL   -- JSON array
);

-- One row per finalized population
CREATE TABLE IF NOT EXISTS populations (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    iteration INTEGER NOT NULL,
    threshold REAL NOT NULL,       -- threshold the population was accepted under
    next_threshold REAL NOT NULL,  -- threshold derived from the population
    trials INTEGER NOT NULL,
    PRIMARY KEY (run_id, iteration)
);

CREATE TABLE IF NOT EXISTS particles (
    run_id TEXT NOT NULL,
    iteration INTEGER NOT NULL,
    idx INTEGER NOT NULL,
    params TEXT NOT NULL,  -- JSON array
    weight REAL NOT NULL,
    distance REAL NOT NULL,
    PRIMARY KEY (run_id, iteration, idx),
    FOREIGN KEY (run_id, iteration) REFERENCES populations(run_id, iteration) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InitSchema creates the store tables if they don't exist.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}
