package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL CHECK(kind IN ('generate', 'tree')),
    version TEXT NOT NULL,
    levels TEXT NOT NULL,
    seed INTEGER DEFAULT 0,
    total_nodes INTEGER DEFAULT 0,
    output_path TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS kpi_status (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    kpi_id TEXT NOT NULL,
    name TEXT NOT NULL,
    pillar TEXT NOT NULL,
    rag TEXT NOT NULL CHECK(rag IN ('green', 'amber', 'red')),
    trend TEXT NOT NULL,
    value REAL NOT NULL,
    target REAL NOT NULL,
    PRIMARY KEY (run_id, kpi_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_kpi_status_kpi ON kpi_status(kpi_id);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "record verification outcome per run",
		Up: func(tx *sql.Tx) error {
			exists, err := columnExists(tx, "runs", "verified")
			if err != nil || exists {
				return err
			}
			_, err = tx.Exec(`ALTER TABLE runs ADD COLUMN verified INTEGER`)
			return err
		},
	},
}

// columnExists reports whether table has the named column, so ALTER TABLE
// migrations can be re-run safely.
func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	var count int
	err := tx.QueryRow(
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
