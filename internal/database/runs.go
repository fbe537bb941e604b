package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/TobiSchelling/KPIMap/internal/kpi"
)

// InsertRun records a run and the status of each of its KPIs in one
// transaction. A run without an ID is assigned a new UUID, which is returned.
func (db *DB) InsertRun(run *Run, records []*kpi.Record) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, kind, version, levels, seed, total_nodes, output_path, verified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Version, run.Levels, run.Seed, run.TotalNodes, run.OutputPath, nullBool(run.Verified),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO kpi_status (run_id, seq, kpi_id, name, pillar, rag, trend, value, target)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.Exec(run.ID, i, r.ID, r.Name, r.Pillar, string(r.RAG), string(r.Trend), r.Value, r.Target); err != nil {
			return "", fmt.Errorf("inserting status for %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

// SetVerified stores the structural check outcome for a run.
func (db *DB) SetVerified(runID string, passed bool) error {
	_, err := db.conn.Exec("UPDATE runs SET verified = ? WHERE id = ?", passed, runID)
	return err
}

const runColumns = "id, kind, version, levels, seed, total_nodes, output_path, verified, created_at"

// GetRuns returns the most recent runs, newest first. A limit of 0 or less
// returns all runs.
func (db *DB) GetRuns(limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY created_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun returns a run by ID, or nil if it does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	r, err := scanRun(db.conn.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// GetLatestRun returns the newest run, or nil if the ledger is empty.
func (db *DB) GetLatestRun() (*Run, error) {
	r, err := scanRun(db.conn.QueryRow("SELECT " + runColumns + " FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1"))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// GetRAGCounts returns per-pillar status counts for a run, with pillars in
// the order their first KPI was recorded.
func (db *DB) GetRAGCounts(runID string) ([]PillarRAG, error) {
	rows, err := db.conn.Query(
		`SELECT pillar,
			SUM(CASE WHEN rag = 'green' THEN 1 ELSE 0 END),
			SUM(CASE WHEN rag = 'amber' THEN 1 ELSE 0 END),
			SUM(CASE WHEN rag = 'red' THEN 1 ELSE 0 END)
		FROM kpi_status WHERE run_id = ?
		GROUP BY pillar ORDER BY MIN(seq)`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []PillarRAG
	for rows.Next() {
		var p PillarRAG
		if err := rows.Scan(&p.Pillar, &p.Green, &p.Amber, &p.Red); err != nil {
			return nil, err
		}
		counts = append(counts, p)
	}
	return counts, rows.Err()
}

// GetKPIStatuses returns every KPI status recorded for a run in catalogue order.
func (db *DB) GetKPIStatuses(runID string) ([]KPIStatus, error) {
	rows, err := db.conn.Query(
		`SELECT run_id, kpi_id, name, pillar, rag, trend, value, target
		FROM kpi_status WHERE run_id = ? ORDER BY seq`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []KPIStatus
	for rows.Next() {
		var s KPIStatus
		if err := rows.Scan(&s.RunID, &s.KPIID, &s.Name, &s.Pillar, &s.RAG, &s.Trend, &s.Value, &s.Target); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// GetKPIHistory returns a KPI's status across runs, newest first.
func (db *DB) GetKPIHistory(kpiID string, limit int) ([]StatusPoint, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT r.id, r.created_at, s.rag, s.trend, s.value
		FROM kpi_status s JOIN runs r ON r.id = s.run_id
		WHERE s.kpi_id = ?
		ORDER BY r.created_at DESC, r.rowid DESC LIMIT ?`, kpiID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []StatusPoint
	for rows.Next() {
		var p StatusPoint
		if err := rows.Scan(&p.RunID, &p.CreatedAt, &p.RAG, &p.Trend, &p.Value); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetStats returns aggregate ledger statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM runs", &s.TotalRuns},
		{"SELECT COUNT(*) FROM runs WHERE kind = 'generate'", &s.GenerateRuns},
		{"SELECT COUNT(*) FROM runs WHERE kind = 'tree'", &s.TreeRuns},
		{"SELECT COUNT(DISTINCT kpi_id) FROM kpi_status", &s.DistinctKPIs},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	var last sql.NullString
	if err := db.conn.QueryRow("SELECT MAX(created_at) FROM runs").Scan(&last); err != nil {
		return nil, err
	}
	s.LastRunAt = last.String

	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var verified sql.NullBool
	if err := row.Scan(&r.ID, &r.Kind, &r.Version, &r.Levels, &r.Seed, &r.TotalNodes,
		&r.OutputPath, &verified, &r.CreatedAt); err != nil {
		return nil, err
	}
	if verified.Valid {
		v := verified.Bool
		r.Verified = &v
	}
	return &r, nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
