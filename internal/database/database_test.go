package database

import (
	"path/filepath"
	"testing"

	"github.com/TobiSchelling/KPIMap/internal/kpi"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func testRecords() []*kpi.Record {
	return []*kpi.Record{
		{ID: "k1", Name: "Clean Claim Rate", Pillar: "Revenue Cycle Management", RAG: kpi.Green, Trend: kpi.Up, Value: 96, Target: 98},
		{ID: "k2", Name: "Days in A/R", Pillar: "Revenue Cycle Management", RAG: kpi.Red, Trend: kpi.Down, Value: 45, Target: 35},
		{ID: "k3", Name: "No-Show Rate", Pillar: "Patient Access & Intake", RAG: kpi.Green, Trend: kpi.Stable, Value: 14.5, Target: 10},
		{ID: "k4", Name: "Referral Conversion", Pillar: "Patient Access & Intake", RAG: kpi.Amber, Trend: kpi.Up, Value: 60, Target: 68},
	}
}

func newRun(kind string) *Run {
	return &Run{Kind: kind, Version: "v", Levels: "4-level", Seed: 42, TotalNodes: 4, OutputPath: "public/kpi_map.json"}
}

func TestInsertRun(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertRun(newRun(KindGenerate), testRecords())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("expected uuid run id, got %q", id)
	}

	run, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run == nil {
		t.Fatal("expected run")
	}
	if run.Kind != KindGenerate || run.Seed != 42 || run.TotalNodes != 4 {
		t.Errorf("unexpected run: %+v", run)
	}
	if run.Verified != nil {
		t.Errorf("expected verified unset, got %v", *run.Verified)
	}
	if run.CreatedAt == nil || *run.CreatedAt == "" {
		t.Error("expected created_at")
	}
}

func TestInsertRunKeepsGivenID(t *testing.T) {
	db := openTestDB(t)
	run := newRun(KindTree)
	run.ID = "fixed-id"
	id, err := db.InsertRun(run, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "fixed-id" {
		t.Errorf("expected fixed-id, got %q", id)
	}
}

func TestInsertRunRejectsUnknownKind(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.InsertRun(newRun("rebuild"), nil); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestGetRunMissing(t *testing.T) {
	db := openTestDB(t)
	run, err := db.GetRun("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run != nil {
		t.Error("expected nil for missing run")
	}
}

func TestGetRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	first, _ := db.InsertRun(newRun(KindGenerate), nil)
	second, _ := db.InsertRun(newRun(KindTree), nil)
	third, _ := db.InsertRun(newRun(KindTree), nil)

	runs, err := db.GetRuns(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != third || runs[1].ID != second {
		t.Errorf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}

	all, _ := db.GetRuns(0)
	if len(all) != 3 || all[2].ID != first {
		t.Errorf("expected all 3 runs ending with the first, got %d", len(all))
	}

	latest, _ := db.GetLatestRun()
	if latest == nil || latest.ID != third {
		t.Errorf("expected latest run %s, got %+v", third, latest)
	}
}

func TestGetLatestRunEmpty(t *testing.T) {
	db := openTestDB(t)
	latest, err := db.GetLatestRun()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != nil {
		t.Error("expected nil on empty ledger")
	}
}

func TestSetVerified(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertRun(newRun(KindGenerate), nil)
	if err := db.SetVerified(id, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	run, _ := db.GetRun(id)
	if run.Verified == nil || !*run.Verified {
		t.Errorf("expected verified=true, got %v", run.Verified)
	}
}

func TestGetRAGCounts(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertRun(newRun(KindGenerate), testRecords())

	counts, err := db.GetRAGCounts(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 pillars, got %d", len(counts))
	}
	rcm := counts[0]
	if rcm.Pillar != "Revenue Cycle Management" || rcm.Green != 1 || rcm.Red != 1 || rcm.Amber != 0 {
		t.Errorf("unexpected RCM counts: %+v", rcm)
	}
	access := counts[1]
	if access.Total() != 2 || access.Amber != 1 {
		t.Errorf("unexpected access counts: %+v", access)
	}
}

func TestGetKPIStatuses(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertRun(newRun(KindGenerate), testRecords())

	statuses, err := db.GetKPIStatuses(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(statuses) != 4 {
		t.Fatalf("expected 4 statuses, got %d", len(statuses))
	}
	if statuses[2].KPIID != "k3" || statuses[2].Value != 14.5 || statuses[2].RAG != "green" {
		t.Errorf("unexpected status: %+v", statuses[2])
	}
}

func TestGetKPIHistory(t *testing.T) {
	db := openTestDB(t)
	db.InsertRun(newRun(KindGenerate), testRecords())
	records := testRecords()
	records[1].RAG = kpi.Amber
	records[1].Value = 39
	latest, _ := db.InsertRun(newRun(KindGenerate), records)

	history, err := db.GetKPIHistory("k2", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 points, got %d", len(history))
	}
	if history[0].RunID != latest || history[0].RAG != "amber" || history[0].Value != 39 {
		t.Errorf("unexpected newest point: %+v", history[0])
	}
	if history[1].RAG != "red" {
		t.Errorf("expected older point red, got %s", history[1].RAG)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalRuns != 0 || stats.LastRunAt != "" {
		t.Errorf("expected empty stats, got %+v", stats)
	}

	db.InsertRun(newRun(KindGenerate), testRecords())
	db.InsertRun(newRun(KindTree), testRecords()[:2])

	stats, _ = db.GetStats()
	if stats.TotalRuns != 2 || stats.GenerateRuns != 1 || stats.TreeRuns != 1 {
		t.Errorf("unexpected run counts: %+v", stats)
	}
	if stats.DistinctKPIs != 4 {
		t.Errorf("expected 4 distinct kpis, got %d", stats.DistinctKPIs)
	}
	if stats.LastRunAt == "" {
		t.Error("expected last run time")
	}
}

func TestFormatRunTime(t *testing.T) {
	if got := FormatRunTime(ptr("2026-02-06 14:03:11")); got != "Feb 06, 2026 14:03" {
		t.Errorf("expected 'Feb 06, 2026 14:03', got %q", got)
	}
	if got := FormatRunTime(ptr("yesterday")); got != "yesterday" {
		t.Errorf("expected input unchanged, got %q", got)
	}
	if got := FormatRunTime(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("expected '01234567', got %q", got)
	}
	if got := ShortID("abc"); got != "abc" {
		t.Errorf("expected 'abc', got %q", got)
	}
}
