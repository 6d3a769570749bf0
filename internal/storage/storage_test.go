package storage

import (
	"testing"

	"github.com/ch-lum/rl-analysis/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleSummary(hash, analyzedAt string) model.ReplaySummary {
	return model.ReplaySummary{
		ReplayHash: hash,
		Path:       "/replays/" + hash + ".json",
		AnalyzedAt: analyzedAt,
		FrameCount: 9000,
		EpochCount: 12,
		Team0Goals: 2,
		Team1Goals: 1,
	}
}

func TestReplayInsertAndExists(t *testing.T) {
	db := openMemDB(t)

	if err := db.InsertReplay(sampleSummary("abc123", "2026-08-01T10:00:00Z")); err != nil {
		t.Fatalf("InsertReplay: %v", err)
	}

	exists, err := db.ReplayExists("abc123")
	if err != nil {
		t.Fatalf("ReplayExists: %v", err)
	}
	if !exists {
		t.Error("expected replay to exist after insert")
	}

	exists2, _ := db.ReplayExists("nonexistent")
	if exists2 {
		t.Error("expected non-existent replay to not exist")
	}
}

func TestListReplays(t *testing.T) {
	db := openMemDB(t)

	db.InsertReplay(sampleSummary("h1", "2026-07-01T00:00:00Z"))
	db.InsertReplay(sampleSummary("h2", "2026-08-01T00:00:00Z"))

	list, err := db.ListReplays()
	if err != nil {
		t.Fatalf("ListReplays: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 replays, got %d", len(list))
	}
	// Ordered by analyzed_at DESC, so h2 comes first.
	if list[0].ReplayHash != "h2" {
		t.Errorf("expected h2 first (newest), got %s", list[0].ReplayHash)
	}
}

func TestGetReplayByPrefix(t *testing.T) {
	db := openMemDB(t)

	db.InsertReplay(sampleSummary("deadbeef1234", "2026-08-01T00:00:00Z"))

	s, err := db.GetReplayByPrefix("deadb")
	if err != nil {
		t.Fatalf("GetReplayByPrefix: %v", err)
	}
	if s == nil {
		t.Fatal("expected match for prefix 'deadb'")
	}
	if s.ReplayHash != "deadbeef1234" {
		t.Errorf("unexpected hash %s", s.ReplayHash)
	}

	s2, err := db.GetReplayByPrefix("ffffffff")
	if err != nil {
		t.Fatalf("GetReplayByPrefix no-match: %v", err)
	}
	if s2 != nil {
		t.Error("expected nil for unknown prefix")
	}
}

func TestEventRoundTrip(t *testing.T) {
	db := openMemDB(t)
	db.InsertReplay(sampleSummary("h1", "2026-08-01T00:00:00Z"))

	goals := []model.Goal{{Frame: 510, Team: 0}, {Frame: 1505, Team: 1}}
	kickoffs := []model.Kickoff{{GoalFrame: 0, Frame: 10}, {GoalFrame: 510, Frame: 530}}
	intervals := []model.Interval{{Start: 478, GoalFrame: 510}, {Start: 1504, GoalFrame: 1505}}

	if err := db.InsertGoals("h1", goals); err != nil {
		t.Fatalf("InsertGoals: %v", err)
	}
	if err := db.InsertKickoffs("h1", kickoffs); err != nil {
		t.Fatalf("InsertKickoffs: %v", err)
	}
	if err := db.InsertIntervals("h1", intervals); err != nil {
		t.Fatalf("InsertIntervals: %v", err)
	}

	gotGoals, err := db.GetGoals("h1")
	if err != nil {
		t.Fatalf("GetGoals: %v", err)
	}
	if len(gotGoals) != 2 || gotGoals[0] != goals[0] || gotGoals[1] != goals[1] {
		t.Errorf("goals mismatch: %v", gotGoals)
	}

	gotKickoffs, err := db.GetKickoffs("h1")
	if err != nil {
		t.Fatalf("GetKickoffs: %v", err)
	}
	if len(gotKickoffs) != 2 || gotKickoffs[1] != kickoffs[1] {
		t.Errorf("kickoffs mismatch: %v", gotKickoffs)
	}

	gotIntervals, err := db.GetIntervals("h1")
	if err != nil {
		t.Fatalf("GetIntervals: %v", err)
	}
	if len(gotIntervals) != 2 || gotIntervals[0] != intervals[0] {
		t.Errorf("intervals mismatch: %v", gotIntervals)
	}

	// Another replay's rows stay invisible.
	other, _ := db.GetGoals("h2")
	if len(other) != 0 {
		t.Errorf("expected no goals for h2, got %v", other)
	}
}

func TestFeatureRoundTrip(t *testing.T) {
	db := openMemDB(t)
	db.InsertReplay(sampleSummary("h1", "2026-08-01T00:00:00Z"))
	db.InsertReplay(sampleSummary("h2", "2026-08-02T00:00:00Z"))

	rows := []model.FeatureRow{
		{ReplayHash: "h1", Frame: 478, ScoresNext: 0, Values: []float64{1.5, -2.25, 0}},
		{ReplayHash: "h1", Frame: 493, ScoresNext: 0, Values: []float64{0, 0, 3}},
		{ReplayHash: "h2", Frame: 100, ScoresNext: 1, Values: []float64{7}},
	}
	if err := db.InsertFeatures(rows); err != nil {
		t.Fatalf("InsertFeatures: %v", err)
	}

	got, err := db.GetFeatures("h1")
	if err != nil {
		t.Fatalf("GetFeatures: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows for h1, got %d", len(got))
	}
	if got[0].Frame != 478 || got[0].Values[1] != -2.25 {
		t.Errorf("row mismatch: %+v", got[0])
	}

	all, err := db.GetFeatures("")
	if err != nil {
		t.Fatalf("GetFeatures all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 rows across replays, got %d", len(all))
	}
}

func TestInsertIdempotency(t *testing.T) {
	db := openMemDB(t)

	s := sampleSummary("idem1", "2026-08-01T00:00:00Z")
	db.InsertReplay(s)
	// Second insert should not error (INSERT OR REPLACE).
	if err := db.InsertReplay(s); err != nil {
		t.Errorf("second InsertReplay should succeed (idempotent): %v", err)
	}

	goals := []model.Goal{{Frame: 510, Team: 0}}
	db.InsertGoals("idem1", goals)
	if err := db.InsertGoals("idem1", goals); err != nil {
		t.Errorf("second InsertGoals should succeed (idempotent): %v", err)
	}
	got, _ := db.GetGoals("idem1")
	if len(got) != 1 {
		t.Errorf("expected 1 goal after re-insert, got %d", len(got))
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	db.InsertReplay(sampleSummary("h1", "2026-08-01T00:00:00Z"))

	cols, rows, err := db.QueryRaw("SELECT hash, frame_count FROM replays")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 2 || cols[0] != "hash" {
		t.Errorf("unexpected columns: %v", cols)
	}
	if len(rows) != 1 || rows[0][0] != "h1" || rows[0][1] != "9000" {
		t.Errorf("unexpected rows: %v", rows)
	}
}
