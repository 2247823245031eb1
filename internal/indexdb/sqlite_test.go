package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"evacsim/internal/evac"
)

func TestSQLiteIndex_BatchRunsAndCurves(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "idx", "runs.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()

	p := evac.DefaultParams()
	p.Mu = 0.35
	batchID, err := idx.BeginBatch(ctx, Batch{Scenario: "room", BaseSeed: 42, Runs: 3, Params: p})
	if err != nil {
		t.Fatalf("BeginBatch: %v", err)
	}
	if len(batchID) != 36 {
		t.Fatalf("batch id %q is not a UUID", batchID)
	}

	runs := []struct {
		r     Run
		curve []int
	}{
		{Run{Index: 0, Seed: 42, Steps: 3, Evacuated: 2, Done: true, Time: 3}, []int{2, 2, 1, 0}},
		{Run{Index: 2, Seed: 15880, Steps: 5, Evacuated: 2, Done: true, Time: 5.5}, []int{2, 2, 2, 1, 1, 0}},
		{Run{Index: 1, Seed: 7961, Steps: 9, Evacuated: 1, Remaining: 1, Time: 9}, []int{2, 2, 2, 2, 1, 1, 1, 1, 1, 1}},
	}
	var firstID string
	for i, x := range runs {
		x.r.BatchID = batchID
		id, err := idx.RecordRun(ctx, x.r, x.curve)
		if err != nil {
			t.Fatalf("RecordRun %d: %v", i, err)
		}
		if i == 0 {
			firstID = id
		}
	}

	b, err := idx.Batch(ctx, batchID)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if b.Scenario != "room" || b.BaseSeed != 42 || b.Params != p {
		t.Fatalf("batch=%+v", b)
	}

	got, err := idx.Runs(ctx, batchID)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(got) != 3 || got[0].Index != 0 || got[1].Index != 1 || got[2].Index != 2 {
		t.Fatalf("runs=%+v", got)
	}
	if got[1].Done || got[1].Remaining != 1 || !got[2].Done || got[2].Time != 5.5 {
		t.Fatalf("run fields lost: %+v", got)
	}

	curve, err := idx.Curve(ctx, firstID)
	if err != nil {
		t.Fatalf("Curve: %v", err)
	}
	if len(curve) != 4 || curve[0] != 2 || curve[3] != 0 {
		t.Fatalf("curve=%v", curve)
	}

	n, mean, lo, hi, err := idx.StepStats(ctx, batchID)
	if err != nil {
		t.Fatalf("StepStats: %v", err)
	}
	if n != 2 || mean != 4 || lo != 3 || hi != 5 {
		t.Fatalf("stats n=%d mean=%v min=%d max=%d", n, mean, lo, hi)
	}
}

func TestSQLiteIndex_RunNeedsBatch(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()
	if _, err := idx.RecordRun(context.Background(), Run{BatchID: "missing"}, nil); err == nil {
		t.Fatal("run without batch accepted")
	}
}

func TestSQLiteIndex_FileIsPlainSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	ctx := context.Background()
	id, err := idx.BeginBatch(ctx, Batch{ID: "fixed", Scenario: "corridor", Runs: 1})
	if err != nil {
		t.Fatalf("BeginBatch: %v", err)
	}
	if id != "fixed" {
		t.Fatalf("id=%q want fixed", id)
	}
	if _, err := idx.RecordRun(ctx, Run{BatchID: id, Steps: 4, Done: true}, []int{1, 1, 1, 1, 0}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var points int
	if err := db.QueryRow(`SELECT COUNT(*) FROM curve_points`).Scan(&points); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if points != 5 {
		t.Fatalf("curve points=%d want 5", points)
	}
}
