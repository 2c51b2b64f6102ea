package jsonfile

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mcnemar/domain/core"
	"mcnemar/domain/mcnemar"
	"mcnemar/internal/analysis"
	"mcnemar/ports"
)

func testRecord(t *testing.T, label string, createdAt time.Time) mcnemar.ResultRecord {
	t.Helper()
	res, err := analysis.NewComputer().Compute(mcnemar.TableFromCounts(10, 5, 7, 3), 0.05)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	return mcnemar.ResultRecord{
		ID:        core.NewResultID(),
		Label:     label,
		Result:    *res,
		CreatedAt: core.NewTimestamp(createdAt),
	}
}

func TestLedger_StoreAndGet(t *testing.T) {
	ledger := NewLedger(t.TempDir())
	ctx := context.Background()

	record := testRecord(t, "trial-a", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	if err := ledger.StoreResult(ctx, record); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := ledger.GetResult(ctx, record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != record.ID || got.Label != "trial-a" {
		t.Errorf("got record %s/%s, want %s/trial-a", got.ID, got.Label, record.ID)
	}
	if got.Result.PairCount != 25 {
		t.Errorf("pair count = %d, want 25", got.Result.PairCount)
	}
}

func TestLedger_StoreDegenerateResult(t *testing.T) {
	ledger := NewLedger(t.TempDir())
	ctx := context.Background()

	res, err := analysis.NewComputer().Compute(mcnemar.TableFromCounts(5, 0, 0, 5), 0.05)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	record := mcnemar.ResultRecord{
		ID:        core.NewResultID(),
		Label:     "concordant-only",
		Result:    *res,
		CreatedAt: core.NewTimestamp(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
	}

	if err := ledger.StoreResult(ctx, record); err != nil {
		t.Fatalf("store degenerate result: %v", err)
	}

	got, err := ledger.GetResult(ctx, record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !math.IsNaN(got.Result.ChiSquare) || !math.IsNaN(got.Result.Power) {
		t.Errorf("NaN statistics lost in round trip: %+v", got.Result)
	}
	if !got.Result.HasWarning(mcnemar.WarningNoDiscordantPairs) {
		t.Errorf("warnings lost in round trip: %v", got.Result.Warnings)
	}
}

func TestLedger_GetMissingIsNotFound(t *testing.T) {
	ledger := NewLedger(t.TempDir())

	_, err := ledger.GetResult(context.Background(), core.NewResultID())
	if err == nil {
		t.Fatal("expected error for missing record")
	}
	if !core.IsNotFoundError(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestLedger_ListNewestFirstWithFilters(t *testing.T) {
	ledger := NewLedger(t.TempDir())
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	oldest := testRecord(t, "screening", base)
	middle := testRecord(t, "screening", base.Add(time.Minute))
	newest := testRecord(t, "followup", base.Add(2*time.Minute))

	for _, r := range []mcnemar.ResultRecord{oldest, middle, newest} {
		if err := ledger.StoreResult(ctx, r); err != nil {
			t.Fatalf("store %s: %v", r.Label, err)
		}
	}

	all, err := ledger.ListResults(ctx, ports.ResultFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d records, want 3", len(all))
	}
	if all[0].ID != newest.ID || all[2].ID != oldest.ID {
		t.Error("records not ordered newest first")
	}

	screening, err := ledger.ListResults(ctx, ports.ResultFilters{Label: "screening"})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(screening) != 2 {
		t.Fatalf("got %d screening records, want 2", len(screening))
	}

	limited, err := ledger.ListResults(ctx, ports.ResultFilters{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != middle.ID {
		t.Errorf("limit/offset returned wrong record")
	}
}

func TestLedger_ListSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	ledger := NewLedger(dir)
	ctx := context.Background()

	record := testRecord(t, "ok", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	if err := ledger.StoreResult(ctx, record); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "zz_garbage.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	records, err := ledger.ListResults(ctx, ports.ResultFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].ID != record.ID {
		t.Errorf("expected only the valid record, got %d", len(records))
	}
}

func TestLedger_ListOnMissingDirIsEmpty(t *testing.T) {
	ledger := NewLedger(filepath.Join(t.TempDir(), "never-created"))

	records, err := ledger.ListResults(context.Background(), ports.ResultFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty list, got %d records", len(records))
	}
}
