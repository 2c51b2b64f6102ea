package analysis

import (
	"context"
	"fmt"
	"math"
	"testing"

	"mcnemar/domain/mcnemar"
)

func TestBatchRunner_PreservesInputOrder(t *testing.T) {
	runner := NewBatchRunner(4)

	// Distinct b=c=k tables give each item a recognizable statistic 1/(2k).
	var inputs []BatchInput
	for k := 1.0; k <= 20; k++ {
		inputs = append(inputs, BatchInput{
			Label: fmt.Sprintf("table-%02.0f", k),
			Table: mcnemar.TableFromCounts(5, k, k, 5),
			Alpha: 0.05,
		})
	}

	items, err := runner.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(items) != len(inputs) {
		t.Fatalf("got %d items, want %d", len(items), len(inputs))
	}

	for i, item := range items {
		if item.Index != i {
			t.Errorf("item %d carries index %d", i, item.Index)
		}
		if item.Label != inputs[i].Label {
			t.Errorf("item %d label = %q, want %q", i, item.Label, inputs[i].Label)
		}
		if item.Err != nil {
			t.Fatalf("item %d failed: %v", i, item.Err)
		}
		k := float64(i + 1)
		if want := 1 / (2 * k); math.Abs(item.Result.ChiSquare-want) > 1e-12 {
			t.Errorf("item %d chi-square = %v, want %v", i, item.Result.ChiSquare, want)
		}
	}
}

func TestBatchRunner_RecordsItemErrorsWithoutAborting(t *testing.T) {
	runner := NewBatchRunner(2)

	inputs := []BatchInput{
		{Label: "good", Table: mcnemar.TableFromCounts(101, 59, 121, 33), Alpha: 0.05},
		{Label: "negative cell", Table: mcnemar.TableFromCounts(1, -2, 3, 4), Alpha: 0.05},
		{Label: "bad alpha", Table: mcnemar.TableFromCounts(1, 2, 3, 4), Alpha: 2},
		{Label: "also good", Table: mcnemar.TableFromCounts(5, 5, 5, 5), Alpha: 0.05},
	}

	items, err := runner.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if items[0].Err != nil || items[3].Err != nil {
		t.Errorf("valid items failed: %v / %v", items[0].Err, items[3].Err)
	}
	if items[1].Err == nil {
		t.Error("negative cell should be rejected")
	}
	if items[2].Err == nil {
		t.Error("alpha 2 should be rejected")
	}
	if items[1].Result != nil || items[2].Result != nil {
		t.Error("rejected items must not carry results")
	}
}

func TestBatchRunner_AppliesDefaultAlpha(t *testing.T) {
	runner := NewBatchRunner(1)

	items, err := runner.Run(context.Background(), []BatchInput{
		{Table: mcnemar.TableFromCounts(10, 5, 7, 3)},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if items[0].Err != nil {
		t.Fatalf("item failed: %v", items[0].Err)
	}
	if items[0].Result.Alpha != mcnemar.DefaultAlpha {
		t.Errorf("alpha = %v, want default %v", items[0].Result.Alpha, mcnemar.DefaultAlpha)
	}
}

func TestBatchRunner_HonorsCancellation(t *testing.T) {
	runner := NewBatchRunner(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inputs := []BatchInput{
		{Table: mcnemar.TableFromCounts(1, 2, 3, 4)},
		{Table: mcnemar.TableFromCounts(1, 2, 3, 4)},
	}
	if _, err := runner.Run(ctx, inputs); err == nil {
		t.Fatal("expected error from canceled context")
	}
}

func TestSummarize(t *testing.T) {
	runner := NewBatchRunner(2)

	inputs := []BatchInput{
		{Label: "strong effect", Table: mcnemar.TableFromCounts(101, 59, 121, 33), Alpha: 0.05},
		{Label: "balanced", Table: mcnemar.TableFromCounts(10, 5, 5, 10), Alpha: 0.05},
		{Label: "degenerate", Table: mcnemar.TableFromCounts(1, 0, 0, 1), Alpha: 0.05},
		{Label: "invalid", Table: mcnemar.TableFromCounts(-1, 0, 0, 1), Alpha: 0.05},
	}

	items, err := runner.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	summary := Summarize(items)

	if summary.Items != 4 {
		t.Errorf("items = %d, want 4", summary.Items)
	}
	if summary.Computed != 3 {
		t.Errorf("computed = %d, want 3", summary.Computed)
	}
	if summary.Failed != 1 {
		t.Errorf("failed = %d, want 1", summary.Failed)
	}
	if summary.Significant != 1 {
		t.Errorf("significant = %d, want 1", summary.Significant)
	}
	if summary.Degenerate != 1 {
		t.Errorf("degenerate = %d, want 1", summary.Degenerate)
	}
	if summary.PowerUndefined != 1 {
		t.Errorf("power undefined = %d, want 1", summary.PowerUndefined)
	}

	// Aggregates must skip the degenerate NaN p-value: only the strong-effect
	// (~0.000005) and balanced (~0.7518) tables contribute.
	if summary.PValueMin > 1e-5 {
		t.Errorf("p-value min = %v, want below 1e-5", summary.PValueMin)
	}
	if math.Abs(summary.PValueMax-0.7518) > 1e-3 {
		t.Errorf("p-value max = %v, want about 0.7518", summary.PValueMax)
	}
	if math.Abs(summary.PValueMean-(summary.PValueMin+summary.PValueMax)/2) > 1e-9 {
		t.Errorf("p-value mean = %v, want midpoint of the two defined values", summary.PValueMean)
	}
	if math.Abs(summary.ChiSquareMax-20.672222) > 1e-5 {
		t.Errorf("chi-square max = %v, want 20.672222", summary.ChiSquareMax)
	}
}

func TestSummarize_AllDegenerateLeavesAggregatesZero(t *testing.T) {
	runner := NewBatchRunner(1)

	items, err := runner.Run(context.Background(), []BatchInput{
		{Label: "empty", Table: mcnemar.TableFromCounts(3, 0, 0, 3)},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	summary := Summarize(items)
	if summary.Degenerate != 1 {
		t.Errorf("degenerate = %d, want 1", summary.Degenerate)
	}
	if summary.PValueMean != 0 || summary.PValueMedian != 0 || summary.PowerMean != 0 {
		t.Errorf("empty aggregates should stay zero, got %+v", summary)
	}
	if math.IsNaN(summary.ChiSquareMax) {
		t.Error("chi-square max should not be NaN for an empty aggregate")
	}
}
