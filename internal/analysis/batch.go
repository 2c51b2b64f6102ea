package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/semaphore"

	"mcnemar/domain/mcnemar"
	"mcnemar/internal"
)

// BatchInput is one table queued for testing. A zero Alpha means the caller
// did not choose one and the default applies.
type BatchInput struct {
	Label string                   `json:"label,omitempty"`
	Table mcnemar.ContingencyTable `json:"table"`
	Alpha float64                  `json:"alpha,omitempty"`
}

// BatchItem is the outcome for one input. Either Result or Err is set.
type BatchItem struct {
	Index  int                 `json:"index"`
	Label  string              `json:"label,omitempty"`
	Result *mcnemar.TestResult `json:"result,omitempty"`
	Err    error               `json:"-"`
}

// MarshalJSON flattens the error into a string so failed items survive
// serialization in API responses and CLI output.
func (item BatchItem) MarshalJSON() ([]byte, error) {
	type alias struct {
		Index  int                 `json:"index"`
		Label  string              `json:"label,omitempty"`
		Result *mcnemar.TestResult `json:"result,omitempty"`
		Error  string              `json:"error,omitempty"`
	}
	a := alias{Index: item.Index, Label: item.Label, Result: item.Result}
	if item.Err != nil {
		a.Error = item.Err.Error()
	}
	return json.Marshal(a)
}

// BatchRunner fans tables out to the computer under a weighted-semaphore
// concurrency bound.
type BatchRunner struct {
	computer *McNemarComputer
	sem      *semaphore.Weighted
	logger   *internal.Logger
}

// NewBatchRunner creates a runner that computes at most maxConcurrency tables
// at once.
func NewBatchRunner(maxConcurrency int64) *BatchRunner {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &BatchRunner{
		computer: NewComputer(),
		sem:      semaphore.NewWeighted(maxConcurrency),
		logger:   internal.DefaultLogger.WithComponent("BatchRunner"),
	}
}

// Run computes every input. Items land at their input index, so output order
// matches input order regardless of goroutine scheduling. A failing item
// records its error and never aborts the rest; Run itself only fails when the
// context is done.
func (br *BatchRunner) Run(ctx context.Context, inputs []BatchInput) ([]BatchItem, error) {
	items := make([]BatchItem, len(inputs))
	var wg sync.WaitGroup

	for i := range inputs {
		if err := br.sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, fmt.Errorf("batch canceled at item %d: %w", i, err)
		}

		wg.Add(1)
		go func(idx int, in BatchInput) {
			defer wg.Done()
			defer br.sem.Release(1)

			alpha := in.Alpha
			if alpha == 0 {
				alpha = mcnemar.DefaultAlpha
			}

			result, err := br.computer.Compute(in.Table, alpha)
			items[idx] = BatchItem{Index: idx, Label: in.Label, Result: result, Err: err}
			if err != nil {
				br.logger.Warn("item %d (%s) rejected: %v", idx, in.Label, err)
			}
		}(i, inputs[i])
	}

	wg.Wait()
	br.logger.Info("batch complete: %d tables", len(inputs))
	return items, nil
}

// BatchSummary aggregates a finished batch. NaN-valued quantities are counted
// through the warning tallies but excluded from the numeric aggregates.
type BatchSummary struct {
	Items          int     `json:"items"`
	Computed       int     `json:"computed"`
	Failed         int     `json:"failed"`
	Significant    int     `json:"significant"`
	Degenerate     int     `json:"degenerate"`
	PowerUndefined int     `json:"power_undefined"`
	PValueMean     float64 `json:"p_value_mean"`
	PValueMedian   float64 `json:"p_value_median"`
	PValueMin      float64 `json:"p_value_min"`
	PValueMax      float64 `json:"p_value_max"`
	ChiSquareMax   float64 `json:"chi_square_max"`
	PowerMean      float64 `json:"power_mean"`
}

// Summarize reduces batch items to headline numbers.
func Summarize(items []BatchItem) BatchSummary {
	summary := BatchSummary{Items: len(items)}

	var pValues, powers, chiSquares []float64
	for _, item := range items {
		if item.Err != nil {
			summary.Failed++
			continue
		}
		if item.Result == nil {
			continue
		}
		summary.Computed++

		res := item.Result
		if res.Significant() {
			summary.Significant++
		}
		if res.HasWarning(mcnemar.WarningDegenerateStatistic) {
			summary.Degenerate++
		}
		if res.HasWarning(mcnemar.WarningPowerUndefined) {
			summary.PowerUndefined++
		}

		if !math.IsNaN(res.PValue) {
			pValues = append(pValues, res.PValue)
		}
		if !math.IsNaN(res.Power) {
			powers = append(powers, res.Power)
		}
		if !math.IsNaN(res.ChiSquare) {
			chiSquares = append(chiSquares, res.ChiSquare)
		}
	}

	// stats returns NaN on empty input; empty aggregates stay zero.
	if len(pValues) > 0 {
		summary.PValueMean, _ = stats.Mean(pValues)
		summary.PValueMedian, _ = stats.Median(pValues)
		summary.PValueMin, _ = stats.Min(pValues)
		summary.PValueMax, _ = stats.Max(pValues)
	}
	if len(chiSquares) > 0 {
		summary.ChiSquareMax, _ = stats.Max(chiSquares)
	}
	if len(powers) > 0 {
		summary.PowerMean, _ = stats.Mean(powers)
	}

	return summary
}
