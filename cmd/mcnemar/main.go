package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"mcnemar/adapters/excel"
	"mcnemar/domain/mcnemar"
	"mcnemar/internal/analysis"
	"mcnemar/internal/report"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mcnemar",
		Short: "McNemar's matched-pairs chi-square test with Yates' correction",
	}

	rootCmd.AddCommand(
		newComputeCmd(),
		newBatchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newComputeCmd() *cobra.Command {
	var alpha float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compute [a] [b] [c] [d]",
		Short: "Run the test on one 2x2 table of matched-pair counts",
		Long: `Run McNemar's chi-square test on a single 2x2 contingency table.

Cells are given in reading order: a (trait in both pair members), b (first
member only), c (second member only), d (neither member).

Example: mcnemar compute 101 59 121 33 --alpha 0.05`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := parseTable(args)
			if err != nil {
				return err
			}
			return runCompute(table, alpha, asJSON)
		},
	}

	cmd.Flags().Float64Var(&alpha, "alpha", mcnemar.DefaultAlpha, "Significance level, strictly between 0 and 1")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full result as JSON instead of the text report")

	return cmd
}

func newBatchCmd() *cobra.Command {
	var (
		outPath     string
		alpha       float64
		concurrency int
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "batch [input-file]",
		Short: "Run the test on every table in a CSV or Excel file",
		Long: `Run McNemar's chi-square test on every row of a spreadsheet.

The file needs columns a, b, c, d; label and alpha columns are optional.
Rows carrying their own alpha use it, all other rows fall back to --alpha.
With --out the per-table outcomes are written to a CSV or Excel file,
chosen by extension.

Example: mcnemar batch tables.csv --out results.xlsx --alpha 0.05`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), args[0], outPath, alpha, concurrency, asJSON)
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "Write per-table outcomes to this CSV or Excel file")
	cmd.Flags().Float64Var(&alpha, "alpha", mcnemar.DefaultAlpha, "Significance level for rows without their own")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Tables computed in parallel")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit items and summary as JSON instead of text")

	return cmd
}

func parseTable(args []string) (mcnemar.ContingencyTable, error) {
	var cells [4]float64
	names := [4]string{"a", "b", "c", "d"}
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return mcnemar.ContingencyTable{}, fmt.Errorf("cell %s: %q is not a number", names[i], arg)
		}
		cells[i] = v
	}
	return mcnemar.TableFromCounts(cells[0], cells[1], cells[2], cells[3]), nil
}

func runCompute(table mcnemar.ContingencyTable, alpha float64, asJSON bool) error {
	result, err := analysis.NewComputer().Compute(table, alpha)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	// Warnings go to stderr so the three-line report stays clean on stdout.
	fmt.Print(report.Render(result))
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return nil
}

func runBatch(ctx context.Context, inPath, outPath string, alpha float64, concurrency int, asJSON bool) error {
	inputs, err := excel.NewTableReader(inPath).ReadBatch()
	if err != nil {
		return err
	}

	// Rows without their own alpha inherit the flag value.
	for i := range inputs {
		if inputs[i].Alpha == 0 {
			inputs[i].Alpha = alpha
		}
	}

	runner := analysis.NewBatchRunner(int64(concurrency))
	items, err := runner.Run(ctx, inputs)
	if err != nil {
		return err
	}
	summary := analysis.Summarize(items)

	if outPath != "" {
		if err := excel.NewResultWriter(outPath).WriteResults(items); err != nil {
			return fmt.Errorf("failed to write outcomes: %w", err)
		}
	}

	if asJSON {
		data, err := json.MarshalIndent(map[string]interface{}{
			"items":   items,
			"summary": summary,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	printBatch(items, summary)
	return nil
}

func printBatch(items []analysis.BatchItem, summary analysis.BatchSummary) {
	fmt.Printf("=== TABLES ===\n")
	for _, item := range items {
		label := item.Label
		if label == "" {
			label = fmt.Sprintf("table %d", item.Index+1)
		}

		if item.Err != nil {
			fmt.Printf("%d. %s: skipped (%v)\n", item.Index+1, label, item.Err)
			continue
		}

		res := item.Result
		marker := ""
		if res.Significant() {
			marker = " *"
		}
		fmt.Printf("%d. %s: chi2 = %.6f | p = %.6f | power = %.4f%s\n",
			item.Index+1, label, res.ChiSquare, res.PValue, res.Power, marker)
		for _, w := range res.Warnings {
			fmt.Printf("   warning: %s\n", w)
		}
	}

	fmt.Printf("\n=== BATCH SUMMARY ===\n")
	fmt.Printf("Tables: %d | Computed: %d | Failed: %d\n", summary.Items, summary.Computed, summary.Failed)
	fmt.Printf("Significant: %d | Degenerate: %d | Power undefined: %d\n",
		summary.Significant, summary.Degenerate, summary.PowerUndefined)
	if summary.Computed > 0 {
		fmt.Printf("P-value mean: %.6f | median: %.6f | range: %.6f .. %.6f\n",
			summary.PValueMean, summary.PValueMedian, summary.PValueMin, summary.PValueMax)
		fmt.Printf("Max chi-square: %.6f | Mean power: %.4f\n", summary.ChiSquareMax, summary.PowerMean)
	}
}
