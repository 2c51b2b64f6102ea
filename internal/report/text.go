// Package report renders computed results for terminals and logs. Rendering
// is a separate step from computing: callers that want structured data never
// pay for string formatting, and the layout here can stay frozen for
// downstream consumers that parse it.
package report

import (
	"fmt"
	"strings"

	"mcnemar/domain/mcnemar"
)

// The three-line layout is a compatibility contract: spacing, labels and
// precision must not change. NaN fields print as "NaN".
const (
	criticalLine  = "Critical value at %.0f%% significance level = %.4f\n"
	statisticLine = "McNemar chi-square (with Yates' correction) = %.6f    p = %.6f\n"
	powerLine     = "alpha = %.4f  Zb = %.4f  Power (2-tails) = %.4f\n"
)

// Render produces the fixed three-line text block for one result.
func Render(res *mcnemar.TestResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, criticalLine, (1-res.Alpha)*100, res.Critical)
	fmt.Fprintf(&sb, statisticLine, res.ChiSquare, res.PValue)
	fmt.Fprintf(&sb, powerLine, res.Alpha, res.ZBeta, res.Power)
	return sb.String()
}
