package analysis

import (
	"math"

	"mcnemar/domain/mcnemar"
)

// chiSquareDF is fixed: the off-diagonal comparison has a single degree of freedom.
const chiSquareDF = 1

// McNemarComputer runs the matched-pairs chi-square test with Yates'
// continuity correction, plus a retrospective power approximation for the
// two-tailed design. It is stateless and safe for concurrent use.
type McNemarComputer struct {
	dist *StatisticalDistributions
}

// NewComputer creates a new test computer
func NewComputer() *McNemarComputer {
	return &McNemarComputer{
		dist: NewDistributions(),
	}
}

// Compute validates the inputs and produces the full test result. Validation
// failures are fatal and return an error with no result; degenerate
// arithmetic conditions are not errors, they surface as NaN fields plus
// warning codes on the result.
func (mc *McNemarComputer) Compute(table mcnemar.ContingencyTable, alpha float64) (*mcnemar.TestResult, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if err := mcnemar.ValidateAlpha(alpha); err != nil {
		return nil, err
	}

	pair := table.Discordant()
	b, c := pair.B, pair.C

	var warnings []mcnemar.WarningCode

	chiSquare := math.NaN()
	if b+c == 0 {
		warnings = append(warnings,
			mcnemar.WarningNoDiscordantPairs,
			mcnemar.WarningDegenerateStatistic)
	} else {
		// Continuity correction: subtract 1 from |b-c| before squaring.
		diff := math.Abs(b-c) - 1
		chiSquare = diff * diff / (b + c)
	}

	critical := mc.dist.ChiSquareQuantile(1-alpha, chiSquareDF)
	pValue := mc.dist.ChiSquarePValue(chiSquare, chiSquareDF)

	zBeta, power, powerDefined := mc.power(table, alpha)
	if !powerDefined {
		warnings = append(warnings, mcnemar.WarningPowerUndefined)
	}

	return &mcnemar.TestResult{
		ChiSquare:  chiSquare,
		DF:         chiSquareDF,
		Critical:   critical,
		PValue:     pValue,
		Alpha:      alpha,
		ZBeta:      zBeta,
		Power:      power,
		PairCount:  int(table.Total()),
		Table:      table,
		Discordant: pair,
		Warnings:   warnings,
	}, nil
}

// power computes the retrospective two-tailed power approximation from the
// discordant proportion p and the discordant ratio pp. The classical formula
// is reproduced as is: power is reported exactly as the expression yields it,
// even when that lands outside [0, 1]. The third return value is false when
// the quantities are undefined (empty table or a zero discordant cell).
func (mc *McNemarComputer) power(table mcnemar.ContingencyTable, alpha float64) (zBeta, power float64, defined bool) {
	pair := table.Discordant()
	b, c := pair.B, pair.C
	n := table.Total()

	za := math.Abs(-math.Sqrt2 * mc.dist.ErfcInv(alpha))

	// Ratio of the larger to the smaller discordant cell; +Inf whenever
	// either cell is empty.
	pp := math.Inf(1)
	if b > 0 && c > 0 {
		pp = math.Max(b/c, c/b)
	}

	if math.IsInf(pp, 0) || n == 0 {
		return math.NaN(), math.NaN(), false
	}

	p := math.Min(b, c) / n

	num := math.Abs(math.Sqrt(n*p*(pp-1)*(pp-1)) - math.Sqrt(za*za*(pp+1)))
	den := math.Sqrt(pp + 1 - p*(pp-1)*(pp-1))
	zBeta = num / den
	power = (1 - 0.5*mc.dist.Erfc(-zBeta/math.Sqrt2)) * 2
	return zBeta, power, true
}
