package mcnemar

import (
	"encoding/json"
	"math"

	"mcnemar/domain/core"
)

// DefaultAlpha is the significance level used when a caller does not supply one.
const DefaultAlpha = 0.05

// ContingencyTable holds paired dichotomous observations as a 2x2 table of counts.
//
// Layout:
//
//	[0][0] = a  trait present in both members of the pair
//	[0][1] = b  trait present in the first member only
//	[1][0] = c  trait present in the second member only
//	[1][1] = d  trait absent in both members
//
// Cells are float64 so that externally supplied values can be checked for
// finiteness and integrality rather than silently truncated.
type ContingencyTable [2][2]float64

// NewTable builds a validated table from a dynamically shaped matrix, as
// received from JSON or spreadsheet input. The matrix must be exactly 2x2 and
// every cell must be a finite, non-negative integer count.
func NewTable(cells [][]float64) (ContingencyTable, error) {
	var t ContingencyTable
	if len(cells) != 2 {
		return t, core.NewTableError("must have exactly 2 rows")
	}
	for i, row := range cells {
		if len(row) != 2 {
			return t, core.NewTableError("must have exactly 2 columns in every row")
		}
		for j, v := range row {
			t[i][j] = v
		}
	}
	if err := t.Validate(); err != nil {
		return ContingencyTable{}, err
	}
	return t, nil
}

// TableFromCounts builds a table from the four cell counts in a, b, c, d order.
// No validation is performed; Compute validates before using the table.
func TableFromCounts(a, b, c, d float64) ContingencyTable {
	return ContingencyTable{{a, b}, {c, d}}
}

// Validate checks every cell for finiteness, sign and integrality.
func (t ContingencyTable) Validate() error {
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v := t[i][j]
			switch {
			case math.IsNaN(v) || math.IsInf(v, 0):
				return core.NewCellError(i, j, "must be finite")
			case v < 0:
				return core.NewCellError(i, j, "must be non-negative")
			case v != math.Trunc(v):
				return core.NewCellError(i, j, "must be an integer count")
			}
		}
	}
	return nil
}

// Discordant returns the off-diagonal cells b and c, the only cells that carry
// information about marginal change.
func (t ContingencyTable) Discordant() DiscordantPair {
	return DiscordantPair{B: t[0][1], C: t[1][0]}
}

// Total returns the total pair count N (sum of all four cells).
func (t ContingencyTable) Total() float64 {
	return t[0][0] + t[0][1] + t[1][0] + t[1][1]
}

// ValidateAlpha checks that a significance level is usable: finite and strictly
// between 0 and 1, exclusive on both ends.
func ValidateAlpha(alpha float64) error {
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return core.NewAlphaError(alpha, "must be finite")
	}
	if alpha <= 0 || alpha >= 1 {
		return core.NewAlphaError(alpha, "must lie strictly between 0 and 1")
	}
	return nil
}

// WarningCode identifies a non-fatal diagnostic raised during computation.
// Warnings travel with the result; they never abort it.
type WarningCode string

const (
	// WarningNoDiscordantPairs fires when both off-diagonal cells are zero.
	WarningNoDiscordantPairs WarningCode = "NO_DISCORDANT_PAIRS"
	// WarningDegenerateStatistic fires when b+c = 0 makes the chi-square
	// statistic undefined (reported as NaN).
	WarningDegenerateStatistic WarningCode = "DEGENERATE_STATISTIC"
	// WarningPowerUndefined fires when the discordant odds ratio is not finite
	// or the table is empty, leaving Zb and power undefined (NaN).
	WarningPowerUndefined WarningCode = "POWER_UNDEFINED"
)

// DiscordantPair echoes the off-diagonal cells used by the statistic.
type DiscordantPair struct {
	B float64 `json:"b"`
	C float64 `json:"c"`
}

// TestResult is the complete outcome of one McNemar computation. It is a pure
// function of (table, alpha): no identity, no clock, so equal inputs produce
// bit-identical results. Undefined quantities are carried as NaN.
type TestResult struct {
	ChiSquare  float64          `json:"chi_square"`
	DF         int              `json:"df"`
	Critical   float64          `json:"critical"`
	PValue     float64          `json:"p_value"`
	Alpha      float64          `json:"alpha"`
	ZBeta      float64          `json:"z_beta"`
	Power      float64          `json:"power"`
	PairCount  int              `json:"pair_count"`
	Table      ContingencyTable `json:"table"`
	Discordant DiscordantPair   `json:"discordant"`
	Warnings   []WarningCode    `json:"warnings,omitempty"`
}

// resultAlias mirrors TestResult with pointer statistics so the custom JSON
// methods below can write undefined quantities as null without recursing.
type resultAlias struct {
	ChiSquare  *float64         `json:"chi_square"`
	DF         int              `json:"df"`
	Critical   *float64         `json:"critical"`
	PValue     *float64         `json:"p_value"`
	Alpha      float64          `json:"alpha"`
	ZBeta      *float64         `json:"z_beta"`
	Power      *float64         `json:"power"`
	PairCount  int              `json:"pair_count"`
	Table      ContingencyTable `json:"table"`
	Discordant DiscordantPair   `json:"discordant"`
	Warnings   []WarningCode    `json:"warnings,omitempty"`
}

// MarshalJSON writes undefined statistics as JSON null. encoding/json rejects
// NaN outright, and degenerate results legitimately carry it.
func (r TestResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultAlias{
		ChiSquare:  finitePtr(r.ChiSquare),
		DF:         r.DF,
		Critical:   finitePtr(r.Critical),
		PValue:     finitePtr(r.PValue),
		Alpha:      r.Alpha,
		ZBeta:      finitePtr(r.ZBeta),
		Power:      finitePtr(r.Power),
		PairCount:  r.PairCount,
		Table:      r.Table,
		Discordant: r.Discordant,
		Warnings:   r.Warnings,
	})
}

// UnmarshalJSON restores null statistics to NaN.
func (r *TestResult) UnmarshalJSON(data []byte) error {
	var a resultAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	r.ChiSquare = finiteVal(a.ChiSquare)
	r.DF = a.DF
	r.Critical = finiteVal(a.Critical)
	r.PValue = finiteVal(a.PValue)
	r.Alpha = a.Alpha
	r.ZBeta = finiteVal(a.ZBeta)
	r.Power = finiteVal(a.Power)
	r.PairCount = a.PairCount
	r.Table = a.Table
	r.Discordant = a.Discordant
	r.Warnings = a.Warnings
	return nil
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func finiteVal(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// Significant reports whether the statistic exceeds the critical value at the
// result's significance level. A degenerate (NaN) statistic is never
// significant.
func (r *TestResult) Significant() bool {
	if math.IsNaN(r.ChiSquare) {
		return false
	}
	return r.ChiSquare > r.Critical
}

// HasWarning reports whether the given diagnostic was raised.
func (r *TestResult) HasWarning(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w == code {
			return true
		}
	}
	return false
}
