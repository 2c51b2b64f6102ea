package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// StatisticalDistributions provides unified access to the distribution math
// the test needs. Every lookup delegates to gonum or the standard math
// package; no CDF or quantile is hand-rolled here.
type StatisticalDistributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *StatisticalDistributions {
	return &StatisticalDistributions{}
}

// ChiSquareQuantile computes the chi-square quantile (inverse CDF) at p
func (sd *StatisticalDistributions) ChiSquareQuantile(p float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return math.NaN()
	}

	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return chiDist.Quantile(p)
}

// ChiSquareCDF computes the chi-square cumulative distribution function
func (sd *StatisticalDistributions) ChiSquareCDF(x float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return math.NaN()
	}

	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return chiDist.CDF(x)
}

// ChiSquarePValue computes the upper-tail p-value for a chi-square statistic.
// An undefined (NaN) statistic yields an undefined p-value without touching
// the CDF.
func (sd *StatisticalDistributions) ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if math.IsNaN(chiSquare) {
		return math.NaN()
	}
	if degreesOfFreedom <= 0 {
		return 1.0
	}

	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return 1 - chiDist.CDF(chiSquare)
}

// NormalCDF computes cumulative distribution function for standard normal
func (sd *StatisticalDistributions) NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalQuantile computes quantile function for standard normal (inverse CDF)
func (sd *StatisticalDistributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// Erfc computes the complementary error function
func (sd *StatisticalDistributions) Erfc(x float64) float64 {
	return math.Erfc(x)
}

// ErfcInv computes the inverse of the complementary error function
func (sd *StatisticalDistributions) ErfcInv(x float64) float64 {
	return math.Erfcinv(x)
}
