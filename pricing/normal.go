package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var invSqrt2Pi = 1 / math.Sqrt(2*math.Pi)

// Density is the standard normal probability density function.
func Density(x float64) float64 {
	return math.Exp(-0.5*x*x) * invSqrt2Pi
}

// Cumulative is the standard normal cumulative distribution function.
func Cumulative(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// Quantile is the inverse of Cumulative for p in (0, 1).
func Quantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}
