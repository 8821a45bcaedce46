package pricing

import "math"

const (
	ivInitialGuess  = 0.2
	ivMaxIterations = 50
	ivTolerance     = 1e-6
	ivMinVega       = 1e-8
	ivMinSigma      = 0.001
	ivMaxSigma      = 5.0
)

// ImpliedVol is the outcome of a Newton-Raphson volatility search.
// Converged is false when the iteration budget ran out or vega collapsed;
// Sigma then holds the last estimate.
type ImpliedVol struct {
	Sigma      float64 `json:"impliedVolatility"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
}

// ImpliedVolatility solves for the Black-Scholes volatility reproducing
// marketPrice. The Volatility field of c is ignored.
func ImpliedVolatility(c Contract, marketPrice float64) (ImpliedVol, error) {
	c.Volatility = ivInitialGuess
	if err := c.Validate(); err != nil {
		return ImpliedVol{}, err
	}
	if c.Expiry <= 0 {
		return ImpliedVol{}, ErrExpired
	}
	if !(marketPrice > 0) || math.IsInf(marketPrice, 0) {
		return ImpliedVol{}, invalid("market price must be positive, got %v", marketPrice)
	}

	sigma := ivInitialGuess
	for i := 1; i <= ivMaxIterations; i++ {
		cf := newClosedForm(c.WithVolatility(sigma))
		diff := cf.Price() - marketPrice
		if math.Abs(diff) < ivTolerance {
			return ImpliedVol{Sigma: sigma, Iterations: i, Converged: true}, nil
		}
		vega := cf.RawVega()
		if math.Abs(vega) < ivMinVega {
			return ImpliedVol{Sigma: sigma, Iterations: i}, nil
		}
		sigma = math.Min(math.Max(sigma-diff/vega, ivMinSigma), ivMaxSigma)
	}
	return ImpliedVol{Sigma: sigma, Iterations: ivMaxIterations}, nil
}
