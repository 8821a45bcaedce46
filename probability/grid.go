package probability

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/bcdannyboy/optpricer/pricing"
)

const (
	DefaultGridWidth  = 0.2
	DefaultGridPoints = 101
)

// LinearGrid spaces points spot prices evenly over spot·(1±width).
func LinearGrid(spot, width float64, points int) ([]float64, error) {
	if !(spot > 0) || math.IsInf(spot, 0) {
		return nil, fmt.Errorf("%w: grid spot must be positive, got %v", pricing.ErrInvalidArgument, spot)
	}
	if !(width > 0 && width < 1) {
		return nil, fmt.Errorf("%w: grid width must be in (0, 1), got %v", pricing.ErrInvalidArgument, width)
	}
	if points < 2 {
		return nil, fmt.Errorf("%w: grid needs at least 2 points, got %d", pricing.ErrInvalidArgument, points)
	}
	return floats.Span(make([]float64, points), spot*(1-width), spot*(1+width)), nil
}

// LognormalGrid places points at the mid-quantiles (i+0.5)/points of the
// risk-neutral terminal spot distribution after horizon years. The result is
// ascending and deterministic.
func LognormalGrid(spot, vol, horizon, rate float64, points int) ([]float64, error) {
	if !(spot > 0) || !(vol > 0) || !(horizon > 0) {
		return nil, fmt.Errorf("%w: lognormal grid needs positive spot, vol and horizon", pricing.ErrInvalidArgument)
	}
	if points < 1 {
		return nil, fmt.Errorf("%w: grid needs at least 1 point, got %d", pricing.ErrInvalidArgument, points)
	}
	drift := (rate - 0.5*vol*vol) * horizon
	scale := vol * math.Sqrt(horizon)
	grid := make([]float64, points)
	for i := range grid {
		z := pricing.Quantile((float64(i) + 0.5) / float64(points))
		grid[i] = spot * math.Exp(drift+scale*z)
	}
	return grid, nil
}
