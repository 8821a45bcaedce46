package pricing

import (
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Surface is a Greek sampled over a spot × volatility grid. Data[i][j] is
// the value at Spots[i] and Volatilities[j].
type Surface struct {
	Greek        string      `json:"greek"`
	Spots        []float64   `json:"spots"`
	Volatilities []float64   `json:"volatilities"`
	Data         [][]float64 `json:"data"`
}

var surfaceGreeks = map[string]func(*ClosedForm) float64{
	"price": (*ClosedForm).Price,
	"delta": (*ClosedForm).Delta,
	"gamma": (*ClosedForm).Gamma,
	"vega":  (*ClosedForm).Vega,
	"theta": (*ClosedForm).Theta,
	"rho":   (*ClosedForm).Rho,
	"vanna": (*ClosedForm).Vanna,
	"volga": (*ClosedForm).Volga,
	"charm": (*ClosedForm).Charm,
}

// GreekSurface evaluates greek with the closed form over spots from 80% to
// 120% of c.Spot and volatilities from 50% to 200% of c.Volatility, each
// axis holding gridSize+1 points.
func GreekSurface(c Contract, greek string, gridSize int) (Surface, error) {
	if err := c.Validate(); err != nil {
		return Surface{}, err
	}
	if c.Expiry <= 0 {
		return Surface{}, ErrExpired
	}
	name := strings.ToLower(strings.TrimSpace(greek))
	eval, ok := surfaceGreeks[name]
	if !ok {
		return Surface{}, invalid("unknown greek %q", greek)
	}
	if gridSize < 1 {
		return Surface{}, invalid("grid size must be at least 1, got %d", gridSize)
	}

	s := Surface{
		Greek:        name,
		Spots:        floats.Span(make([]float64, gridSize+1), 0.8*c.Spot, 1.2*c.Spot),
		Volatilities: floats.Span(make([]float64, gridSize+1), 0.5*c.Volatility, 2.0*c.Volatility),
		Data:         make([][]float64, gridSize+1),
	}
	for i, spot := range s.Spots {
		row := make([]float64, len(s.Volatilities))
		for j, vol := range s.Volatilities {
			row[j] = eval(newClosedForm(c.WithSpot(spot).WithVolatility(vol)))
		}
		s.Data[i] = row
	}
	return s, nil
}
