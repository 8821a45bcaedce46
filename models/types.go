package models

// Greeks holds the first-order sensitivities of a position. Vega and Rho are
// per 1% move, Theta is per calendar day.
type Greeks struct {
	Delta float64 `json:"delta" yaml:"delta"`
	Gamma float64 `json:"gamma" yaml:"gamma"`
	Vega  float64 `json:"vega" yaml:"vega"`
	Theta float64 `json:"theta" yaml:"theta"`
	Rho   float64 `json:"rho" yaml:"rho"`
}

// Add returns g + o.
func (g Greeks) Add(o Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + o.Delta,
		Gamma: g.Gamma + o.Gamma,
		Vega:  g.Vega + o.Vega,
		Theta: g.Theta + o.Theta,
		Rho:   g.Rho + o.Rho,
	}
}

// Scale returns every sensitivity multiplied by q.
func (g Greeks) Scale(q float64) Greeks {
	return Greeks{
		Delta: q * g.Delta,
		Gamma: q * g.Gamma,
		Vega:  q * g.Vega,
		Theta: q * g.Theta,
		Rho:   q * g.Rho,
	}
}

// PortfolioRisk is a point-in-time risk snapshot of an option portfolio.
type PortfolioRisk struct {
	Greeks              `yaml:",inline"`
	VaR                 float64 `json:"var" yaml:"var"`
	ExpectedShortfall   float64 `json:"expectedShortfall" yaml:"expected_shortfall"`
	MaxLoss             float64 `json:"maxLoss" yaml:"max_loss"`
	ProbabilityOfProfit float64 `json:"probabilityOfProfit" yaml:"probability_of_profit"`
	Confidence          float64 `json:"confidence" yaml:"confidence"`
	Scenarios           int     `json:"scenarios" yaml:"scenarios"`
}
