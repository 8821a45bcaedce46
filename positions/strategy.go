package positions

import (
	"fmt"
	"math"
	"sort"

	"github.com/bcdannyboy/optpricer/models"
	"github.com/bcdannyboy/optpricer/pricing"
	"github.com/bcdannyboy/optpricer/probability"
)

var (
	ErrEmptyStrategy         = fmt.Errorf("%w: strategy has no legs", pricing.ErrInvalidArgument)
	ErrInvalidStrikeOrdering = fmt.Errorf("%w: invalid strike ordering", pricing.ErrInvalidArgument)
	ErrUnknownStrategy       = fmt.Errorf("%w: unknown strategy", pricing.ErrInvalidArgument)
)

// Leg is one option position. EntryPremium is the per-unit price observed
// when the leg was added and is never refreshed.
type Leg struct {
	Option       pricing.Option
	Quantity     int
	EntryPremium float64
}

// Strategy is an ordered set of legs. Prices aggregate the recorded entry
// premiums (cost basis) while Greeks aggregate live values.
type Strategy struct {
	Name string
	legs []Leg
}

func NewStrategy(name string) *Strategy {
	return &Strategy{Name: name}
}

// AddLeg appends opt with a signed quantity: positive is long, negative short.
func (s *Strategy) AddLeg(opt pricing.Option, quantity int) error {
	if opt == nil {
		return fmt.Errorf("%w: nil option", pricing.ErrInvalidArgument)
	}
	if quantity == 0 {
		return fmt.Errorf("%w: leg quantity must be non-zero", pricing.ErrInvalidArgument)
	}
	s.legs = append(s.legs, Leg{Option: opt, Quantity: quantity, EntryPremium: opt.Price()})
	return nil
}

func (s *Strategy) Legs() []Leg {
	out := make([]Leg, len(s.legs))
	copy(out, s.legs)
	return out
}

func (s *Strategy) Validate() error {
	if len(s.legs) == 0 {
		return ErrEmptyStrategy
	}
	return nil
}

// TotalPrice is the net premium paid to open the strategy, negative for a
// net credit.
func (s *Strategy) TotalPrice() float64 {
	total := 0.0
	for _, l := range s.legs {
		total += float64(l.Quantity) * l.EntryPremium
	}
	return total
}

func (s *Strategy) sum(greek func(pricing.Option) float64) float64 {
	total := 0.0
	for _, l := range s.legs {
		total += float64(l.Quantity) * greek(l.Option)
	}
	return total
}

func (s *Strategy) TotalDelta() float64 { return s.sum(pricing.Option.Delta) }
func (s *Strategy) TotalGamma() float64 { return s.sum(pricing.Option.Gamma) }
func (s *Strategy) TotalVega() float64  { return s.sum(pricing.Option.Vega) }
func (s *Strategy) TotalTheta() float64 { return s.sum(pricing.Option.Theta) }
func (s *Strategy) TotalRho() float64   { return s.sum(pricing.Option.Rho) }

func (s *Strategy) Greeks() models.Greeks {
	return models.Greeks{
		Delta: s.TotalDelta(),
		Gamma: s.TotalGamma(),
		Vega:  s.TotalVega(),
		Theta: s.TotalTheta(),
		Rho:   s.TotalRho(),
	}
}

// Payoff is the profit at expiry if the underlying settles at spot.
func (s *Strategy) Payoff(spot float64) float64 {
	total := 0.0
	for _, l := range s.legs {
		total += float64(l.Quantity) * (l.Option.Contract().Intrinsic(spot) - l.EntryPremium)
	}
	return total
}

// Positions exposes the legs to the risk engine, carrying the entry premium
// over as the P&L basis.
func (s *Strategy) Positions() []probability.Position {
	out := make([]probability.Position, len(s.legs))
	for i, l := range s.legs {
		out[i] = probability.Position{Option: l.Option, Quantity: l.Quantity, Entry: l.EntryPremium}
	}
	return out
}

// Strikes returns the distinct leg strikes in ascending order.
func (s *Strategy) Strikes() []float64 {
	seen := make(map[float64]bool)
	var strikes []float64
	for _, l := range s.legs {
		k := l.Option.Contract().Strike
		if !seen[k] {
			seen[k] = true
			strikes = append(strikes, k)
		}
	}
	sort.Float64s(strikes)
	return strikes
}

// PayoffProfile is an expiry payoff diagram over a spot grid.
type PayoffProfile struct {
	Spots      []float64 `json:"spot_prices"`
	Payoffs    []float64 `json:"payoffs"`
	MaxProfit  float64   `json:"max_profit"`
	MaxLoss    float64   `json:"max_loss"`
	Breakevens []float64 `json:"breakevens"`
}

// Profile evaluates Payoff over spots. Breakevens are interpolated linearly
// between neighbouring grid points whose payoffs change sign.
func (s *Strategy) Profile(spots []float64) (PayoffProfile, error) {
	if err := s.Validate(); err != nil {
		return PayoffProfile{}, err
	}
	if len(spots) == 0 {
		return PayoffProfile{}, fmt.Errorf("%w: empty spot grid", pricing.ErrInvalidArgument)
	}

	p := PayoffProfile{
		Spots:     append([]float64(nil), spots...),
		Payoffs:   make([]float64, len(spots)),
		MaxProfit: math.Inf(-1),
		MaxLoss:   math.Inf(1),
	}
	for i, spot := range spots {
		v := s.Payoff(spot)
		p.Payoffs[i] = v
		p.MaxProfit = math.Max(p.MaxProfit, v)
		p.MaxLoss = math.Min(p.MaxLoss, v)
		if i == 0 {
			continue
		}
		prev := p.Payoffs[i-1]
		switch {
		case v == 0:
			p.Breakevens = append(p.Breakevens, spot)
		case prev != 0 && (prev < 0) != (v < 0):
			x0 := spots[i-1]
			p.Breakevens = append(p.Breakevens, x0+(spot-x0)*(-prev)/(v-prev))
		}
	}
	if p.Payoffs[0] == 0 {
		p.Breakevens = append([]float64{spots[0]}, p.Breakevens...)
	}
	return p, nil
}
