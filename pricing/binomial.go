package pricing

import (
	"math"

	"github.com/bcdannyboy/optpricer/models"
)

// DefaultSteps is the tree resolution used when a caller does not pick one.
const DefaultSteps = 100

type Exercise int

const (
	American Exercise = iota
	European
)

func (e Exercise) String() string {
	if e == European {
		return "european"
	}
	return "american"
}

// Bumps are the finite-difference step sizes used for tree Greeks. Spot is a
// fraction of the spot price, Time is in years, Volatility and Rate are
// absolute.
type Bumps struct {
	Spot       float64 `json:"spot" yaml:"spot"`
	Volatility float64 `json:"volatility" yaml:"volatility"`
	Time       float64 `json:"time" yaml:"time"`
	Rate       float64 `json:"rate" yaml:"rate"`
}

// DefaultBumps: 1% of spot, one vol point, one trading day, one rate point.
var DefaultBumps = Bumps{Spot: 0.01, Volatility: 0.01, Time: 1.0 / 252.0, Rate: 0.01}

func (b Bumps) Validate() error {
	if !(b.Spot > 0 && b.Spot < 1) {
		return invalid("spot bump must be in (0, 1), got %v", b.Spot)
	}
	if !(b.Volatility > 0) || !(b.Time > 0) || !(b.Rate > 0) {
		return invalid("bump sizes must be positive: %+v", b)
	}
	return nil
}

type TreeOption func(*BinomialTree)

func WithBumps(b Bumps) TreeOption {
	return func(bt *BinomialTree) { bt.bumps = b }
}

func WithExercise(e Exercise) TreeOption {
	return func(bt *BinomialTree) { bt.exercise = e }
}

// BinomialTree prices an option on a Cox-Ross-Rubinstein lattice, American
// exercise by default.
//
// Every price costs O(N²). Delta reprices two full trees at S·u and S·d,
// Gamma takes two such deltas (four trees), and Vega, Theta and Rho each run
// two trees at bumped inputs, so Greeks() evaluates twelve trees in total.
// Bound the step count rather than expecting evaluation to be cancellable.
type BinomialTree struct {
	c        Contract
	steps    int
	exercise Exercise
	bumps    Bumps
}

func NewBinomialTree(c Contract, steps int, opts ...TreeOption) (*BinomialTree, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if steps < 1 {
		return nil, invalid("tree steps must be at least 1, got %d", steps)
	}
	bt := &BinomialTree{c: c, steps: steps, exercise: American, bumps: DefaultBumps}
	for _, opt := range opts {
		opt(bt)
	}
	if err := bt.bumps.Validate(); err != nil {
		return nil, err
	}
	return bt, nil
}

func (bt *BinomialTree) Kind() Kind         { return KindBinomialTree }
func (bt *BinomialTree) Contract() Contract { return bt.c }
func (bt *BinomialTree) Steps() int         { return bt.steps }
func (bt *BinomialTree) Exercise() Exercise { return bt.exercise }
func (bt *BinomialTree) Bumps() Bumps       { return bt.bumps }

func (bt *BinomialTree) WithSpot(spot float64) Option {
	return bt.rebuild(bt.c.WithSpot(spot))
}

func (bt *BinomialTree) rebuild(c Contract) *BinomialTree {
	cp := *bt
	cp.c = c
	return &cp
}

type lattice struct {
	u, d, p, disc float64
}

func (bt *BinomialTree) lattice() lattice {
	dt := bt.c.Expiry / float64(bt.steps)
	u := math.Exp(bt.c.Volatility * math.Sqrt(dt))
	d := 1 / u
	growth := math.Exp(bt.c.Rate * dt)
	return lattice{u: u, d: d, p: (growth - d) / (u - d), disc: 1 / growth}
}

// roll runs backward induction and returns the root value.
func (bt *BinomialTree) roll() float64 {
	c, n := bt.c, bt.steps
	l := bt.lattice()

	values := make([]float64, n+1)
	for j := 0; j <= n; j++ {
		values[j] = c.Intrinsic(c.Spot * math.Pow(l.u, float64(n-2*j)))
	}

	for i := n - 1; i >= 0; i-- {
		for j := 0; j <= i; j++ {
			v := l.disc * (l.p*values[j] + (1-l.p)*values[j+1])
			if bt.exercise == American {
				v = math.Max(v, c.Intrinsic(c.Spot*math.Pow(l.u, float64(i-2*j))))
			}
			values[j] = v
		}
	}
	return values[0]
}

func (bt *BinomialTree) Price() float64 {
	if bt.c.Expiry <= 0 {
		return bt.c.Intrinsic(bt.c.Spot)
	}
	return bt.roll()
}

// Delta reprices the whole tree at the first-level spots:
// (V(S·u) - V(S·d)) / (S·(u-d)).
func (bt *BinomialTree) Delta() float64 {
	if bt.c.Expiry <= 0 {
		return math.NaN()
	}
	l := bt.lattice()
	spot := bt.c.Spot
	up := bt.rebuild(bt.c.WithSpot(spot * l.u)).Price()
	down := bt.rebuild(bt.c.WithSpot(spot * l.d)).Price()
	return (up - down) / (spot * (l.u - l.d))
}

func (bt *BinomialTree) Gamma() float64 {
	h := bt.c.Spot * bt.bumps.Spot
	up := bt.rebuild(bt.c.WithSpot(bt.c.Spot + h)).Delta()
	down := bt.rebuild(bt.c.WithSpot(bt.c.Spot - h)).Delta()
	return (up - down) / (2 * h)
}

// Vega per 1% volatility move. Falls back to a forward difference when the
// volatility is not larger than the bump.
func (bt *BinomialTree) Vega() float64 {
	sigma, h := bt.c.Volatility, bt.bumps.Volatility
	up := bt.rebuild(bt.c.WithVolatility(sigma + h)).Price()
	if sigma <= h {
		return (up - bt.Price()) / h / pctScale
	}
	down := bt.rebuild(bt.c.WithVolatility(sigma - h)).Price()
	return (up - down) / (2 * h) / pctScale
}

// Theta per calendar day. Near expiry the backward leg is clamped to T=0.
func (bt *BinomialTree) Theta() float64 {
	t, h := bt.c.Expiry, bt.bumps.Time
	if t <= h {
		expired := bt.c.Intrinsic(bt.c.Spot)
		return (expired - bt.Price()) / t / daysPerYear
	}
	later := bt.rebuild(bt.c.WithExpiry(t + h)).Price()
	sooner := bt.rebuild(bt.c.WithExpiry(t - h)).Price()
	return (sooner - later) / (2 * h) / daysPerYear
}

// Rho per 1% rate move.
func (bt *BinomialTree) Rho() float64 {
	r, h := bt.c.Rate, bt.bumps.Rate
	up := bt.rebuild(bt.c.WithRate(r + h)).Price()
	down := bt.rebuild(bt.c.WithRate(r - h)).Price()
	return (up - down) / (2 * h) / pctScale
}

func (bt *BinomialTree) Greeks() (models.Greeks, error) {
	if bt.c.Expiry <= 0 {
		return models.Greeks{}, ErrExpired
	}
	return models.Greeks{
		Delta: bt.Delta(),
		Gamma: bt.Gamma(),
		Vega:  bt.Vega(),
		Theta: bt.Theta(),
		Rho:   bt.Rho(),
	}, nil
}

func (*BinomialTree) sealed() {}
