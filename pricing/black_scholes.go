package pricing

import (
	"math"

	"github.com/bcdannyboy/optpricer/models"
)

const (
	daysPerYear = 365.0
	pctScale    = 100.0
)

// ClosedForm prices a European option with the Black-Scholes formula. d1 and
// d2 are computed once at construction and shared by the price and every
// Greek, so all outputs of one contract come from the same pair.
//
// Greeks require Expiry > 0. The per-Greek methods do not check this and
// return whatever the arithmetic yields (usually NaN) at expiry; Greeks()
// reports ErrExpired instead.
type ClosedForm struct {
	c        Contract
	sqrtT    float64
	d1, d2   float64
	discount float64
}

// NewClosedForm validates c and returns its closed-form pricer.
func NewClosedForm(c Contract) (*ClosedForm, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return newClosedForm(c), nil
}

func newClosedForm(c Contract) *ClosedForm {
	cf := &ClosedForm{c: c, discount: math.Exp(-c.Rate * c.Expiry)}
	if c.Expiry > 0 {
		cf.sqrtT = math.Sqrt(c.Expiry)
		cf.d1 = (math.Log(c.Spot/c.Strike) + (c.Rate+0.5*c.Volatility*c.Volatility)*c.Expiry) / (c.Volatility * cf.sqrtT)
		cf.d2 = cf.d1 - c.Volatility*cf.sqrtT
	} else {
		cf.d1, cf.d2 = math.NaN(), math.NaN()
	}
	return cf
}

func (cf *ClosedForm) Kind() Kind         { return KindClosedForm }
func (cf *ClosedForm) Contract() Contract { return cf.c }
func (cf *ClosedForm) D1() float64        { return cf.d1 }
func (cf *ClosedForm) D2() float64        { return cf.d2 }

// WithSpot returns a new closed-form option differing only in spot.
func (cf *ClosedForm) WithSpot(spot float64) Option {
	return newClosedForm(cf.c.WithSpot(spot))
}

// Price collapses to intrinsic value once the contract has expired.
func (cf *ClosedForm) Price() float64 {
	c := cf.c
	if c.Expiry <= 0 {
		return c.Intrinsic(c.Spot)
	}
	if c.Type == Call {
		return c.Spot*Cumulative(cf.d1) - c.Strike*cf.discount*Cumulative(cf.d2)
	}
	return c.Strike*cf.discount*Cumulative(-cf.d2) - c.Spot*Cumulative(-cf.d1)
}

func (cf *ClosedForm) Delta() float64 {
	if cf.c.Type == Call {
		return Cumulative(cf.d1)
	}
	return Cumulative(cf.d1) - 1
}

func (cf *ClosedForm) Gamma() float64 {
	return Density(cf.d1) / (cf.c.Spot * cf.c.Volatility * cf.sqrtT)
}

// RawVega is dPrice/dSigma without the per-1% scaling.
func (cf *ClosedForm) RawVega() float64 {
	return cf.c.Spot * Density(cf.d1) * cf.sqrtT
}

// Vega per 1% volatility move.
func (cf *ClosedForm) Vega() float64 {
	return cf.RawVega() / pctScale
}

// Theta per calendar day.
func (cf *ClosedForm) Theta() float64 {
	c := cf.c
	decay := -c.Spot * Density(cf.d1) * c.Volatility / (2 * cf.sqrtT)
	if c.Type == Call {
		return (decay - c.Rate*c.Strike*cf.discount*Cumulative(cf.d2)) / daysPerYear
	}
	return (decay + c.Rate*c.Strike*cf.discount*Cumulative(-cf.d2)) / daysPerYear
}

// Rho per 1% rate move.
func (cf *ClosedForm) Rho() float64 {
	c := cf.c
	if c.Type == Call {
		return c.Strike * c.Expiry * cf.discount * Cumulative(cf.d2) / pctScale
	}
	return -c.Strike * c.Expiry * cf.discount * Cumulative(-cf.d2) / pctScale
}

// Vanna is dDelta/dSigma.
func (cf *ClosedForm) Vanna() float64 {
	return -Density(cf.d1) * cf.d2 / cf.c.Volatility
}

// Volga is dVega/dSigma on the unscaled vega.
func (cf *ClosedForm) Volga() float64 {
	return cf.RawVega() * cf.d1 * cf.d2 / cf.c.Volatility
}

// Charm is -dDelta/dT, annualized. Without dividends it is the same for
// calls and puts.
func (cf *ClosedForm) Charm() float64 {
	c := cf.c
	return -Density(cf.d1) * (2*c.Rate*c.Expiry - cf.d2*c.Volatility*cf.sqrtT) / (2 * c.Expiry * c.Volatility * cf.sqrtT)
}

func (cf *ClosedForm) Greeks() (models.Greeks, error) {
	if cf.c.Expiry <= 0 {
		return models.Greeks{}, ErrExpired
	}
	return models.Greeks{
		Delta: cf.Delta(),
		Gamma: cf.Gamma(),
		Vega:  cf.Vega(),
		Theta: cf.Theta(),
		Rho:   cf.Rho(),
	}, nil
}

func (*ClosedForm) sealed() {}
