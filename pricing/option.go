package pricing

import (
	"strings"

	"github.com/bcdannyboy/optpricer/models"
)

type Kind string

const (
	KindClosedForm   Kind = "closed-form"
	KindBinomialTree Kind = "binomial-tree"
)

// Option is implemented only by *ClosedForm and *BinomialTree. Values are
// immutable: revaluing at another spot goes through WithSpot, which returns a
// new Option of the same variant.
type Option interface {
	Kind() Kind
	Contract() Contract

	Price() float64
	Delta() float64
	Gamma() float64
	Vega() float64
	Theta() float64
	Rho() float64
	Greeks() (models.Greeks, error)

	WithSpot(spot float64) Option

	sealed()
}

// ParseKind maps a kind name, including the "european"/"american" aliases,
// to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case string(KindClosedForm), "european", "european_option":
		return KindClosedForm, nil
	case string(KindBinomialTree), "american", "american_option":
		return KindBinomialTree, nil
	}
	return "", ErrUnknownKind
}

// New builds an Option of the named kind. steps is ignored by the closed form;
// for trees 0 selects DefaultSteps.
func New(kind string, c Contract, steps int, opts ...TreeOption) (Option, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	switch k {
	case KindBinomialTree:
		if steps == 0 {
			steps = DefaultSteps
		}
		bt, err := NewBinomialTree(c, steps, opts...)
		if err != nil {
			return nil, err
		}
		return bt, nil
	default:
		cf, err := NewClosedForm(c)
		if err != nil {
			return nil, err
		}
		return cf, nil
	}
}
