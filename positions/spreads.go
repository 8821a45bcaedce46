package positions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bcdannyboy/optpricer/pricing"
)

const (
	BullCallSpread = "bull_call"
	Straddle       = "straddle"
	Strangle       = "strangle"
	IronCondor     = "iron_condor"
)

// Market is the shared pricing environment every leg of a named strategy is
// built in. Model defaults to the closed form. Steps and Bumps only matter for
// trees; a zero Bumps keeps the tree defaults.
type Market struct {
	Spot       float64       `json:"spot" yaml:"spot"`
	Rate       float64       `json:"rate" yaml:"rate"`
	Volatility float64       `json:"volatility" yaml:"volatility"`
	Expiry     float64       `json:"time" yaml:"time"`
	Model      pricing.Kind  `json:"model,omitempty" yaml:"model,omitempty"`
	Steps      int           `json:"steps,omitempty" yaml:"steps,omitempty"`
	Bumps      pricing.Bumps `json:"bumps,omitempty" yaml:"bumps,omitempty"`
}

func (m Market) contract(strike float64, typ pricing.OptionType) pricing.Contract {
	return pricing.Contract{
		Spot:       m.Spot,
		Strike:     strike,
		Rate:       m.Rate,
		Volatility: m.Volatility,
		Expiry:     m.Expiry,
		Type:       typ,
	}
}

func (m Market) option(strike float64, typ pricing.OptionType) (pricing.Option, error) {
	model := m.Model
	if model == "" {
		model = pricing.KindClosedForm
	}
	var opts []pricing.TreeOption
	if m.Bumps != (pricing.Bumps{}) {
		opts = append(opts, pricing.WithBumps(m.Bumps))
	}
	return pricing.New(string(model), m.contract(strike, typ), m.Steps, opts...)
}

type legSpec struct {
	strike   float64
	typ      pricing.OptionType
	quantity int
}

func assemble(name string, m Market, specs []legSpec) (*Strategy, error) {
	s := NewStrategy(name)
	for _, spec := range specs {
		opt, err := m.option(spec.strike, spec.typ)
		if err != nil {
			return nil, err
		}
		if err := s.AddLeg(opt, spec.quantity); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func direction(long bool) int {
	if long {
		return 1
	}
	return -1
}

// NewBullCallSpread buys the kLow call and sells the kHigh call.
func NewBullCallSpread(m Market, kLow, kHigh float64) (*Strategy, error) {
	if !(kLow < kHigh) {
		return nil, fmt.Errorf("%w: bull call spread needs low strike %v below high strike %v", ErrInvalidStrikeOrdering, kLow, kHigh)
	}
	return assemble(BullCallSpread, m, []legSpec{
		{kLow, pricing.Call, 1},
		{kHigh, pricing.Call, -1},
	})
}

func NewStraddle(m Market, strike float64, long bool) (*Strategy, error) {
	q := direction(long)
	return assemble(Straddle, m, []legSpec{
		{strike, pricing.Call, q},
		{strike, pricing.Put, q},
	})
}

// NewStrangle holds an OTM call at kCall and an OTM put at kPut on the same
// side.
func NewStrangle(m Market, kCall, kPut float64, long bool) (*Strategy, error) {
	if !(kPut < kCall) {
		return nil, fmt.Errorf("%w: strangle needs put strike %v below call strike %v", ErrInvalidStrikeOrdering, kPut, kCall)
	}
	q := direction(long)
	return assemble(Strangle, m, []legSpec{
		{kCall, pricing.Call, q},
		{kPut, pricing.Put, q},
	})
}

// NewIronCondor sells the inner put/call pair and buys the outer wings.
func NewIronCondor(m Market, kLongPut, kShortPut, kShortCall, kLongCall float64) (*Strategy, error) {
	if !(kLongPut < kShortPut && kShortPut < kShortCall && kShortCall < kLongCall) {
		return nil, fmt.Errorf("%w: iron condor needs %v < %v < %v < %v", ErrInvalidStrikeOrdering, kLongPut, kShortPut, kShortCall, kLongCall)
	}
	return assemble(IronCondor, m, []legSpec{
		{kShortPut, pricing.Put, -1},
		{kLongPut, pricing.Put, 1},
		{kShortCall, pricing.Call, -1},
		{kLongCall, pricing.Call, 1},
	})
}

type builder func(m Market, k float64, long bool) (*Strategy, error)

// Strikes are placed around a single reference strike k. The long flag only
// applies to straddles and strangles; the spread and condor have a fixed
// direction.
var builders = map[string]builder{
	Straddle: NewStraddle,
	Strangle: func(m Market, k float64, long bool) (*Strategy, error) {
		return NewStrangle(m, 1.05*k, 0.95*k, long)
	},
	BullCallSpread: func(m Market, k float64, _ bool) (*Strategy, error) {
		return NewBullCallSpread(m, k, 1.05*k)
	},
	IronCondor: func(m Market, k float64, _ bool) (*Strategy, error) {
		return NewIronCondor(m, 0.95*k, 0.98*k, 1.02*k, 1.05*k)
	},
}

var aliases = map[string]string{
	"bull_call_spread": BullCallSpread,
	"bullcall":         BullCallSpread,
	"ironcondor":       IronCondor,
}

func canonical(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", "_")
	if a, ok := aliases[n]; ok {
		return a
	}
	return n
}

// Build constructs a named strategy around reference strike k.
func Build(name string, m Market, k float64, long bool) (*Strategy, error) {
	b, ok := builders[canonical(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	if !(k > 0) {
		return nil, fmt.Errorf("%w: strike must be positive, got %v", pricing.ErrInvalidArgument, k)
	}
	return b(m, k, long)
}

// Available lists the names Build accepts, sorted.
func Available() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
