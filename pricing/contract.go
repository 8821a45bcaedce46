package pricing

import (
	"math"
	"strings"
)

type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts "call"/"put" in any case.
func ParseOptionType(s string) (OptionType, error) {
	switch OptionType(strings.ToLower(strings.TrimSpace(s))) {
	case Call:
		return Call, nil
	case Put:
		return Put, nil
	}
	return "", ErrUnknownType
}

// Contract is the immutable parameter record every Option is priced from.
// Expiry is in years; Rate and Volatility are annualized decimals.
type Contract struct {
	Spot       float64    `json:"spot" yaml:"spot"`
	Strike     float64    `json:"strike" yaml:"strike"`
	Rate       float64    `json:"rate" yaml:"rate"`
	Volatility float64    `json:"volatility" yaml:"volatility"`
	Expiry     float64    `json:"time" yaml:"time"`
	Type       OptionType `json:"optionType" yaml:"option_type"`
}

// Validate rejects non-positive spot, strike or volatility, negative expiry,
// non-finite inputs and unknown option types. A negative rate is left to the
// caller's boundary.
func (c Contract) Validate() error {
	for name, v := range map[string]float64{
		"spot": c.Spot, "strike": c.Strike, "rate": c.Rate,
		"volatility": c.Volatility, "time": c.Expiry,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("%s must be finite, got %v", name, v)
		}
	}
	if c.Spot <= 0 {
		return invalid("spot must be positive, got %v", c.Spot)
	}
	if c.Strike <= 0 {
		return invalid("strike must be positive, got %v", c.Strike)
	}
	if c.Volatility <= 0 {
		return invalid("volatility must be positive, got %v", c.Volatility)
	}
	if c.Expiry < 0 {
		return invalid("time to expiry must not be negative, got %v", c.Expiry)
	}
	if c.Type != Call && c.Type != Put {
		return ErrUnknownType
	}
	return nil
}

// Intrinsic is the exercise value of the contract at the given spot.
func (c Contract) Intrinsic(spot float64) float64 {
	if c.Type == Call {
		return math.Max(0, spot-c.Strike)
	}
	return math.Max(0, c.Strike-spot)
}

func (c Contract) WithSpot(spot float64) Contract {
	c.Spot = spot
	return c
}

func (c Contract) WithVolatility(sigma float64) Contract {
	c.Volatility = sigma
	return c
}

func (c Contract) WithRate(r float64) Contract {
	c.Rate = r
	return c
}

func (c Contract) WithExpiry(t float64) Contract {
	c.Expiry = t
	return c
}
