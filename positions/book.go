package positions

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bcdannyboy/optpricer/pricing"
)

// LegSpec describes one leg of a portfolio as it arrives over the wire or in
// a book file. Model is a pricing kind name ("european", "american", ...).
type LegSpec struct {
	Model      string  `json:"type" yaml:"type"`
	OptionType string  `json:"optionType" yaml:"option_type"`
	Strike     float64 `json:"strike" yaml:"strike"`
	Volatility float64 `json:"volatility" yaml:"volatility"`
	Time       float64 `json:"time" yaml:"time"`
	Quantity   int     `json:"quantity" yaml:"quantity"`
	Steps      int     `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// Book is a portfolio of legs sharing one underlying spot and rate.
type Book struct {
	Name string    `json:"name,omitempty" yaml:"name,omitempty"`
	Spot float64   `json:"spot" yaml:"spot"`
	Rate float64   `json:"rate" yaml:"rate"`
	Legs []LegSpec `json:"legs" yaml:"legs"`
}

func (l LegSpec) Option(spot, rate float64) (pricing.Option, error) {
	typ, err := pricing.ParseOptionType(l.OptionType)
	if err != nil {
		return nil, err
	}
	return pricing.New(l.Model, pricing.Contract{
		Spot:       spot,
		Strike:     l.Strike,
		Rate:       rate,
		Volatility: l.Volatility,
		Expiry:     l.Time,
		Type:       typ,
	}, l.Steps)
}

// Strategy prices every leg and assembles them in file order.
func (b Book) Strategy() (*Strategy, error) {
	if len(b.Legs) == 0 {
		return nil, ErrEmptyStrategy
	}
	name := b.Name
	if name == "" {
		name = "portfolio"
	}
	s := NewStrategy(name)
	for i, spec := range b.Legs {
		opt, err := spec.Option(b.Spot, b.Rate)
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i, err)
		}
		if err := s.AddLeg(opt, spec.Quantity); err != nil {
			return nil, fmt.Errorf("leg %d: %w", i, err)
		}
	}
	return s, nil
}

func LoadBook(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Book
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse book %s: %w", path, err)
	}
	return &b, nil
}
