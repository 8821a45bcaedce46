package pricing

import (
	"errors"
	"math"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func atm(t OptionType) Contract {
	return Contract{Spot: 100, Strike: 100, Rate: 0.05, Volatility: 0.2, Expiry: 1, Type: t}
}

func mustClosedForm(t *testing.T, c Contract) *ClosedForm {
	t.Helper()
	cf, err := NewClosedForm(c)
	if err != nil {
		t.Fatalf("NewClosedForm(%+v) returned error: %v", c, err)
	}
	return cf
}

func TestNormalDistribution(t *testing.T) {
	if !approxEqual(Cumulative(0), 0.5, 1e-15) {
		t.Fatalf("Cumulative(0) = %v", Cumulative(0))
	}
	if !approxEqual(Density(0), 0.3989422804014327, 1e-15) {
		t.Fatalf("Density(0) = %v", Density(0))
	}
	for _, x := range []float64{-3, -1.2, 0.35, 2.5} {
		if !approxEqual(Cumulative(x)+Cumulative(-x), 1, 1e-15) {
			t.Errorf("Cumulative symmetry broken at %v", x)
		}
		if !approxEqual(Quantile(Cumulative(x)), x, 1e-9) {
			t.Errorf("Quantile(Cumulative(%v)) = %v", x, Quantile(Cumulative(x)))
		}
	}
}

func TestClosedFormReferenceScenario(t *testing.T) {
	call := mustClosedForm(t, atm(Call))
	put := mustClosedForm(t, atm(Put))

	checks := []struct {
		name      string
		got, want float64
		tol       float64
	}{
		{"d1", call.D1(), 0.35, 1e-12},
		{"d2", call.D2(), 0.15, 1e-12},
		{"call price", call.Price(), 10.450583572185565, 1e-9},
		{"put price", put.Price(), 5.573526022256971, 1e-9},
		{"call delta", call.Delta(), 0.636831, 1e-6},
		{"gamma", call.Gamma(), 0.018762, 1e-6},
		{"raw vega", call.RawVega(), 37.524, 1e-3},
		{"vega per 1%", call.Vega(), 0.37524, 1e-5},
		{"call theta per day", call.Theta(), -6.414028 / 365, 1e-6},
		{"call rho per 1%", call.Rho(), 0.532325, 1e-5},
		{"put rho per 1%", put.Rho(), -0.418905, 1e-5},
	}
	for _, c := range checks {
		if !approxEqual(c.got, c.want, c.tol) {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestPutCallParity(t *testing.T) {
	for _, c := range []Contract{
		{Spot: 100, Strike: 100, Rate: 0.05, Volatility: 0.2, Expiry: 1},
		{Spot: 80, Strike: 110, Rate: 0.01, Volatility: 0.45, Expiry: 0.25},
		{Spot: 250, Strike: 180, Rate: 0.08, Volatility: 0.1, Expiry: 3},
		{Spot: 42, Strike: 40, Rate: 0, Volatility: 0.6, Expiry: 0.05},
	} {
		c.Type = Call
		call := mustClosedForm(t, c)
		c.Type = Put
		put := mustClosedForm(t, c)

		lhs := call.Price() - put.Price()
		rhs := c.Spot - c.Strike*math.Exp(-c.Rate*c.Expiry)
		if math.Abs(lhs-rhs) > 1e-6*math.Max(1, math.Abs(rhs)) {
			t.Errorf("parity violated for %+v: C-P=%v, S-Ke^-rT=%v", c, lhs, rhs)
		}
		if !approxEqual(call.Delta()-put.Delta(), 1, 1e-12) {
			t.Errorf("delta(call)-delta(put) = %v for %+v", call.Delta()-put.Delta(), c)
		}
		if call.Gamma() <= 0 || put.Gamma() <= 0 || call.Vega() <= 0 || put.Vega() <= 0 {
			t.Errorf("gamma and vega must be positive for %+v", c)
		}
		if call.Gamma() != put.Gamma() || call.Vega() != put.Vega() {
			t.Errorf("gamma and vega must not depend on option type for %+v", c)
		}
	}
}

func TestClosedFormMonotonicity(t *testing.T) {
	prev := 0.0
	for s := 60.0; s <= 140; s += 5 {
		p := mustClosedForm(t, atm(Call).WithSpot(s)).Price()
		if p <= prev {
			t.Fatalf("call price not increasing in spot at %v: %v <= %v", s, p, prev)
		}
		prev = p
	}

	prev = 0
	for v := 0.05; v <= 1.0; v += 0.05 {
		p := mustClosedForm(t, atm(Call).WithVolatility(v)).Price()
		if p <= prev {
			t.Fatalf("call price not increasing in volatility at %v: %v <= %v", v, p, prev)
		}
		prev = p
	}

	prev = 0
	for k := 60.0; k <= 140; k += 5 {
		c := atm(Put)
		c.Strike = k
		p := mustClosedForm(t, c).Price()
		if p <= prev {
			t.Fatalf("put price not increasing in strike at %v: %v <= %v", k, p, prev)
		}
		prev = p
	}
}

func TestClosedFormAtExpiry(t *testing.T) {
	c := Contract{Spot: 90, Strike: 100, Rate: 0.05, Volatility: 0.2, Expiry: 0, Type: Put}
	put := mustClosedForm(t, c)
	if put.Price() != 10 {
		t.Fatalf("expired put should be worth intrinsic 10, got %v", put.Price())
	}
	c.Type = Call
	call := mustClosedForm(t, c)
	if call.Price() != 0 {
		t.Fatalf("expired OTM call should be worthless, got %v", call.Price())
	}
	if _, err := call.Greeks(); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired from Greeks at T=0, got %v", err)
	}
}

func TestClosedFormGreeksMatchMethods(t *testing.T) {
	put := mustClosedForm(t, atm(Put))
	g, err := put.Greeks()
	if err != nil {
		t.Fatalf("Greeks returned error: %v", err)
	}
	if g.Delta != put.Delta() || g.Gamma != put.Gamma() || g.Vega != put.Vega() || g.Theta != put.Theta() || g.Rho != put.Rho() {
		t.Fatalf("Greeks() disagrees with per-greek methods: %+v", g)
	}
}

func TestSecondOrderGreeks(t *testing.T) {
	c := atm(Call)
	cf := mustClosedForm(t, c)
	h := 1e-4

	up := mustClosedForm(t, c.WithVolatility(c.Volatility+h))
	down := mustClosedForm(t, c.WithVolatility(c.Volatility-h))
	if fd := (up.Delta() - down.Delta()) / (2 * h); !approxEqual(cf.Vanna(), fd, 1e-5) {
		t.Errorf("vanna %v disagrees with finite difference %v", cf.Vanna(), fd)
	}
	if fd := (up.RawVega() - down.RawVega()) / (2 * h); !approxEqual(cf.Volga(), fd, 1e-3) {
		t.Errorf("volga %v disagrees with finite difference %v", cf.Volga(), fd)
	}

	later := mustClosedForm(t, c.WithExpiry(c.Expiry+h))
	sooner := mustClosedForm(t, c.WithExpiry(c.Expiry-h))
	if fd := -(later.Delta() - sooner.Delta()) / (2 * h); !approxEqual(cf.Charm(), fd, 1e-5) {
		t.Errorf("charm %v disagrees with finite difference %v", cf.Charm(), fd)
	}
}

func TestContractValidate(t *testing.T) {
	base := atm(Call)
	cases := map[string]Contract{
		"zero spot":       base.WithSpot(0),
		"negative strike": func() Contract { c := base; c.Strike = -1; return c }(),
		"zero volatility": base.WithVolatility(0),
		"negative expiry": base.WithExpiry(-0.1),
		"nan rate":        base.WithRate(math.NaN()),
		"unknown type":    func() Contract { c := base; c.Type = "straddle"; return c }(),
		"infinite spot":   base.WithSpot(math.Inf(1)),
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewClosedForm(c); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
	if _, err := NewClosedForm(base.WithRate(-0.01)); err != nil {
		t.Fatalf("negative rate is left to the boundary, got %v", err)
	}
}

func TestParseOptionType(t *testing.T) {
	if typ, err := ParseOptionType(" PUT "); err != nil || typ != Put {
		t.Fatalf("ParseOptionType(PUT) = %v, %v", typ, err)
	}
	if _, err := ParseOptionType("straddle"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
