package pricing

// rebuild returns an Option of the same variant and settings priced from c.
func rebuild(opt Option, c Contract) Option {
	switch o := opt.(type) {
	case *BinomialTree:
		return o.rebuild(c)
	case *ClosedForm:
		return newClosedForm(c)
	}
	panic("pricing: unknown option variant")
}

// ShadowGamma measures how delta moves when spot and volatility shift
// together, the way skew tends to move them. It returns the up and down
// shadow gammas for relative shifts priceChange and volChange. priceChange
// must lie in (0, 1) and volChange in [0, 1).
func ShadowGamma(opt Option, priceChange, volChange float64) (up, down float64, err error) {
	if !(priceChange > 0 && priceChange < 1) {
		return 0, 0, invalid("price change must be in (0, 1), got %v", priceChange)
	}
	if !(volChange >= 0 && volChange < 1) {
		return 0, 0, invalid("vol change must be in [0, 1), got %v", volChange)
	}
	c := opt.Contract()
	baseDelta := opt.Delta()

	upS := c.Spot * (1 + priceChange)
	upDelta := rebuild(opt, c.WithSpot(upS).WithVolatility(c.Volatility*(1+volChange))).Delta()
	up = (upDelta - baseDelta) / (upS - c.Spot)

	downS := c.Spot * (1 - priceChange)
	downDelta := rebuild(opt, c.WithSpot(downS).WithVolatility(c.Volatility*(1-volChange))).Delta()
	down = (baseDelta - downDelta) / (c.Spot - downS)

	return up, down, nil
}

// SkewGamma is the central difference of vega in volatility (volga), in
// per-1% vega units per unit of volatility. volStep must be positive and
// below the option's volatility.
func SkewGamma(opt Option, volStep float64) (float64, error) {
	c := opt.Contract()
	if !(volStep > 0 && volStep < c.Volatility) {
		return 0, invalid("vol step must be in (0, %v), got %v", c.Volatility, volStep)
	}
	vegaUp := rebuild(opt, c.WithVolatility(c.Volatility+volStep)).Vega()
	vegaDown := rebuild(opt, c.WithVolatility(c.Volatility-volStep)).Vega()
	return (vegaUp - vegaDown) / (2 * volStep), nil
}
