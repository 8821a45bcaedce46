package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gonum.org/v1/gonum/floats"

	"github.com/bcdannyboy/optpricer/metrics"
	"github.com/bcdannyboy/optpricer/positions"
	"github.com/bcdannyboy/optpricer/pricing"
	"github.com/bcdannyboy/optpricer/probability"
)

const defaultPayoffSteps = 100

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, pricing.ErrInvalidArgument) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_argument"})
		return
	}
	s.log.Error().Err(err).Str("route", route(c)).Msg("request failed")
	c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error(), Code: "internal"})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "bad_request"})
}

func modelName(model string) string {
	if model == "" {
		return "european"
	}
	return model
}

// option builds an option with the configured tree defaults. steps of 0
// selects the configured step count.
func (s *Server) option(model string, c pricing.Contract, steps int) (pricing.Option, error) {
	if steps == 0 {
		steps = s.cfg.Pricing.Steps
	}
	if steps > s.cfg.Server.MaxSteps {
		return nil, fmt.Errorf("%w: steps %d exceeds limit %d", pricing.ErrInvalidArgument, steps, s.cfg.Server.MaxSteps)
	}
	opt, err := pricing.New(modelName(model), c, steps, pricing.WithBumps(s.cfg.Pricing.Bumps))
	if err != nil {
		return nil, err
	}
	metrics.OptionsPriced.WithLabelValues(string(opt.Kind())).Inc()
	return opt, nil
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) ListStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": positions.Available()})
}

func (s *Server) PriceOption(c *gin.Context) {
	var req PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	typ, err := pricing.ParseOptionType(req.Type)
	if err != nil {
		s.fail(c, err)
		return
	}
	opt, err := s.option(req.Model, pricing.Contract{
		Spot:       req.Spot,
		Strike:     req.Strike,
		Rate:       *req.Rate,
		Volatility: req.Volatility,
		Expiry:     req.Time,
		Type:       typ,
	}, req.Steps)
	if err != nil {
		s.fail(c, err)
		return
	}
	greeks, err := opt.Greeks()
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, PriceResponse{
		Greeks: greeks,
		Price:  opt.Price(),
		Spot:   req.Spot,
		Strike: req.Strike,
		Type:   string(typ),
		Model:  modelName(req.Model),
		Kind:   string(opt.Kind()),
	})
}

func legResponses(strat *positions.Strategy, names []string) []LegResponse {
	legs := strat.Legs()
	out := make([]LegResponse, len(legs))
	for i, l := range legs {
		c := l.Option.Contract()
		out[i] = LegResponse{
			OptionType: string(c.Type),
			Model:      names[i],
			Strike:     c.Strike,
			Price:      l.EntryPremium,
			Quantity:   l.Quantity,
		}
		out[i].Delta = l.Option.Delta()
		out[i].Gamma = l.Option.Gamma()
		out[i].Vega = l.Option.Vega()
		out[i].Theta = l.Option.Theta()
		out[i].Rho = l.Option.Rho()
	}
	return out
}

// payoffGrid spans 70% to 130% of spot in steps intervals.
func payoffGrid(spot float64, steps int) []float64 {
	if steps <= 0 {
		steps = defaultPayoffSteps
	}
	return floats.Span(make([]float64, steps+1), 0.7*spot, 1.3*spot)
}

func (s *Server) PriceStrategy(c *gin.Context) {
	var req StrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Steps > s.cfg.Server.MaxSteps {
		s.fail(c, fmt.Errorf("%w: steps %d exceeds limit %d", pricing.ErrInvalidArgument, req.Steps, s.cfg.Server.MaxSteps))
		return
	}
	long := req.IsLong == nil || *req.IsLong

	kind, err := pricing.ParseKind(modelName(req.Model))
	if err != nil {
		s.fail(c, err)
		return
	}
	steps := req.Steps
	if steps == 0 {
		steps = s.cfg.Pricing.Steps
	}
	m := positions.Market{
		Spot:       req.Spot,
		Rate:       *req.Rate,
		Volatility: req.Volatility,
		Expiry:     req.Time,
		Model:      kind,
		Steps:      steps,
		Bumps:      s.cfg.Pricing.Bumps,
	}
	strat, err := positions.Build(req.Strategy, m, req.Strike, long)
	if err != nil {
		s.fail(c, err)
		return
	}
	profile, err := strat.Profile(payoffGrid(req.Spot, defaultPayoffSteps))
	if err != nil {
		s.fail(c, err)
		return
	}
	legs := strat.Legs()
	names := make([]string, len(legs))
	for i := range names {
		names[i] = modelName(req.Model)
	}
	metrics.OptionsPriced.WithLabelValues(string(kind)).Add(float64(len(legs)))

	c.JSON(http.StatusOK, StrategyResponse{
		Greeks:   strat.Greeks(),
		Strategy: strat.Name,
		IsLong:   long,
		Price:    strat.TotalPrice(),
		NumLegs:  len(legs),
		Legs:     legResponses(strat, names),
		Payoff:   profile,
		Status:   "success",
	})
}

// portfolio assembles the request legs into a strategy and returns the
// model name used for each leg.
func (s *Server) portfolio(req PortfolioRequest) (*positions.Strategy, []string, error) {
	strat := positions.NewStrategy("portfolio")
	names := make([]string, len(req.Legs))
	for i, leg := range req.Legs {
		optionType := leg.OptionType
		if optionType == "" {
			optionType = string(pricing.Call)
		}
		typ, err := pricing.ParseOptionType(optionType)
		if err != nil {
			return nil, nil, fmt.Errorf("leg %d: %w", i, err)
		}
		quantity := 1
		if leg.Quantity != nil {
			quantity = *leg.Quantity
		}
		opt, err := s.option(leg.Type, pricing.Contract{
			Spot:       req.Spot,
			Strike:     leg.Strike,
			Rate:       *req.Rate,
			Volatility: leg.Volatility,
			Expiry:     leg.Time,
			Type:       typ,
		}, leg.Steps)
		if err != nil {
			return nil, nil, fmt.Errorf("leg %d: %w", i, err)
		}
		if err := strat.AddLeg(opt, quantity); err != nil {
			return nil, nil, fmt.Errorf("leg %d: %w", i, err)
		}
		names[i] = modelName(leg.Type)
	}
	return strat, names, nil
}

func (s *Server) PricePortfolio(c *gin.Context) {
	var req PortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	strat, names, err := s.portfolio(req)
	if err != nil {
		s.fail(c, err)
		return
	}
	profile, err := strat.Profile(payoffGrid(req.Spot, req.PayoffSteps))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, PortfolioResponse{
		Portfolio: Portfolio{
			Spot:       req.Spot,
			TotalPrice: strat.TotalPrice(),
			Greeks:     strat.Greeks(),
			Legs:       legResponses(strat, names),
			Payoff:     profile,
		},
		Status: "success",
	})
}

func (s *Server) PortfolioRisk(c *gin.Context) {
	var req RiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	strat, _, err := s.portfolio(req.PortfolioRequest)
	if err != nil {
		s.fail(c, err)
		return
	}

	rc := s.cfg.Risk
	if req.Confidence != 0 {
		rc.Confidence = req.Confidence
	}
	if req.Grid != "" {
		rc.Grid = req.Grid
	}
	if req.GridWidth != 0 {
		rc.GridWidth = req.GridWidth
	}
	if req.GridPoints != 0 {
		rc.GridPoints = req.GridPoints
	}
	if rc.GridPoints > s.cfg.Server.MaxGrid {
		s.fail(c, fmt.Errorf("%w: grid points %d exceed limit %d", pricing.ErrInvalidArgument, rc.GridPoints, s.cfg.Server.MaxGrid))
		return
	}
	grid, err := rc.SpotGrid(req.Spot, averageVol(req.Legs), *req.Rate)
	if err != nil {
		s.fail(c, err)
		return
	}

	ev := probability.Evaluator{Workers: rc.Workers}
	risk, err := ev.Compute(c.Request.Context(), strat.Positions(), rc.Confidence, grid)
	if err != nil {
		s.fail(c, err)
		return
	}
	metrics.RiskScenarios.Add(float64(len(grid)))

	c.JSON(http.StatusOK, RiskResponse{Risk: risk, Grid: grid, Status: "success"})
}

// averageVol is the quantity-weighted mean leg volatility, used to size the
// lognormal grid.
func averageVol(legs []PortfolioLeg) float64 {
	var sum, weight float64
	for _, l := range legs {
		w := 1.0
		if l.Quantity != nil && *l.Quantity != 0 {
			w = float64(*l.Quantity)
			if w < 0 {
				w = -w
			}
		}
		sum += w * l.Volatility
		weight += w
	}
	if weight == 0 {
		return 0
	}
	return sum / weight
}

func (s *Server) GreekSurface(c *gin.Context) {
	var q SurfaceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	if q.Type == "" {
		q.Type = string(pricing.Call)
	}
	if q.Greek == "" {
		q.Greek = "delta"
	}
	if q.GridSize == 0 {
		q.GridSize = 20
	}
	if q.GridSize > s.cfg.Server.MaxGrid {
		s.fail(c, fmt.Errorf("%w: grid size %d exceeds limit %d", pricing.ErrInvalidArgument, q.GridSize, s.cfg.Server.MaxGrid))
		return
	}
	typ, err := pricing.ParseOptionType(q.Type)
	if err != nil {
		s.fail(c, err)
		return
	}
	surface, err := pricing.GreekSurface(pricing.Contract{
		Spot:       q.Spot,
		Strike:     q.Strike,
		Rate:       q.Rate,
		Volatility: q.Volatility,
		Expiry:     q.Time,
		Type:       typ,
	}, q.Greek, q.GridSize)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, surface)
}

func (s *Server) ImpliedVol(c *gin.Context) {
	var req ImpliedVolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	typ, err := pricing.ParseOptionType(req.Type)
	if err != nil {
		s.fail(c, err)
		return
	}
	iv, err := pricing.ImpliedVolatility(pricing.Contract{
		Spot:   req.Spot,
		Strike: req.Strike,
		Rate:   *req.Rate,
		Expiry: req.Time,
		Type:   typ,
	}, req.MarketPrice)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !iv.Converged {
		s.log.Debug().Float64("sigma", iv.Sigma).Int("iterations", iv.Iterations).Msg("implied vol did not converge")
	}
	c.JSON(http.StatusOK, ImpliedVolResponse{ImpliedVol: iv, Status: "success"})
}
