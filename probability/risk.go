package probability

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/bcdannyboy/optpricer/models"
	"github.com/bcdannyboy/optpricer/pricing"
)

// Position is a quantity of an option and the per-unit price it was entered
// at. Scenario P&L is measured against Entry.
type Position struct {
	Option   pricing.Option
	Quantity int
	Entry    float64
}

// NewPosition enters opt at its current price.
func NewPosition(opt pricing.Option, quantity int) Position {
	return Position{Option: opt, Quantity: quantity, Entry: opt.Price()}
}

// Evaluator revalues a portfolio over a spot grid. Scenarios are independent
// and run on up to Workers goroutines; each writes only its own result slot.
// Progress, when set, is called once per finished scenario from the worker
// goroutines and must be safe for concurrent use.
type Evaluator struct {
	Workers  int
	Progress func(done int)
}

// validateScenarios checks what revaluing positions over grid needs.
func validateScenarios(positions []Position, grid []float64) error {
	if len(positions) == 0 {
		return fmt.Errorf("%w: no positions", pricing.ErrInvalidArgument)
	}
	for i, p := range positions {
		if p.Option == nil || p.Quantity == 0 {
			return fmt.Errorf("%w: position %d needs an option and a non-zero quantity", pricing.ErrInvalidArgument, i)
		}
	}
	if len(grid) == 0 {
		return fmt.Errorf("%w: empty spot grid", pricing.ErrInvalidArgument)
	}
	for _, s := range grid {
		if !(s > 0) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: grid spot must be positive, got %v", pricing.ErrInvalidArgument, s)
		}
	}
	return nil
}

func validate(positions []Position, confidence float64, grid []float64) error {
	if err := validateScenarios(positions, grid); err != nil {
		return err
	}
	if !(confidence > 0 && confidence < 1) {
		return fmt.Errorf("%w: confidence must be in (0, 1), got %v", pricing.ErrInvalidArgument, confidence)
	}
	return nil
}

// Scenarios returns the portfolio P&L at every grid spot, in grid order.
func (e Evaluator) Scenarios(ctx context.Context, positions []Position, grid []float64) ([]float64, error) {
	if err := validateScenarios(positions, grid); err != nil {
		return nil, err
	}
	workers := e.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	pnl := make([]float64, len(grid))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, spot := range grid {
		i, spot := i, spot
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			total := 0.0
			for _, p := range positions {
				total += float64(p.Quantity) * (p.Option.WithSpot(spot).Price() - p.Entry)
			}
			pnl[i] = total
			if e.Progress != nil {
				e.Progress(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pnl, nil
}

// Compute evaluates the grid and reduces it to a PortfolioRisk. Greeks are the
// live quantity-weighted sums at the positions' own spots.
func (e Evaluator) Compute(ctx context.Context, positions []Position, confidence float64, grid []float64) (models.PortfolioRisk, error) {
	if err := validate(positions, confidence, grid); err != nil {
		return models.PortfolioRisk{}, err
	}

	var greeks models.Greeks
	for _, p := range positions {
		g, err := p.Option.Greeks()
		if err != nil {
			return models.PortfolioRisk{}, err
		}
		greeks = greeks.Add(g.Scale(float64(p.Quantity)))
	}

	pnl, err := e.Scenarios(ctx, positions, grid)
	if err != nil {
		return models.PortfolioRisk{}, err
	}
	losses := lossesFrom(pnl)

	return models.PortfolioRisk{
		Greeks:              greeks,
		VaR:                 CalculateVaR(losses, confidence),
		ExpectedShortfall:   CalculateExpectedShortfall(losses, confidence),
		MaxLoss:             CalculateMaxLoss(losses),
		ProbabilityOfProfit: CalculateProbabilityOfProfit(pnl),
		Confidence:          confidence,
		Scenarios:           len(grid),
	}, nil
}

// ComputePortfolioRisk runs Compute with a default Evaluator.
func ComputePortfolioRisk(positions []Position, confidence float64, grid []float64) (models.PortfolioRisk, error) {
	return Evaluator{}.Compute(context.Background(), positions, confidence, grid)
}
