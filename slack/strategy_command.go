package optslack

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/bcdannyboy/optpricer/config"
	"github.com/bcdannyboy/optpricer/metrics"
	"github.com/bcdannyboy/optpricer/models"
	"github.com/bcdannyboy/optpricer/positions"
	"github.com/bcdannyboy/optpricer/pricing"
	"github.com/bcdannyboy/optpricer/probability"
)

const strategyUsage = "Usage: /strategy <name> <spot> <strike> <rate> <vol> <years> [long|short]"

// StrategyArgs is a parsed /strategy command.
type StrategyArgs struct {
	Name   string
	Market positions.Market
	Strike float64
	Long   bool
}

func ParseStrategyArgs(text string) (StrategyArgs, error) {
	args := strings.Fields(text)
	if len(args) != 6 && len(args) != 7 {
		return StrategyArgs{}, fmt.Errorf("%w: expected 6 or 7 arguments, got %d", pricing.ErrInvalidArgument, len(args))
	}
	v, err := parseFloats([]string{"spot", "strike", "rate", "vol", "years"}, args[1:6])
	if err != nil {
		return StrategyArgs{}, err
	}
	if err := checkBoundary(v[2], v[4]); err != nil {
		return StrategyArgs{}, err
	}

	sa := StrategyArgs{
		Name:   args[0],
		Market: positions.Market{Spot: v[0], Rate: v[2], Volatility: v[3], Expiry: v[4]},
		Strike: v[1],
		Long:   true,
	}
	if len(args) == 7 {
		switch strings.ToLower(args[6]) {
		case "long":
		case "short":
			sa.Long = false
		default:
			return StrategyArgs{}, fmt.Errorf("%w: direction %q must be long or short", pricing.ErrInvalidArgument, args[6])
		}
	}
	return sa, nil
}

func FormatStrategy(s *positions.Strategy) string {
	var b strings.Builder
	g := s.Greeks()
	fmt.Fprintf(&b, "*%s* net premium: %.4f\n", s.Name, s.TotalPrice())
	for _, l := range s.Legs() {
		c := l.Option.Contract()
		fmt.Fprintf(&b, "  %+d %s K=%.2f @ %.4f\n", l.Quantity, c.Type, c.Strike, l.EntryPremium)
	}
	fmt.Fprintf(&b, "delta: %.4f  gamma: %.4f  vega: %.4f  theta: %.4f  rho: %.4f",
		g.Delta, g.Gamma, g.Vega, g.Theta, g.Rho)
	return b.String()
}

func FormatRisk(r models.PortfolioRisk) string {
	return fmt.Sprintf("Scenario risk over %d spots at %.0f%% confidence\n"+
		"VaR: %.4f  ES: %.4f  max loss: %.4f  P(profit): %.2f%%",
		r.Scenarios, r.Confidence*100, r.VaR, r.ExpectedShortfall, r.MaxLoss, r.ProbabilityOfProfit*100)
}

type StrategyHandler struct {
	risk  config.Risk
	steps int
	bumps pricing.Bumps
	log   zerolog.Logger
	spawn func(func())
}

func NewStrategyHandler(cfg *config.Config, log zerolog.Logger) *StrategyHandler {
	return &StrategyHandler{
		risk:  cfg.Risk,
		steps: cfg.Pricing.Steps,
		bumps: cfg.Pricing.Bumps,
		log:   log,
		spawn: func(f func()) { go f() },
	}
}

func (h *StrategyHandler) build(text string) (*positions.Strategy, StrategyArgs, error) {
	sa, err := ParseStrategyArgs(text)
	if err != nil {
		return nil, sa, err
	}
	sa.Market.Steps = h.steps
	sa.Market.Bumps = h.bumps
	s, err := positions.Build(sa.Name, sa.Market, sa.Strike, sa.Long)
	return s, sa, err
}

// HandleCommand posts the strategy summary, then revalues it over the risk
// grid in the background and replies in the thread.
func (h *StrategyHandler) HandleCommand(cmd slack.SlashCommand, client Poster) error {
	s, sa, err := h.build(cmd.Text)
	if err != nil {
		_, _, perr := client.PostMessage(cmd.ChannelID,
			slack.MsgOptionText(fmt.Sprintf("%v\n%s", err, strategyUsage), false))
		if perr != nil {
			return perr
		}
		return err
	}

	grid, err := h.risk.SpotGrid(sa.Market.Spot, sa.Market.Volatility, sa.Market.Rate)
	if err != nil {
		return err
	}

	_, ts, err := client.PostMessage(cmd.ChannelID,
		slack.MsgOptionText(FormatStrategy(s)+"\nRunning scenario risk...", false))
	if err != nil {
		return err
	}

	h.spawn(func() { h.runRiskWithProgress(client, cmd.ChannelID, ts, s, grid) })
	return nil
}

// reply posts text into the thread at timestamp. Failures are logged since
// nothing upstream waits on the background run.
func (h *StrategyHandler) reply(client Poster, channelID, timestamp, text string) {
	_, _, err := client.PostMessage(channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(timestamp))
	if err != nil {
		h.log.Error().Err(err).Str("channel", channelID).Str("thread", timestamp).Msg("threaded reply failed")
	}
}

func (h *StrategyHandler) runRiskWithProgress(client Poster, channelID, timestamp string, s *positions.Strategy, grid []float64) {
	progressChan := make(chan int, len(grid))
	type outcome struct {
		risk models.PortfolioRisk
		err  error
	}
	resultChan := make(chan outcome, 1)

	go func() {
		ev := probability.Evaluator{
			Workers:  h.risk.Workers,
			Progress: func(n int) { progressChan <- n },
		}
		risk, err := ev.Compute(context.Background(), s.Positions(), h.risk.Confidence, grid)
		metrics.RiskScenarios.Add(float64(len(grid)))
		resultChan <- outcome{risk, err}
	}()

	done, milestone := 0, 25
	advance := func(n int) {
		done += n
		for milestone < 100 && done*100 >= milestone*len(grid) {
			h.reply(client, channelID, timestamp, fmt.Sprintf("Risk scenarios %d%% complete...", milestone))
			milestone += 25
		}
	}

	for {
		select {
		case n := <-progressChan:
			advance(n)
		case out := <-resultChan:
			// every Progress call has returned by now, so the buffer holds the rest
			for len(progressChan) > 0 {
				advance(<-progressChan)
			}
			msg := FormatRisk(out.risk)
			if out.err != nil {
				h.log.Error().Err(out.err).Str("strategy", s.Name).Msg("scenario risk failed")
				msg = fmt.Sprintf("Scenario risk failed: %v", out.err)
			}
			h.reply(client, channelID, timestamp, msg)
			return
		}
	}
}
