package optslack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/slack-go/slack"

	"github.com/bcdannyboy/optpricer/config"
	"github.com/bcdannyboy/optpricer/metrics"
	"github.com/bcdannyboy/optpricer/pricing"
)

const priceUsage = "Usage: /price <european|american> <call|put> <spot> <strike> <rate> <vol> <years> [steps]"

// PriceArgs is a parsed /price command.
type PriceArgs struct {
	Model    string
	Contract pricing.Contract
	Steps    int
}

// parseFloats converts fields to floats, naming the first bad one.
func parseFloats(names []string, fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q is not a number", pricing.ErrInvalidArgument, names[i], f)
		}
		out[i] = v
	}
	return out, nil
}

// checkBoundary applies the rules the core leaves to its callers.
func checkBoundary(rate, expiry float64) error {
	if rate < 0 {
		return fmt.Errorf("%w: rate must not be negative", pricing.ErrInvalidArgument)
	}
	if !(expiry > 0) {
		return fmt.Errorf("%w: time to expiry must be positive", pricing.ErrInvalidArgument)
	}
	return nil
}

func ParsePriceArgs(text string) (PriceArgs, error) {
	args := strings.Fields(text)
	if len(args) != 7 && len(args) != 8 {
		return PriceArgs{}, fmt.Errorf("%w: expected 7 or 8 arguments, got %d", pricing.ErrInvalidArgument, len(args))
	}
	if _, err := pricing.ParseKind(args[0]); err != nil {
		return PriceArgs{}, err
	}
	typ, err := pricing.ParseOptionType(args[1])
	if err != nil {
		return PriceArgs{}, err
	}
	v, err := parseFloats([]string{"spot", "strike", "rate", "vol", "years"}, args[2:7])
	if err != nil {
		return PriceArgs{}, err
	}
	if err := checkBoundary(v[2], v[4]); err != nil {
		return PriceArgs{}, err
	}

	pa := PriceArgs{
		Model: strings.ToLower(args[0]),
		Contract: pricing.Contract{
			Spot: v[0], Strike: v[1], Rate: v[2], Volatility: v[3], Expiry: v[4], Type: typ,
		},
	}
	if len(args) == 8 {
		steps, err := strconv.Atoi(args[7])
		if err != nil || steps < 1 {
			return PriceArgs{}, fmt.Errorf("%w: steps %q must be a positive integer", pricing.ErrInvalidArgument, args[7])
		}
		pa.Steps = steps
	}
	return pa, nil
}

func FormatOption(model string, opt pricing.Option) (string, error) {
	g, err := opt.Greeks()
	if err != nil {
		return "", err
	}
	c := opt.Contract()
	return fmt.Sprintf("*%s %s* S=%.2f K=%.2f r=%.4f σ=%.4f T=%.4f (%s)\n"+
		"price: %.4f\ndelta: %.4f  gamma: %.4f\nvega: %.4f  theta: %.4f  rho: %.4f",
		model, c.Type, c.Spot, c.Strike, c.Rate, c.Volatility, c.Expiry, opt.Kind(),
		opt.Price(), g.Delta, g.Gamma, g.Vega, g.Theta, g.Rho), nil
}

type PriceHandler struct {
	steps    int
	maxSteps int
	bumps    pricing.Bumps
}

func NewPriceHandler(cfg *config.Config) *PriceHandler {
	return &PriceHandler{steps: cfg.Pricing.Steps, maxSteps: cfg.Server.MaxSteps, bumps: cfg.Pricing.Bumps}
}

// Reply computes the message for a /price command text.
func (h *PriceHandler) Reply(text string) (string, error) {
	pa, err := ParsePriceArgs(text)
	if err != nil {
		return "", err
	}
	steps := pa.Steps
	if steps == 0 {
		steps = h.steps
	}
	if steps > h.maxSteps {
		return "", fmt.Errorf("%w: steps %d exceeds limit %d", pricing.ErrInvalidArgument, steps, h.maxSteps)
	}
	opt, err := pricing.New(pa.Model, pa.Contract, steps, pricing.WithBumps(h.bumps))
	if err != nil {
		return "", err
	}
	metrics.OptionsPriced.WithLabelValues(string(opt.Kind())).Inc()
	return FormatOption(pa.Model, opt)
}

func (h *PriceHandler) HandleCommand(cmd slack.SlashCommand, client Poster) error {
	msg, err := h.Reply(cmd.Text)
	if err != nil {
		msg = fmt.Sprintf("%v\n%s", err, priceUsage)
	}
	if _, _, perr := client.PostMessage(cmd.ChannelID, slack.MsgOptionText(msg, false)); perr != nil {
		return perr
	}
	return err
}
