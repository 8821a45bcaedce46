package optslack

import (
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/bcdannyboy/optpricer/config"
	"github.com/bcdannyboy/optpricer/metrics"
)

// Poster is the part of the Slack client the command handlers write through.
type Poster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

type Handler struct {
	helpHandler     *HelpHandler
	priceHandler    *PriceHandler
	strategyHandler *StrategyHandler
	log             zerolog.Logger
}

func NewHandler(cfg *config.Config, log zerolog.Logger) *Handler {
	return &Handler{
		helpHandler:     NewHelpHandler(),
		priceHandler:    NewPriceHandler(cfg),
		strategyHandler: NewStrategyHandler(cfg, log),
		log:             log,
	}
}

func (h *Handler) Handle(cmd slack.SlashCommand, client Poster) error {
	var err error
	switch cmd.Command {
	case "/help":
		err = h.helpHandler.HandleCommand(cmd, client)
	case "/price":
		err = h.priceHandler.HandleCommand(cmd, client)
	case "/strategy":
		err = h.strategyHandler.HandleCommand(cmd, client)
	default:
		metrics.SlackCommands.WithLabelValues(cmd.Command, "unknown").Inc()
		return nil
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.SlackCommands.WithLabelValues(cmd.Command, outcome).Inc()
	h.log.Debug().Str("command", cmd.Command).Str("user", cmd.UserID).Str("outcome", outcome).Msg("slash command")
	return err
}
