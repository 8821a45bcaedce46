package optslack

import (
	"context"
	"log"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"github.com/bcdannyboy/optpricer/config"
)

type SlackBot struct {
	client       *slack.Client
	socketClient *socketmode.Client
	eventHandler *Handler
	log          zerolog.Logger
}

func NewSlackBot(appToken, botToken string, cfg *config.Config, logger zerolog.Logger) *SlackBot {
	client := slack.New(
		botToken,
		slack.OptionAppLevelToken(appToken),
	)

	socketClient := socketmode.New(
		client,
		socketmode.OptionDebug(cfg.Slack.Debug),
		socketmode.OptionLog(log.New(logger.With().Str("component", "socketmode").Logger(), "", 0)),
	)

	return &SlackBot{
		client:       client,
		socketClient: socketClient,
		eventHandler: NewHandler(cfg, logger),
		log:          logger,
	}
}

// Start dispatches slash commands until ctx is cancelled.
func (sb *SlackBot) Start(ctx context.Context) error {
	go func() {
		for evt := range sb.socketClient.Events {
			switch evt.Type {
			case socketmode.EventTypeSlashCommand:
				cmd, ok := evt.Data.(slack.SlashCommand)
				if !ok {
					continue
				}
				sb.socketClient.Ack(*evt.Request)
				if err := sb.eventHandler.Handle(cmd, sb.socketClient); err != nil {
					sb.log.Error().Err(err).Str("command", cmd.Command).Msg("slash command failed")
				}
			case socketmode.EventTypeConnected:
				sb.log.Info().Msg("slack socket connected")
			}
		}
	}()

	return sb.socketClient.RunContext(ctx)
}
