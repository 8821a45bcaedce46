package optslack

import (
	"strings"

	"github.com/slack-go/slack"

	"github.com/bcdannyboy/optpricer/positions"
)

type HelpHandler struct{}

func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

func HelpText() string {
	return "Available commands:\n" +
		"/help - Show this help message\n" +
		"/price <european|american> <call|put> <spot> <strike> <rate> <vol> <years> [steps] - Price an option and its greeks\n" +
		"/strategy <name> <spot> <strike> <rate> <vol> <years> [long|short] - Price a named strategy and its scenario risk\n" +
		"Strategies: " + strings.Join(positions.Available(), ", ")
}

func (h *HelpHandler) HandleCommand(cmd slack.SlashCommand, client Poster) error {
	_, _, err := client.PostMessage(cmd.ChannelID,
		slack.MsgOptionText(HelpText(), false))
	return err
}
