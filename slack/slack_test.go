package optslack

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/bcdannyboy/optpricer/config"
	"github.com/bcdannyboy/optpricer/pricing"
)

type postedMessage struct {
	channel  string
	text     string
	threadTS string
}

type fakePoster struct {
	mu       sync.Mutex
	messages []postedMessage
	// failThreaded rejects every reply posted into a thread.
	failThreaded bool
}

func (f *fakePoster) PostMessage(channelID string, options ...slack.MsgOption) (string, string, error) {
	_, values, err := slack.UnsafeApplyMsgOptions("token", channelID, "https://slack.test/api/", options...)
	if err != nil {
		return "", "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failThreaded && values.Get("thread_ts") != "" {
		return "", "", errors.New("channel_not_found")
	}
	f.messages = append(f.messages, postedMessage{
		channel:  channelID,
		text:     values.Get("text"),
		threadTS: values.Get("thread_ts"),
	})
	return channelID, "1700000000.000100", nil
}

func (f *fakePoster) posted() []postedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]postedMessage(nil), f.messages...)
}

func newTestHandler() *Handler {
	h := NewHandler(config.Default(), zerolog.Nop())
	h.strategyHandler.spawn = func(f func()) { f() }
	return h
}

func TestParsePriceArgs(t *testing.T) {
	pa, err := ParsePriceArgs("american put 100 100 0.05 0.2 1 250")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pa.Model != "american" || pa.Contract.Type != pricing.Put || pa.Steps != 250 {
		t.Fatalf("unexpected args: %+v", pa)
	}
	if pa.Contract.Spot != 100 || pa.Contract.Volatility != 0.2 || pa.Contract.Expiry != 1 {
		t.Fatalf("unexpected contract: %+v", pa.Contract)
	}

	bad := []string{
		"",
		"european call 100 100 0.05 0.2",
		"asian call 100 100 0.05 0.2 1",
		"european straddle 100 100 0.05 0.2 1",
		"european call abc 100 0.05 0.2 1",
		"european call 100 100 -0.01 0.2 1",
		"european call 100 100 0.05 0.2 0",
		"american call 100 100 0.05 0.2 1 zero",
	}
	for _, text := range bad {
		if _, err := ParsePriceArgs(text); !errors.Is(err, pricing.ErrInvalidArgument) {
			t.Errorf("%q: expected an invalid argument error, got %v", text, err)
		}
	}
}

func TestPriceReply(t *testing.T) {
	h := NewPriceHandler(config.Default())
	msg, err := h.Reply("european call 100 100 0.05 0.2 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(msg, "price: 10.4506") || !strings.Contains(msg, "delta: 0.6368") {
		t.Fatalf("unexpected reply: %s", msg)
	}

	if _, err := h.Reply("american call 100 100 0.05 0.2 1 1000000"); !errors.Is(err, pricing.ErrInvalidArgument) {
		t.Fatalf("expected the step limit to apply, got %v", err)
	}
}

func TestParseStrategyArgs(t *testing.T) {
	sa, err := ParseStrategyArgs("straddle 100 100 0.05 0.2 0.5 short")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sa.Name != "straddle" || sa.Long || sa.Strike != 100 || sa.Market.Expiry != 0.5 {
		t.Fatalf("unexpected args: %+v", sa)
	}
	sa, err = ParseStrategyArgs("iron_condor 100 100 0.05 0.2 0.5")
	if err != nil || !sa.Long {
		t.Fatalf("direction should default to long: %+v, %v", sa, err)
	}

	for _, text := range []string{
		"straddle 100 100 0.05 0.2",
		"straddle 100 100 0.05 0.2 0.5 sideways",
		"straddle 100 100 -0.05 0.2 0.5",
	} {
		if _, err := ParseStrategyArgs(text); !errors.Is(err, pricing.ErrInvalidArgument) {
			t.Errorf("%q: expected an invalid argument error, got %v", text, err)
		}
	}
}

func TestHandleHelp(t *testing.T) {
	poster := &fakePoster{}
	if err := newTestHandler().Handle(slack.SlashCommand{Command: "/help", ChannelID: "C1"}, poster); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs := poster.posted()
	if len(msgs) != 1 || msgs[0].channel != "C1" {
		t.Fatalf("expected one message to C1, got %+v", msgs)
	}
	for _, name := range []string{"/price", "/strategy", "iron_condor"} {
		if !strings.Contains(msgs[0].text, name) {
			t.Errorf("help text should mention %s", name)
		}
	}
}

func TestHandlePriceError(t *testing.T) {
	poster := &fakePoster{}
	err := newTestHandler().Handle(slack.SlashCommand{Command: "/price", ChannelID: "C1", Text: "european call"}, poster)
	if !errors.Is(err, pricing.ErrInvalidArgument) {
		t.Fatalf("expected an invalid argument error, got %v", err)
	}
	msgs := poster.posted()
	if len(msgs) != 1 || !strings.Contains(msgs[0].text, priceUsage) {
		t.Fatalf("error reply should carry the usage line: %+v", msgs)
	}
}

func TestHandleStrategy(t *testing.T) {
	poster := &fakePoster{}
	cmd := slack.SlashCommand{Command: "/strategy", ChannelID: "C1", Text: "straddle 100 100 0.05 0.2 1"}
	if err := newTestHandler().Handle(cmd, poster); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := poster.posted()
	if len(msgs) < 2 {
		t.Fatalf("expected a summary and a risk reply, got %+v", msgs)
	}
	if !strings.Contains(msgs[0].text, "*straddle* net premium: 16.0241") || msgs[0].threadTS != "" {
		t.Fatalf("unexpected summary: %+v", msgs[0])
	}
	for _, m := range msgs[1:] {
		if m.threadTS == "" {
			t.Fatalf("follow-ups should be threaded: %+v", m)
		}
	}
	last := msgs[len(msgs)-1]
	if !strings.Contains(last.text, "VaR:") || !strings.Contains(last.text, "101 spots") {
		t.Fatalf("unexpected risk reply: %s", last.text)
	}
	progress := 0
	for _, m := range msgs {
		if strings.Contains(m.text, "% complete") {
			progress++
		}
	}
	if progress != 3 {
		t.Fatalf("expected three progress updates, got %d", progress)
	}
}

func TestStrategyThreadFailuresAreLogged(t *testing.T) {
	var buf bytes.Buffer
	h := NewStrategyHandler(config.Default(), zerolog.New(&buf))
	h.spawn = func(f func()) { f() }

	poster := &fakePoster{failThreaded: true}
	cmd := slack.SlashCommand{Command: "/strategy", ChannelID: "C1", Text: "strangle 100 100 0.05 0.2 1"}
	if err := h.HandleCommand(cmd, poster); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(poster.posted()); n != 1 {
		t.Fatalf("only the summary should have been delivered, got %d messages", n)
	}
	out := buf.String()
	if got := strings.Count(out, "threaded reply failed"); got != 4 {
		t.Fatalf("expected 4 logged reply failures, got %d: %s", got, out)
	}
	if !strings.Contains(out, "channel_not_found") {
		t.Fatalf("log should carry the post error: %s", out)
	}
}

func TestHandleUnknownCommand(t *testing.T) {
	poster := &fakePoster{}
	if err := newTestHandler().Handle(slack.SlashCommand{Command: "/trade"}, poster); err != nil {
		t.Fatalf("unknown commands are ignored, got %v", err)
	}
	if len(poster.posted()) != 0 {
		t.Fatalf("unknown commands should not reply")
	}
}
