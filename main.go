package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"github.com/xhhuango/json"

	"github.com/bcdannyboy/optpricer/api"
	"github.com/bcdannyboy/optpricer/config"
	"github.com/bcdannyboy/optpricer/metrics"
	"github.com/bcdannyboy/optpricer/models"
	"github.com/bcdannyboy/optpricer/positions"
	"github.com/bcdannyboy/optpricer/probability"
	optslack "github.com/bcdannyboy/optpricer/slack"
	"github.com/bcdannyboy/optpricer/util"
)

// BookReport is what batch mode writes for a portfolio book.
type BookReport struct {
	Book   *positions.Book         `json:"book"`
	Greeks models.Greeks           `json:"greeks"`
	Price  float64                 `json:"totalPrice"`
	Risk   models.PortfolioRisk    `json:"risk"`
	Payoff positions.PayoffProfile `json:"payoff"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	bookPath := flag.String("portfolio", "", "price a portfolio book and exit instead of serving")
	outPath := flag.String("out", "risk.json", "where batch mode writes its report")
	flag.Parse()

	// .env is optional; Slack tokens may come from the real environment.
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		bootLog := util.NewLogger("info")
		bootLog.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel).With().Str("app", cfg.App.Name).Str("env", cfg.App.Env).Logger()

	if cfg.Risk.Workers == 0 {
		if n, err := cpu.Counts(true); err == nil && n > 0 {
			cfg.Risk.Workers = n
		}
	}
	log.Info().Int("workers", cfg.Risk.Workers).Msg("risk evaluator sized")

	if *bookPath != "" {
		if err := runBook(cfg, log, *bookPath, *outPath); err != nil {
			log.Fatal().Err(err).Str("book", *bookPath).Msg("portfolio run failed")
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metricsSrv := metrics.Serve(cfg.App.MetricsAddr, log)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics server starting")
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("metrics shutdown")
		}
	}()

	if cfg.Slack.Enabled {
		appToken, botToken := os.Getenv("SLACK_APP_TOKEN"), os.Getenv("SLACK_BOT_TOKEN")
		if appToken == "" || botToken == "" {
			log.Warn().Msg("slack enabled but SLACK_APP_TOKEN or SLACK_BOT_TOKEN is unset")
		} else {
			bot := optslack.NewSlackBot(appToken, botToken, cfg, log)
			go func() {
				if err := bot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("slack bot stopped")
				}
			}()
		}
	}

	log.Info().Str("addr", cfg.Server.Addr).Msg("pricing api started")
	if err := api.New(cfg, log).ListenAndServe(ctx); err != nil {
		log.Fatal().Err(err).Msg("api server")
	}
	log.Info().Msg("shutting down")
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runBook(cfg *config.Config, log zerolog.Logger, bookPath, outPath string) error {
	book, err := positions.LoadBook(bookPath)
	if err != nil {
		return err
	}
	strategy, err := book.Strategy()
	if err != nil {
		return err
	}

	vol := 0.0
	for _, l := range book.Legs {
		vol += l.Volatility
	}
	vol /= float64(len(book.Legs))

	grid, err := cfg.Risk.SpotGrid(book.Spot, vol, book.Rate)
	if err != nil {
		return err
	}
	log.Info().Str("book", book.Name).Int("legs", len(book.Legs)).Int("scenarios", len(grid)).Msg("evaluating book")

	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(int64(len(grid)),
		mpb.PrependDecorators(
			decor.Name("Scenarios"),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
		),
	)

	ev := probability.Evaluator{
		Workers:  cfg.Risk.Workers,
		Progress: func(n int) { bar.IncrBy(n) },
	}
	risk, err := ev.Compute(context.Background(), strategy.Positions(), cfg.Risk.Confidence, grid)
	if err != nil {
		bar.Abort(false)
		p.Wait()
		return err
	}
	p.Wait()

	profile, err := strategy.Profile(grid)
	if err != nil {
		return err
	}

	report := BookReport{
		Book:   book,
		Greeks: strategy.Greeks(),
		Price:  strategy.TotalPrice(),
		Risk:   risk,
		Payoff: profile,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	log.Info().
		Str("out", outPath).
		Float64("var", risk.VaR).
		Float64("es", risk.ExpectedShortfall).
		Float64("pop", risk.ProbabilityOfProfit).
		Msg("book report written")
	return nil
}
