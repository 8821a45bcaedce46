package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optpricer_requests_total", Help: "HTTP requests served"},
		[]string{"route", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "optpricer_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
		[]string{"route"},
	)
	OptionsPriced = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optpricer_options_priced_total", Help: "Options constructed and priced"},
		[]string{"model"},
	)
	RiskScenarios = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "optpricer_risk_scenarios_total", Help: "Spot scenarios revalued by the risk engine"},
	)
	SlackCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optpricer_slack_commands_total", Help: "Slash commands handled"},
		[]string{"command", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, RequestDuration, OptionsPriced, RiskScenarios, SlackCommands)
}

// Serve exposes /metrics on addr in the background. A failure to listen is
// logged; callers own shutdown through the returned server.
func Serve(addr string, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	return srv
}
