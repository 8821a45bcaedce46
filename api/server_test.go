package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bcdannyboy/optpricer/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Server.GinMode = "test"
	return New(cfg, zerolog.Nop())
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func atmRequest(typ string) map[string]interface{} {
	return map[string]interface{}{
		"type": typ, "spot": 100.0, "strike": 100.0, "rate": 0.05, "volatility": 0.2, "time": 1.0,
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["status"] != "healthy" || body["version"] != Version {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestListStrategies(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/strategies", nil)
	var body struct {
		Strategies []string `json:"strategies"`
	}
	decode(t, rec, &body)
	if len(body.Strategies) != 4 {
		t.Fatalf("expected four strategies, got %v", body.Strategies)
	}
}

func TestPriceOption(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/price", atmRequest("call"))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp PriceResponse
	decode(t, rec, &resp)
	if !approxEqual(resp.Price, 10.450583572185565, 1e-9) {
		t.Errorf("price %v", resp.Price)
	}
	if !approxEqual(resp.Delta, 0.636831, 1e-6) || !approxEqual(resp.Vega, 0.37524, 1e-5) {
		t.Errorf("greeks %+v", resp.Greeks)
	}
	if resp.Model != "european" || resp.Kind != "closed-form" || resp.Type != "call" {
		t.Errorf("unexpected labels: %+v", resp)
	}

	req := atmRequest("put")
	req["model"] = "american"
	req["steps"] = 200
	rec = do(t, s, http.MethodPost, "/api/price", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &resp)
	if resp.Kind != "binomial-tree" || resp.Price < 5.573526022256971 {
		t.Errorf("american put %+v should carry an early exercise premium", resp)
	}
}

func TestPriceOptionValidation(t *testing.T) {
	s := newTestServer(t)
	cases := map[string]struct {
		mutate func(map[string]interface{})
		code   string
	}{
		"missing rate":  {func(r map[string]interface{}) { delete(r, "rate") }, "bad_request"},
		"negative rate": {func(r map[string]interface{}) { r["rate"] = -0.01 }, "bad_request"},
		"zero time":     {func(r map[string]interface{}) { r["time"] = 0.0 }, "bad_request"},
		"negative spot": {func(r map[string]interface{}) { r["spot"] = -100.0 }, "bad_request"},
		"bad type":      {func(r map[string]interface{}) { r["type"] = "straddle" }, "invalid_argument"},
		"bad model":     {func(r map[string]interface{}) { r["model"] = "asian" }, "invalid_argument"},
		"too many steps": {func(r map[string]interface{}) {
			r["model"] = "american"
			r["steps"] = 1000000
		}, "invalid_argument"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := atmRequest("call")
			tc.mutate(req)
			rec := do(t, s, http.MethodPost, "/api/price", req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			var e errorResponse
			decode(t, rec, &e)
			if e.Code != tc.code || e.Error == "" {
				t.Fatalf("unexpected error body: %+v", e)
			}
		})
	}
}

func TestPriceStrategy(t *testing.T) {
	s := newTestServer(t)
	req := atmRequest("")
	delete(req, "type")
	req["strategy"] = "straddle"
	rec := do(t, s, http.MethodPost, "/api/strategy", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp StrategyResponse
	decode(t, rec, &resp)
	if resp.NumLegs != 2 || !resp.IsLong || resp.Strategy != "straddle" {
		t.Fatalf("unexpected straddle response: %+v", resp)
	}
	if !approxEqual(resp.Price, 10.450583572185565+5.573526022256971, 1e-9) {
		t.Fatalf("straddle price %v", resp.Price)
	}
	if len(resp.Payoff.Breakevens) != 2 {
		t.Fatalf("expected two breakevens, got %v", resp.Payoff.Breakevens)
	}

	req["strategy"] = "iron_condor"
	rec = do(t, s, http.MethodPost, "/api/strategy", req)
	decode(t, rec, &resp)
	if rec.Code != http.StatusOK || resp.NumLegs != 4 || resp.Price >= 0 {
		t.Fatalf("unexpected condor response %d: %+v", rec.Code, resp)
	}

	req["strategy"] = "butterfly"
	rec = do(t, s, http.MethodPost, "/api/strategy", req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown strategy should be a 400, got %d", rec.Code)
	}
}

func portfolioRequest() map[string]interface{} {
	return map[string]interface{}{
		"spot": 100.0,
		"rate": 0.05,
		"legs": []map[string]interface{}{
			{"type": "european", "optionType": "call", "strike": 100.0, "volatility": 0.2, "time": 1.0, "quantity": 1},
			{"type": "european", "optionType": "put", "strike": 100.0, "volatility": 0.2, "time": 1.0},
		},
	}
}

func TestPricePortfolio(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/api/portfolio/price", portfolioRequest())
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp PortfolioResponse
	decode(t, rec, &resp)
	p := resp.Portfolio
	if len(p.Legs) != 2 || p.Legs[1].Quantity != 1 || p.Legs[1].OptionType != "put" {
		t.Fatalf("unexpected legs: %+v", p.Legs)
	}
	if len(p.Payoff.Spots) != 101 || len(p.Payoff.Payoffs) != 101 {
		t.Fatalf("expected 101 payoff points, got %d", len(p.Payoff.Spots))
	}
	if !approxEqual(p.Payoff.Spots[0], 70, 1e-9) || !approxEqual(p.Payoff.Spots[100], 130, 1e-9) {
		t.Fatalf("payoff range %v..%v", p.Payoff.Spots[0], p.Payoff.Spots[100])
	}
	if !approxEqual(p.Greeks.Delta, 2*0.636831-1, 1e-5) {
		t.Fatalf("portfolio delta %v", p.Greeks.Delta)
	}

	bad := portfolioRequest()
	bad["legs"] = []map[string]interface{}{}
	rec = do(t, newTestServer(t), http.MethodPost, "/api/portfolio/price", bad)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty legs should be a 400, got %d", rec.Code)
	}
}

func TestPortfolioRisk(t *testing.T) {
	req := portfolioRequest()
	req["grid_width"] = 0.3
	rec := do(t, newTestServer(t), http.MethodPost, "/api/risk", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp RiskResponse
	decode(t, rec, &resp)
	r := resp.Risk
	if len(resp.Grid) != 101 || r.Scenarios != 101 || r.Confidence != 0.95 {
		t.Fatalf("unexpected grid metadata: %+v", r)
	}
	if !(r.VaR < r.MaxLoss) || !(r.ProbabilityOfProfit > 0 && r.ProbabilityOfProfit < 1) {
		t.Fatalf("unexpected straddle risk: %+v", r)
	}

	req["confidence"] = 1.5
	rec = do(t, newTestServer(t), http.MethodPost, "/api/risk", req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("confidence above 1 should be a 400, got %d", rec.Code)
	}
}

func TestGreekSurface(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/greeks/surface?spot=100&strike=100&rate=0.05&volatility=0.2&time=1&greek=gamma&grid_size=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Greek string      `json:"greek"`
		Data  [][]float64 `json:"data"`
	}
	decode(t, rec, &resp)
	if resp.Greek != "gamma" || len(resp.Data) != 11 || len(resp.Data[0]) != 11 {
		t.Fatalf("unexpected surface: greek=%s rows=%d", resp.Greek, len(resp.Data))
	}

	rec = do(t, s, http.MethodGet, "/api/greeks/surface?spot=100&strike=100&rate=0.05&volatility=0.2&time=1&greek=speed", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown greek should be a 400, got %d", rec.Code)
	}
}

func TestImpliedVol(t *testing.T) {
	req := map[string]interface{}{
		"type": "call", "spot": 100.0, "strike": 100.0, "rate": 0.05, "time": 1.0,
		"marketPrice": 10.450583572185565,
	}
	rec := do(t, newTestServer(t), http.MethodPost, "/api/implied-vol", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp ImpliedVolResponse
	decode(t, rec, &resp)
	if !resp.Converged || !approxEqual(resp.Sigma, 0.2, 1e-6) {
		t.Fatalf("unexpected implied vol: %+v", resp)
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/unknown", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
