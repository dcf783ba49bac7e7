package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
	"github.com/Anne71-cloud/treasury-dashboard/dashboard"
	"github.com/Anne71-cloud/treasury-dashboard/rates"
)

// mock market data source quoting EUR/USD only
type mock struct{}

func (m mock) Quote(_ context.Context, ticker string) (treasury.Rate, time.Time, error) {
	if ticker != "EURUSD=X" {
		return 0, time.Time{}, errors.New("no such ticker")
	}
	return 1.1, time.Date(2026, 10, 16, 21, 0, 0, 0, time.UTC), nil
}

func (m mock) History(_ context.Context, ticker string, _, _ time.Time) (treasury.Series, error) {
	var s treasury.Series
	if ticker != "EURUSD=X" {
		return s, errors.New("no such ticker")
	}
	s.Append(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), 1.09)
	s.Append(time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), 1.1)
	return s, nil
}

func newServer(t *testing.T) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	b := &dashboard.Builder{
		Rates:       rates.NewInstrumentingService(reg, rates.NewService(mock{}, nil, log.NewNopLogger())),
		Currencies:  []treasury.Currency{"USD", "EUR", "GBP", "ZAR"},
		HistoryDays: 30,
	}
	defaults := dashboard.Request{
		Base: "USD",
		Positions: []treasury.Position{
			{Entity: "DRC Operations", Currency: "USD", Amount: 250_000},
			{Entity: "European Office", Currency: "EUR", Amount: 100_000},
		},
	}
	return NewServer(b, defaults, reg, log.NewNopLogger())
}

func serve(s http.Handler, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	s.ServeHTTP(w, r)
	return w
}

func TestServer_Rate(t *testing.T) {
	server := newServer(t)

	w := serve(server, "GET", "/api/rate?from=eur&to=usd", "")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, `{"from":"EUR","to":"USD","rate":1.1,"source":"live","asOf":"2026-10-16T21:00:00Z"}`, strings.TrimSpace(w.Body.String()))

	w = serve(server, "GET", "/api/rate?from=ZAR&to=USD", "")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, `{"from":"ZAR","to":"USD","rate":0.053,"source":"fallback"}`, strings.TrimSpace(w.Body.String()))

	w = serve(server, "GET", "/api/rate?from=ZAR&to=EUR", "")
	assert.Equal(t, `{"from":"ZAR","to":"EUR","rate":1,"source":"unknown"}`, strings.TrimSpace(w.Body.String()))
}

func TestServer_History(t *testing.T) {
	server := newServer(t)

	w := serve(server, "GET", "/api/history?from=EUR&to=USD&days=30", "")
	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"pair":"EUR/USD","available":true,"points":[
		{"date":"2026-10-15T00:00:00Z","rate":1.09},
		{"date":"2026-10-16T00:00:00Z","rate":1.1}]}`, w.Body.String())

	w = serve(server, "GET", "/api/history?from=GBP&to=USD", "")
	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"pair":"GBP/USD","available":false,"points":[]}`, w.Body.String())
}

func TestServer_Exposure(t *testing.T) {
	server := newServer(t)

	msg := `{"base":"usd","totals":{"ZAR":5000000,"USD":250000,"GBP":75000}}`
	w := serve(server, "POST", "/api/exposure", msg)

	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"base":"USD","exposures":[
		{"currency":"GBP","amount":75000,"rate":1.27,"source":"fallback","exposure":95250,"impact":4762.5},
		{"currency":"ZAR","amount":5000000,"rate":0.053,"source":"fallback","exposure":265000,"impact":13250}],
		"totalExposure":360250,"totalImpact":18012.5}`, w.Body.String())
}

func TestServer_ExposureOnlyBase(t *testing.T) {
	w := serve(newServer(t), "POST", "/api/exposure", `{"base":"EUR","totals":{"EUR":100}}`)

	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"base":"EUR","exposures":[],"totalExposure":0,"totalImpact":0}`, w.Body.String())
}

func TestServer_DashboardGet(t *testing.T) {
	w := serve(newServer(t), "GET", "/api/dashboard?base=usd&trend=eur", "")

	require.Equal(t, 200, w.Code)
	var d struct {
		TotalLiquidity treasury.Amount `json:"totalLiquidity"`
		Entities       int             `json:"entities"`
		NoExposure     bool            `json:"noExposure"`
	}
	require.Nil(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.InDelta(t, 360_000, float64(d.TotalLiquidity), 1e-6)
	assert.Equal(t, 2, d.Entities)
	assert.False(t, d.NoExposure)
	assert.Contains(t, w.Body.String(), `"trend":{"pair":"EUR/USD","points":[`)
}

func TestServer_DashboardPost(t *testing.T) {
	msg := `{"base":"EUR","positions":[{"entity":"Paris","currency":"eur","amount":10}]}`
	w := serve(newServer(t), "POST", "/api/dashboard", msg)

	require.Equal(t, 200, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"totalLiquidity":10,`)
	assert.Contains(t, body, `"noExposure":true`)
	assert.Contains(t, body, `"exposures":[]`)
}

func TestServer_DashboardPostKeepsConfiguredPositions(t *testing.T) {
	w := serve(newServer(t), "POST", "/api/dashboard", `{"base":"EUR"}`)

	require.Equal(t, 200, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"base":"EUR"`)
	assert.Contains(t, body, `"entities":2`)
	assert.Contains(t, body, `"entity":"DRC Operations"`)
}

func TestServer_Index(t *testing.T) {
	w := serve(newServer(t), "GET", "/?base=EUR", "")

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<title>Treasury Dashboard (EUR)</title>")
}

func TestServer_IndexTrendOfPreviousBase(t *testing.T) {
	// the form resubmits the trend picked under the previous base
	w := serve(newServer(t), "GET", "/?base=EUR&trend=EUR", "")

	require.Equal(t, 200, w.Code)
	page := w.Body.String()
	assert.Contains(t, page, "<title>Treasury Dashboard (EUR)</title>")
	assert.Contains(t, page, "<h3>USD/EUR</h3>")

	w = serve(newServer(t), "GET", "/api/dashboard?base=EUR&trend=EUR", "")
	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `"trend":{"pair":"USD/EUR"`)
}

func TestServer_Errors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
	}{
		{"unknown base", "GET", "/api/dashboard?base=JPY", "", 400},
		{"unknown trend", "GET", "/?trend=CHF", "", 400},
		{"bad dashboard json", "POST", "/api/dashboard", "{", 400},
		{"missing pair", "GET", "/api/rate?from=EUR", "", 400},
		{"bad days", "GET", "/api/history?from=EUR&to=USD&days=x", "", 400},
		{"negative days", "GET", "/api/history?from=EUR&to=USD&days=-1", "", 400},
		{"missing base", "POST", "/api/exposure", `{"totals":{}}`, 400},
		{"bad exposure json", "POST", "/api/exposure", `[]`, 400},
		{"position without currency", "POST", "/api/dashboard", `{"positions":[{"entity":"Paris","amount":10}]}`, 400},
		{"position with blank currency", "POST", "/api/dashboard", `{"positions":[{"entity":"Paris","currency":" ","amount":10}]}`, 400},
		{"position without entity", "POST", "/api/dashboard", `{"positions":[{"currency":"EUR","amount":10}]}`, 400},
		{"total without currency", "POST", "/api/exposure", `{"base":"USD","totals":{"":75000}}`, 400},
		{"total with blank currency", "POST", "/api/exposure", `{"base":"USD","totals":{" ":75000}}`, 400},
		{"get exposure", "GET", "/api/exposure", "", 405},
		{"post rate", "POST", "/api/rate", "", 405},
		{"unknown path", "GET", "/nope", "", 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(newServer(t), tt.method, tt.target, tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), `"error":`)
		})
	}
}

func TestServer_MetricsAndHealth(t *testing.T) {
	server := newServer(t)
	serve(server, "GET", "/api/rate?from=EUR&to=USD", "")

	w := serve(server, "GET", "/metrics", "")
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `treasury_rate_lookups_total{source="live"} 1`)

	w = serve(server, "GET", "/healthz", "")
	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestLoggingHandler_RequestID(t *testing.T) {
	handler := NewLoggingHandler(log.NewNopLogger(), newServer(t))

	w := serve(handler, "GET", "/healthz", "")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	w = httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/healthz", nil)
	r.Header.Set(RequestIDHeader, "abc")
	handler.ServeHTTP(w, r)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}
