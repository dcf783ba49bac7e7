package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
)

func TestService_Quote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/v8/finance/chart/EURUSD=X", req.URL.Path)
		assert.Equal(t, "1d", req.URL.Query().Get("range"))
		assert.NotEmpty(t, req.Header.Get("User-Agent"))
		response := `{
			"chart": {
				"result": [{
					"meta": {"regularMarketPrice": 1.0801, "regularMarketTime": 1760000000},
					"timestamp": [1759900000, 1759990000],
					"indicators": {"quote": [{"close": [1.0795, 1.08123456]}]}
				}],
				"error": null
			}
		}`
		_, _ = rw.Write([]byte(response))
	}))
	defer server.Close()

	s := NewService(server.URL, time.Second)

	rate, asOf, err := s.Quote(context.Background(), "EURUSD=X")

	require.Nil(t, err)
	assert.Equal(t, treasury.Rate(1.08123456), rate)
	assert.Equal(t, time.Unix(1759990000, 0).UTC(), asOf)
}

func TestService_QuoteSkipsNullClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		response := `{"chart": {"result": [{
			"meta": {"regularMarketPrice": 18.9},
			"timestamp": [1759900000, 1759990000],
			"indicators": {"quote": [{"close": [18.75, null]}]}
		}], "error": null}}`
		_, _ = rw.Write([]byte(response))
	}))
	defer server.Close()

	rate, asOf, err := NewService(server.URL, time.Second).Quote(context.Background(), "USDZAR=X")

	require.Nil(t, err)
	assert.Equal(t, treasury.Rate(18.75), rate)
	assert.Equal(t, time.Unix(1759900000, 0).UTC(), asOf)
}

func TestService_QuoteFallsBackToMeta(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		response := `{"chart": {"result": [{
			"meta": {"regularMarketPrice": 0.79, "regularMarketTime": 1760000000},
			"indicators": {"quote": [{}]}
		}], "error": null}}`
		_, _ = rw.Write([]byte(response))
	}))
	defer server.Close()

	rate, _, err := NewService(server.URL, time.Second).Quote(context.Background(), "USDGBP=X")

	require.Nil(t, err)
	assert.Equal(t, treasury.Rate(0.79), rate)
}

func TestService_QuoteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"http status", http.StatusNotFound, `{}`, "404"},
		{"chart error", http.StatusOK, `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`, "delisted"},
		{"bad json", http.StatusOK, `{"chart":`, "decoding json"},
		{"no data", http.StatusOK, `{"chart": {"result": [], "error": null}}`, "no data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
				rw.WriteHeader(tt.status)
				_, _ = rw.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, _, err := NewService(server.URL, time.Second).Quote(context.Background(), "XXXYYY=X")

			require.NotNil(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestService_QuoteTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		time.Sleep(50 * time.Millisecond)
		_, _ = rw.Write([]byte("{}"))
	}))
	defer server.Close()

	_, _, err := NewService(server.URL, time.Millisecond).Quote(context.Background(), "EURUSD=X")

	assert.NotNil(t, err)
}

func TestService_History(t *testing.T) {
	from := time.Date(2026, 9, 17, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		assert.True(t, strings.HasSuffix(req.URL.Path, "/GBPUSD=X"))
		assert.Equal(t, "1789603200", req.URL.Query().Get("period1"))
		assert.Equal(t, "1792195200", req.URL.Query().Get("period2"))
		response := `{"chart": {"result": [{
			"timestamp": [1792051200, 1791964800, 1792137600],
			"indicators": {"quote": [{"close": [1.271, 1.268, null]}]}
		}], "error": null}}`
		_, _ = rw.Write([]byte(response))
	}))
	defer server.Close()

	series, err := NewService(server.URL, time.Second).History(context.Background(), "GBPUSD=X", from, to)

	require.Nil(t, err)
	assert.Equal(t, []treasury.Rate{1.268, 1.271}, series.Rates())
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), series.Latest().Date)
}

func TestService_HistoryEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		_, _ = rw.Write([]byte(`{"chart": {"result": [{"indicators": {"quote": [{"close": []}]}}], "error": null}}`))
	}))
	defer server.Close()

	series, err := NewService(server.URL, time.Second).History(context.Background(), "GBPUSD=X", time.Now().AddDate(0, 0, -30), time.Now())

	assert.True(t, errors.Is(err, ErrNoData))
	assert.Equal(t, 0, series.Len())
}
