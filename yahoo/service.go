package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
)

const ApiUrlBase = "https://query2.finance.yahoo.com"

const userAgent = "treasury-dashboard/1.0"

// ErrNoData the chart returned no usable price.
var ErrNoData = errors.New("yahoo: no data")

// Service wraps the Yahoo Finance chart endpoint
type Service interface {
	// Quote returns the latest daily close of ticker and its market time.
	Quote(ctx context.Context, ticker string) (treasury.Rate, time.Time, error)
	// History returns the daily closes of ticker between from and to.
	History(ctx context.Context, ticker string, from, to time.Time) (treasury.Series, error)
}

// service Yahoo chart API
type service struct {
	// url base API url
	url string

	// client for HTTP requests
	client http.Client
}

// NewService constructs a valid Service. An empty baseURL selects ApiUrlBase.
func NewService(baseURL string, timeout time.Duration) Service {
	if baseURL == "" {
		baseURL = ApiUrlBase
	}
	return &service{
		url: baseURL,
		client: http.Client{
			Timeout: timeout,
		},
	}
}

// chart is the payload of the chart endpoint, only what we read from it.
type chart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote loads the latest daily close for a ticker.
func (s *service) Quote(ctx context.Context, ticker string) (treasury.Rate, time.Time, error) {
	query := url.Values{}
	query.Set("interval", "1d")
	query.Set("range", "1d")

	body, err := s.get(ctx, ticker, query)
	if err != nil {
		return 0, time.Time{}, err
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, time.Time{}, fmt.Errorf("decoding json: %w", err)
	}
	if err := chartError(payload); err != nil {
		return 0, time.Time{}, err
	}

	closes := floats(lookup(payload, "$.chart.result[0].indicators.quote[0].close"))
	stamps := floats(lookup(payload, "$.chart.result[0].timestamp"))
	for i := len(closes) - 1; i >= 0; i-- {
		c, ok := closes[i].(float64)
		if !ok || c <= 0 {
			continue
		}
		var asOf time.Time
		if i < len(stamps) {
			if ts, ok := stamps[i].(float64); ok {
				asOf = time.Unix(int64(ts), 0).UTC()
			}
		}
		return treasury.Rate(c), asOf, nil
	}

	// no close in the series, the meta still carries the last traded price
	price, _ := lookup(payload, "$.chart.result[0].meta.regularMarketPrice").(float64)
	if price <= 0 {
		return 0, time.Time{}, fmt.Errorf("quote %v: %w", ticker, ErrNoData)
	}
	var asOf time.Time
	if ts, ok := lookup(payload, "$.chart.result[0].meta.regularMarketTime").(float64); ok {
		asOf = time.Unix(int64(ts), 0).UTC()
	}
	return treasury.Rate(price), asOf, nil
}

// History loads the daily closes for a ticker over [from, to].
func (s *service) History(ctx context.Context, ticker string, from, to time.Time) (treasury.Series, error) {
	query := url.Values{}
	query.Set("interval", "1d")
	query.Set("period1", strconv.FormatInt(from.Unix(), 10))
	query.Set("period2", strconv.FormatInt(to.Unix(), 10))

	var series treasury.Series

	body, err := s.get(ctx, ticker, query)
	if err != nil {
		return series, err
	}

	var response chart
	if err := json.Unmarshal(body, &response); err != nil {
		return series, fmt.Errorf("decoding json: %w", err)
	}
	if e := response.Chart.Error; e != nil {
		return series, fmt.Errorf("chart %v: %v", e.Code, e.Description)
	}
	if len(response.Chart.Result) == 0 || len(response.Chart.Result[0].Indicators.Quote) == 0 {
		return series, fmt.Errorf("history %v: %w", ticker, ErrNoData)
	}

	result := response.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		series.Append(time.Unix(ts, 0), treasury.Rate(*closes[i]))
	}
	if series.Len() == 0 {
		return series, fmt.Errorf("history %v: %w", ticker, ErrNoData)
	}
	return series, nil
}

// get performs the chart request and returns the body of a 200 response.
func (s *service) get(ctx context.Context, ticker string, query url.Values) ([]byte, error) {
	addr := fmt.Sprintf("%v/v8/finance/chart/%v?%v", s.url, url.PathEscape(ticker), query.Encode())

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("building http request: %w", err)
	}
	request.Header.Set("User-Agent", userAgent)

	httpResponse, err := s.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer httpResponse.Body.Close()

	bytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, fmt.Errorf("reading json: %w", err)
	}
	if httpResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart %v: http %v", ticker, httpResponse.Status)
	}
	return bytes, nil
}

// lookup evaluates a JSONPath, nil when the path does not resolve.
func lookup(payload any, path string) any {
	v, err := jsonpath.Get(path, payload)
	if err != nil {
		return nil
	}
	return v
}

// floats unwraps a JSON array, nil otherwise.
func floats(v any) []any {
	list, _ := v.([]any)
	return list
}

// chartError surfaces the error object the chart endpoint embeds in its payload.
func chartError(payload any) error {
	description, ok := lookup(payload, "$.chart.error.description").(string)
	if !ok {
		return nil
	}
	return fmt.Errorf("chart: %v", description)
}
