package rates

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/shopspring/decimal"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
	"github.com/Anne71-cloud/treasury-dashboard/yahoo"
)

// Service provides spot rates and rate histories. It never fails: lookup errors are
// absorbed and reported through the Source of the returned quote, or an empty series.
type Service interface {
	// Rate returns the rate to convert from into to.
	Rate(ctx context.Context, from, to treasury.Currency) treasury.Quote
	// History returns at most days daily closes of the pair, ending now.
	History(ctx context.Context, from, to treasury.Currency, days int) treasury.Series
}

// decimals live rates are rounded to
const decimals = 4

// service rate provider backed by a market data source and a fallback table
type service struct {
	// source live market data
	source yahoo.Service

	// fallback rates used when the source fails
	fallback Table

	// now the clock, replaced in tests
	now func() time.Time

	logger log.Logger
}

// NewService constructs a valid Service. A nil fallback selects DefaultFallback.
func NewService(source yahoo.Service, fallback Table, logger log.Logger) Service {
	if fallback == nil {
		fallback = DefaultFallback
	}
	return &service{
		source:   source,
		fallback: fallback,
		now:      time.Now,
		logger:   logger,
	}
}

// Rate looks up the live rate of the pair and falls back to the table on any failure.
func (s *service) Rate(ctx context.Context, from, to treasury.Currency) treasury.Quote {
	pair := treasury.Pair{From: from, To: to}
	if pair.Identity() {
		return treasury.Quote{Pair: pair, Rate: 1, Source: treasury.Identity}
	}

	rate, asOf, err := s.source.Quote(ctx, pair.Ticker())
	if err == nil && rate > 0 {
		return treasury.Quote{Pair: pair, Rate: round(rate), Source: treasury.Live, AsOf: asOf}
	}

	quote := treasury.Quote{Pair: pair, Rate: 1, Source: treasury.Unknown}
	if r, ok := s.fallback.Rate(pair); ok {
		quote.Rate, quote.Source = r, treasury.Fallback
	}
	level.Warn(s.logger).Log(
		"msg", "live rate unavailable",
		"pair", pair,
		"source", quote.Source,
		"rate", quote.Rate,
		"err", err,
	)
	return quote
}

// History looks up the daily closes of the pair over the trailing window.
// Any failure yields an empty series.
func (s *service) History(ctx context.Context, from, to treasury.Currency, days int) treasury.Series {
	var series treasury.Series
	pair := treasury.Pair{From: from, To: to}
	if days <= 0 || pair.Identity() {
		return series
	}

	end := s.now()
	start := end.AddDate(0, 0, -days)
	series, err := s.source.History(ctx, pair.Ticker(), start, end)
	if err != nil {
		level.Warn(s.logger).Log("msg", "rate history unavailable", "pair", pair, "days", days, "err", err)
		return treasury.Series{}
	}
	return *series.Trim(days)
}

// round rounds a live rate to the displayed precision.
func round(r treasury.Rate) treasury.Rate {
	return treasury.Rate(decimal.NewFromFloat(float64(r)).Round(decimals).InexactFloat64())
}
