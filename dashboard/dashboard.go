// Package dashboard aggregates cash positions into the figures shown on the treasury dashboard.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
	"github.com/Anne71-cloud/treasury-dashboard/exposure"
	"github.com/Anne71-cloud/treasury-dashboard/rates"
)

var (
	ErrUnsupportedBase  = errors.New("unsupported base currency")
	ErrUnsupportedTrend = errors.New("unsupported trend currency")
)

// Builder builds dashboards from positions. Currencies are the ones offered as base and
// tracked in the sidebar, in display order.
type Builder struct {
	Rates       rates.Service
	Currencies  []treasury.Currency
	HistoryDays int
}

// Request selects what to build.
type Request struct {
	Base treasury.Currency `json:"base"`
	// Trend the currency whose rate into Base is charted, defaults to the first non-base currency.
	Trend     treasury.Currency   `json:"trend"`
	Positions []treasury.Position `json:"positions"`
}

// Slice the cash held in one currency.
type Slice struct {
	Currency  treasury.Currency `json:"currency"`
	Amount    treasury.Amount   `json:"amount"`
	Converted treasury.Amount   `json:"converted"`
	// Share fraction of the total liquidity
	Share float64 `json:"share"`
}

// Row the cash held by one entity.
type Row struct {
	Entity    string            `json:"entity"`
	Currency  treasury.Currency `json:"currency"`
	Amount    treasury.Amount   `json:"amount"`
	Converted treasury.Amount   `json:"converted"`
}

// Trend the rate history of one currency into base.
type Trend struct {
	Pair      treasury.Pair   `json:"pair"`
	Series    treasury.Series `json:"points"`
	Available bool            `json:"available"`
}

// Dashboard everything displayed for one base currency.
type Dashboard struct {
	Base treasury.Currency `json:"base"`
	// Currencies the configured currencies, for base selection
	Currencies []treasury.Currency `json:"currencies"`
	// Rates into base of every other configured currency
	Rates []treasury.Quote `json:"rates"`

	Totals         treasury.Totals                       `json:"totals"`
	Converted      map[treasury.Currency]treasury.Amount `json:"converted"`
	TotalLiquidity treasury.Amount                       `json:"totalLiquidity"`
	ByCurrency     []Slice                               `json:"byCurrency"`
	ByEntity       []Row                                 `json:"byEntity"`

	CurrenciesTracked int `json:"currenciesTracked"`
	Entities          int `json:"entities"`

	Exposures  []treasury.Exposure `json:"exposures"`
	NoExposure bool                `json:"noExposure"`

	// TrendChoices the currencies a trend can be charted for
	TrendChoices []treasury.Currency `json:"trendChoices"`
	Trend        Trend               `json:"trend"`
}

// Build computes the dashboard of r.
func (b *Builder) Build(ctx context.Context, r Request) (*Dashboard, error) {
	if !slices.Contains(b.Currencies, r.Base) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedBase, r.Base)
	}

	choices := make([]treasury.Currency, 0, len(b.Currencies))
	for _, c := range b.Currencies {
		if c != r.Base {
			choices = append(choices, c)
		}
	}
	trend := r.Trend
	if trend == "" && len(choices) > 0 {
		trend = choices[0]
	}
	if trend != "" && !slices.Contains(choices, trend) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedTrend, trend)
	}

	rate := memo(b.Rates.Rate)

	d := &Dashboard{
		Base:         r.Base,
		Currencies:   slices.Clone(b.Currencies),
		Rates:        make([]treasury.Quote, 0, len(choices)),
		Totals:       treasury.TotalsOf(r.Positions),
		Converted:    map[treasury.Currency]treasury.Amount{},
		ByEntity:     make([]Row, 0, len(r.Positions)),
		Entities:     len(r.Positions),
		TrendChoices: choices,
	}
	for _, c := range choices {
		d.Rates = append(d.Rates, rate(ctx, c, r.Base))
	}

	total := decimal.Zero
	for _, c := range d.Totals.Currencies() {
		converted := convert(ctx, rate, d.Totals[c], c, r.Base)
		d.Converted[c] = treasury.Amount(converted.InexactFloat64())
		total = total.Add(converted)
	}
	d.TotalLiquidity = treasury.Amount(total.InexactFloat64())
	d.CurrenciesTracked = len(d.Totals)

	d.ByCurrency = make([]Slice, 0, len(d.Totals))
	for _, c := range d.Totals.Currencies() {
		s := Slice{Currency: c, Amount: d.Totals[c], Converted: d.Converted[c]}
		if !total.IsZero() {
			s.Share = decimal.NewFromFloat(float64(s.Converted)).Div(total).InexactFloat64()
		}
		d.ByCurrency = append(d.ByCurrency, s)
	}

	for _, p := range r.Positions {
		d.ByEntity = append(d.ByEntity, Row{
			Entity:    p.Entity,
			Currency:  p.Currency,
			Amount:    p.Amount,
			Converted: treasury.Amount(convert(ctx, rate, p.Amount, p.Currency, r.Base).InexactFloat64()),
		})
	}

	d.Exposures = exposure.Compute(ctx, rate, d.Totals, r.Base).Sorted()
	d.NoExposure = len(d.Exposures) == 0

	if trend != "" {
		pair := treasury.Pair{From: trend, To: r.Base}
		series := b.Rates.History(ctx, pair.From, pair.To, b.HistoryDays)
		d.Trend = Trend{Pair: pair, Series: series, Available: series.Len() > 0}
	}
	return d, nil
}

// convert converts amount held in c into base.
func convert(ctx context.Context, rate exposure.RateFunc, amount treasury.Amount, c, base treasury.Currency) decimal.Decimal {
	a := decimal.NewFromFloat(float64(amount))
	if c == base {
		return a
	}
	return a.Mul(decimal.NewFromFloat(float64(rate(ctx, c, base).Rate)))
}

// memo caches the quotes of one build so that each pair is looked up once.
func memo(rate exposure.RateFunc) exposure.RateFunc {
	quotes := map[treasury.Pair]treasury.Quote{}
	return func(ctx context.Context, from, to treasury.Currency) treasury.Quote {
		pair := treasury.Pair{From: from, To: to}
		if q, ok := quotes[pair]; ok {
			return q
		}
		q := rate(ctx, from, to)
		quotes[pair] = q
		return q
	}
}
