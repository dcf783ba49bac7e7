// Package exposure sizes the FX exposure of cash held outside the base currency.
package exposure

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
)

// RateFunc looks up the rate to convert from into to.
type RateFunc func(ctx context.Context, from, to treasury.Currency) treasury.Quote

// Exposures maps each non-base currency to its exposure.
type Exposures map[treasury.Currency]treasury.Exposure

var impactFactor = decimal.NewFromFloat(treasury.ImpactFactor)

// Compute returns the exposure of every currency of totals other than base.
// The result is empty, never nil, when all cash is held in base.
func Compute(ctx context.Context, rate RateFunc, totals treasury.Totals, base treasury.Currency) Exposures {
	exposures := Exposures{}
	for _, currency := range totals.Currencies() {
		if currency == base {
			continue
		}
		amount := totals[currency]
		q := rate(ctx, currency, base)

		exposure := decimal.NewFromFloat(float64(amount)).Mul(decimal.NewFromFloat(float64(q.Rate)))
		impact := exposure.Mul(impactFactor)

		exposures[currency] = treasury.Exposure{
			Currency: currency,
			Amount:   amount,
			Rate:     q.Rate,
			Source:   q.Source,
			Exposure: treasury.Amount(exposure.InexactFloat64()),
			Impact:   treasury.Amount(impact.InexactFloat64()),
		}
	}
	return exposures
}

// Sorted returns the exposures ordered by currency.
func (e Exposures) Sorted() []treasury.Exposure {
	sorted := make([]treasury.Exposure, 0, len(e))
	for _, x := range e {
		sorted = append(sorted, x)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Currency < sorted[j].Currency })
	return sorted
}

// Total sums the exposure and the impact over all currencies.
func (e Exposures) Total() (exposure, impact treasury.Amount) {
	for _, x := range e {
		exposure += x.Exposure
		impact += x.Impact
	}
	return exposure, impact
}
