package rates

import (
	treasury "github.com/Anne71-cloud/treasury-dashboard"
)

// Table static rates keyed by pair symbol, e.g. "EURUSD".
type Table map[string]treasury.Rate

// DefaultFallback approximate rates for the pairs of the reference deployment.
var DefaultFallback = Table{
	"ZARUSD": 0.053,
	"EURUSD": 1.08,
	"GBPUSD": 1.27,
	"USDZAR": 18.9,
	"USDEUR": 0.93,
	"USDGBP": 0.79,
}

// Rate returns the tabulated rate of the pair.
func (t Table) Rate(pair treasury.Pair) (treasury.Rate, bool) {
	r, ok := t[pair.Symbol()]
	return r, ok
}

// FallbackRate returns the rate of the pair in DefaultFallback.
func FallbackRate(pair treasury.Pair) (treasury.Rate, bool) {
	return DefaultFallback.Rate(pair)
}
