// Package treasury holds the domain types shared by the rate provider, the
// exposure calculator and the dashboard.
package treasury

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Currency a three-letter currency code
type Currency string

// ParseCurrency normalises user input into a Currency.
func ParseCurrency(s string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(s)))
}

// Amount a cash amount, signed
type Amount float64

// Rate an exchange rate: units of the 'to' currency per one unit of the 'from' currency
type Rate float64

// Pair a currency pair to convert from one currency to another.
type Pair struct {
	From Currency
	To   Currency
}

// Symbol is the concatenated pair code, e.g. "EURUSD".
func (p Pair) Symbol() string { return string(p.From) + string(p.To) }

// Ticker is the market data symbol of the pair, e.g. "EURUSD=X".
func (p Pair) Ticker() string { return p.Symbol() + "=X" }

// Identity reports whether the pair converts a currency into itself.
func (p Pair) Identity() bool { return p.From == p.To }

func (p Pair) String() string { return string(p.From) + "/" + string(p.To) }

func (p Pair) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Source tells where a rate comes from.
type Source int

const (
	// Identity rate of a currency into itself, always 1.
	Identity Source = iota
	// Live rate quoted by the market data source.
	Live
	// Fallback rate read from the static table after the live lookup failed.
	Fallback
	// Unknown pair: the live lookup failed and the static table has no entry.
	// The rate is defaulted to 1 and must not be trusted.
	Unknown
)

var sourceNames = [...]string{"identity", "live", "fallback", "unknown"}

func (s Source) String() string {
	if s < 0 || int(s) >= len(sourceNames) {
		return "invalid"
	}
	return sourceNames[s]
}

func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Quote a spot rate for a pair, with its provenance.
type Quote struct {
	Pair   Pair   `json:"pair"`
	Rate   Rate   `json:"rate"`
	Source Source `json:"source"`
	// AsOf market time of a live quote, zero otherwise.
	AsOf time.Time `json:"asOf"`
}

// Position the cash held by one entity in one currency.
type Position struct {
	Entity   string   `json:"entity" yaml:"entity"`
	Currency Currency `json:"currency" yaml:"currency"`
	Amount   Amount   `json:"amount" yaml:"amount"`
}

var (
	ErrMissingEntity   = errors.New("missing entity")
	ErrMissingCurrency = errors.New("missing currency")
)

// Validate checks the position names its entity and currency.
func (p Position) Validate() error {
	if strings.TrimSpace(p.Entity) == "" {
		return ErrMissingEntity
	}
	if ParseCurrency(string(p.Currency)) == "" {
		return ErrMissingCurrency
	}
	return nil
}

// Totals maps a currency to the sum of all amounts held in it.
type Totals map[Currency]Amount

// TotalsOf aggregates positions by currency.
func TotalsOf(positions []Position) Totals {
	totals := Totals{}
	for _, p := range positions {
		totals[p.Currency] += p.Amount
	}
	return totals
}

// Validate checks every total is keyed by a currency.
func (t Totals) Validate() error {
	for c := range t {
		if ParseCurrency(string(c)) == "" {
			return ErrMissingCurrency
		}
	}
	return nil
}

// Currencies returns the currencies of the totals in alphabetical order.
func (t Totals) Currencies() []Currency {
	currencies := make([]Currency, 0, len(t))
	for c := range t {
		currencies = append(currencies, c)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })
	return currencies
}

// ImpactFactor the adverse move used to size the impact of an exposure.
const ImpactFactor = 0.05

// Exposure the FX exposure of the cash held in one non-base currency.
type Exposure struct {
	Currency Currency `json:"currency"`
	Amount   Amount   `json:"amount"`
	Rate     Rate     `json:"rate"`
	Source   Source   `json:"source"`
	// Exposure the amount converted into the base currency
	Exposure Amount `json:"exposure"`
	// Impact the change of Exposure on a 5% adverse move
	Impact Amount `json:"impact"`
}
