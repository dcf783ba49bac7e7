package render

import (
	"slices"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
)

// FormatMoney formats amount held in currency, e.g. "$1,234.50" or "R5,000,000.00".
// Currencies unknown to go-money are prefixed with their code and get two decimals.
func FormatMoney(amount treasury.Amount, currency treasury.Currency) string {
	c := money.GetCurrency(string(currency))
	if c == nil {
		c = &money.Currency{
			Code:     string(currency),
			Grapheme: string(currency),
			Template: "$ 1",
			Decimal:  ".",
			Thousand: ",",
			Fraction: 2,
		}
	}
	minor := decimal.NewFromFloat(float64(amount)).Shift(int32(c.Fraction)).Round(0)
	return c.Formatter().Format(minor.IntPart())
}

func formatRate(r treasury.Rate) string {
	return decimal.NewFromFloat(float64(r)).StringFixed(4)
}

func formatPercent(f float64) string {
	return decimal.NewFromFloat(f).Shift(2).StringFixed(1) + "%"
}

func formatSource(s treasury.Source) string {
	switch s {
	case treasury.Fallback:
		return "fallback ⚠"
	case treasury.Unknown:
		return "unknown ⚠ (assumed 1.0)"
	default:
		return s.String()
	}
}

var bars = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws the rates of the series as a line of block characters, scaled
// between the lowest and the highest rate.
func Sparkline(s treasury.Series) string {
	rates := s.Rates()
	if len(rates) == 0 {
		return ""
	}
	lo, hi := slices.Min(rates), slices.Max(rates)

	var b strings.Builder
	for _, r := range rates {
		i := len(bars) / 2
		if hi > lo {
			i = int(float64(r-lo) / float64(hi-lo) * float64(len(bars)-1))
		}
		b.WriteRune(bars[i])
	}
	return b.String()
}
