// internal/domain/cart/price.go
package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice reads a stored price string. Anything that is not a decimal
// ("", "abc", "$10") is treated as zero so totals never fail.
func ParsePrice(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatPrice renders a decimal the way prices are stored ("65.00").
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// NormalizePrice re-renders a numeric price string with two decimals.
// Non-numeric input is returned trimmed but otherwise untouched.
func NormalizePrice(s string) string {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return FormatPrice(d)
}
