package correios

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var nonDigits = regexp.MustCompile(`[^0-9]`)

// DigitsOnly strips every character that is not an ASCII digit.
// "88.134-400" becomes "88134400".
func DigitsOnly(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// FixedDecimal parses s and renders it with exactly scale fractional digits,
// rounding half away from zero: FixedDecimal("1.10", 3) == "1.100".
func FixedDecimal(s string, scale int32) (string, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return "", err
	}
	return d.StringFixed(scale), nil
}

// parseDecimal accepts period-decimal input ("1234.5") as well as the
// Brazilian comma form used on the wire ("1.234,50").
func parseDecimal(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	if i := strings.IndexByte(v, ','); i >= 0 {
		whole, frac := v[:i], v[i+1:]
		if strings.ContainsAny(frac, ".,") || !thousandsGrouped(whole) {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
		}
		v = strings.ReplaceAll(whole, ".", "") + "." + frac
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return d, nil
}

// thousandsGrouped reports whether the dots in whole separate groups of three
// digits, as in "1.234.567". A part without dots is accepted as is.
func thousandsGrouped(whole string) bool {
	groups := strings.Split(strings.TrimLeft(whole, "+-"), ".")
	if len(groups) == 1 {
		return true
	}
	if n := len(groups[0]); n < 1 || n > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}
