// Package amount converts user-typed decimal strings into exact integer
// base-unit amounts. All arithmetic is integer string manipulation; no
// floating point is involved at any step.
package amount

import (
	"math/big"
	"strings"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	pkgerrors "github.com/pkg/errors"
)

// MaxIntegerDigits is the overflow guard on the integer part of user input.
const MaxIntegerDigits = 10

// Sanitize normalizes raw keyboard input: every decimal point beyond the
// first one is stripped, so "1.2.3" becomes "1.23". Other characters are
// left untouched for Normalize to validate.
func Sanitize(raw string) string {
	first := strings.Index(raw, ".")
	if first == -1 {
		return raw
	}
	head := raw[:first+1]
	tail := strings.ReplaceAll(raw[first+1:], ".", "")
	return head + tail
}

// Normalize converts a decimal string into an exact base-unit integer for a
// token with the given decimals. Fractional digits beyond the token's
// precision are truncated. Failure means "no quote requested", not a user
// facing error: callers must swallow it into an empty state.
//
// Parameters:
// - raw: the user-typed amount, digits with at most one decimal point.
// - decimals: the token's decimals.
//
// Returns:
// - *big.Int: the base-unit amount. Zero is a valid result; callers short-circuit quoting on it.
// - error: ErrInvalidAmount on empty, non-numeric or over-length input.
func Normalize(raw string, decimals int) (*big.Int, error) {
	raw = strings.TrimSpace(Sanitize(raw))
	if raw == "" {
		return nil, errors.ErrInvalidAmount
	}
	if decimals < 0 {
		return nil, pkgerrors.Wrap(errors.ErrInvalidAmount, "negative decimals")
	}

	whole, frac := raw, ""
	if i := strings.Index(raw, "."); i != -1 {
		whole, frac = raw[:i], raw[i+1:]
	}
	if whole == "" && frac == "" {
		return nil, errors.ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return nil, errors.ErrInvalidAmount
	}
	if len(strings.TrimLeft(whole, "0")) > MaxIntegerDigits {
		return nil, pkgerrors.Wrapf(errors.ErrInvalidAmount, "integer part exceeds %d digits", MaxIntegerDigits)
	}

	if len(frac) < decimals {
		frac += strings.Repeat("0", decimals-len(frac))
	} else {
		frac = frac[:decimals]
	}

	combined := strings.TrimLeft(whole+frac, "0")
	if combined == "" {
		combined = "0"
	}

	result, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, errors.ErrInvalidAmount
	}
	return result, nil
}

// FromBaseUnits renders a base-unit amount back to a decimal string,
// trimming trailing fractional zeros.
func FromBaseUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}

	str := v.String()
	negative := strings.HasPrefix(str, "-")
	if negative {
		str = str[1:]
	}

	if len(str) <= decimals {
		str = strings.Repeat("0", decimals-len(str)+1) + str
	}

	cut := len(str) - decimals
	whole, frac := str[:cut], strings.TrimRight(str[cut:], "0")

	result := whole
	if frac != "" {
		result += "." + frac
	}
	if negative {
		result = "-" + result
	}
	return result
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
