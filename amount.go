package chainvoice

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// USDCDecimals is the number of decimal places of the stablecoin used for
// invoicing. Base units = decimal amount x 10^6.
const USDCDecimals = 6

// decimalAmountRegex matches non-negative plain decimal strings. Scientific
// notation, signs, and bare "." forms are rejected.
var decimalAmountRegex = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ToBaseUnits converts a human-readable decimal amount string to an integer
// amount of base units, computed as floor(amount x 10^decimals).
//
// Conversion is done with exact decimal-string arithmetic: fractional digits
// beyond `decimals` are truncated, never rounded, so an amount can never be
// rounded up past what the payer entered. For example, "100.50" with 6
// decimals becomes 100500000.
//
// Returns ErrInvalidAmount for negative, empty, or non-numeric input.
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, fmt.Errorf("%w: negative decimals %d", ErrInvalidAmount, decimals)
	}
	if !decimalAmountRegex.MatchString(amount) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	intPart := amount
	fracPart := ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		intPart, fracPart = amount[:i], amount[i+1:]
	}

	// Truncate the fraction to the declared precision (floor), then pad the
	// remainder with zeros so the concatenation is the base-unit integer.
	if len(fracPart) > decimals {
		fracPart = fracPart[:decimals]
	}
	fracPart += strings.Repeat("0", decimals-len(fracPart))

	units, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return units, nil
}

// FromBaseUnits converts an integer amount of base units back to a decimal
// string, trimming trailing fractional zeros. For example, 100500000 with 6
// decimals becomes "100.5".
func FromBaseUnits(units *big.Int, decimals int) string {
	if units == nil {
		return "0"
	}
	if decimals == 0 {
		return units.String()
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	quo, rem := new(big.Int).QuoRem(units, divisor, new(big.Int))
	rem.Abs(rem)

	sign := ""
	if units.Sign() < 0 {
		sign = "-"
		quo.Abs(quo)
	}

	frac := rem.String()
	frac = strings.Repeat("0", decimals-len(frac)) + frac
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return sign + quo.String()
	}
	return sign + quo.String() + "." + frac
}
