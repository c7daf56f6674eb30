// Package validation provides input validation for addresses, amounts, and
// invoice ids. All checks run locally before any external call is made.
package validation

import (
	"fmt"
	"math/big"
	"regexp"
)

// addressRegex matches Ethereum-style addresses (0x followed by 40 hex chars)
var addressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ValidateAddress validates an Ethereum address: 0x prefix followed by
// exactly 40 hexadecimal characters.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if !addressRegex.MatchString(address) {
		return fmt.Errorf("invalid address format: %s (expected 0x followed by 40 hex characters)", address)
	}
	return nil
}

// ValidateBaseUnits validates that an amount string is a positive base-unit
// integer. Returns an error if the amount is empty, malformed, or not greater
// than zero.
func ValidateBaseUnits(amount string) error {
	if amount == "" {
		return fmt.Errorf("amount cannot be empty")
	}

	amt, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return fmt.Errorf("invalid amount format: %s", amount)
	}

	if amt.Sign() <= 0 {
		return fmt.Errorf("amount must be greater than 0, got: %s", amount)
	}

	return nil
}

// decimalRegex matches plain positive decimal amounts.
var decimalRegex = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ValidatePositiveDecimal validates that an amount string is a plain decimal
// number greater than zero.
func ValidatePositiveDecimal(amount string) error {
	if amount == "" {
		return fmt.Errorf("amount cannot be empty")
	}
	if !decimalRegex.MatchString(amount) {
		return fmt.Errorf("invalid decimal format: %s", amount)
	}
	f, ok := new(big.Rat).SetString(amount)
	if !ok || f.Sign() <= 0 {
		return fmt.Errorf("amount must be greater than 0, got: %s", amount)
	}
	return nil
}
