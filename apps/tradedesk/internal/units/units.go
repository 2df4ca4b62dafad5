// Package units converts between operator-facing decimal amounts and the
// fixed-point integer amounts the ledger contracts work in.
package units

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ToBase scales a decimal amount string (e.g. "10.5") into base units for a
// token with the given decimal count. Fractional dust beyond the token's
// precision is truncated.
func ToBase(amount string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid decimal amount %q: %w", amount, err)
	}
	return d.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}

// FromBase renders a base-unit amount as a decimal string with trailing
// zeros trimmed, e.g. 1050000000000000000 at 18 decimals -> "1.05".
func FromBase(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}
