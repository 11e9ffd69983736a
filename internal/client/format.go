package client

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const lamportDecimals = 9

// FormatSOL renders lamports as SOL without trailing zeros.
func FormatSOL(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -lamportDecimals).String()
}

// ParseSOL converts a SOL amount such as "0.25" to lamports.
func ParseSOL(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", s)
	}
	lamports := d.Shift(lamportDecimals)
	if !lamports.IsInteger() {
		return 0, fmt.Errorf("%s has more than %d decimals", s, lamportDecimals)
	}
	n := lamports.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("%s SOL does not fit in lamports", s)
	}
	return n.Uint64(), nil
}
