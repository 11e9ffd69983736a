package program

import (
	"fmt"

	"github.com/holiman/uint256"
)

var hundred = uint256.NewInt(100)

// ComputeFee splits amount into the fee skimmed at rate percent and the
// remainder forwarded to the venue. The product is taken in 256 bits so any
// u64 amount is exact; fee + remaining == amount on success.
func ComputeFee(amount uint64, rate uint8) (fee, remaining uint64, err error) {
	product := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(uint64(rate)))
	wide := product.Div(product, hundred)
	if !wide.IsUint64() {
		return 0, 0, fmt.Errorf("%w: fee on %d at %d%%", ErrArithmeticOverflow, amount, rate)
	}
	fee = wide.Uint64()
	if fee > amount {
		return 0, 0, fmt.Errorf("%w: fee %d exceeds amount %d", ErrInsufficientFunds, fee, amount)
	}
	return fee, amount - fee, nil
}
