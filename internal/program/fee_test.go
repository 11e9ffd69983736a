package program

import (
	"errors"
	"math"
	"math/big"
	"testing"
)

func TestComputeFee(t *testing.T) {
	cases := []struct {
		amount    uint64
		rate      uint8
		fee       uint64
		remaining uint64
	}{
		{1_000_000, 5, 50_000, 950_000},
		{1_000_000, 0, 0, 1_000_000},
		{1_000_000, 100, 1_000_000, 0},
		{99, 1, 0, 99},
		{0, 50, 0, 0},
		{math.MaxUint64, 100, math.MaxUint64, 0},
		{math.MaxUint64, 1, math.MaxUint64 / 100, math.MaxUint64 - math.MaxUint64/100},
	}
	for _, tc := range cases {
		fee, remaining, err := ComputeFee(tc.amount, tc.rate)
		if err != nil {
			t.Fatalf("ComputeFee(%d, %d): %v", tc.amount, tc.rate, err)
		}
		if fee != tc.fee || remaining != tc.remaining {
			t.Fatalf("ComputeFee(%d, %d) = %d, %d; want %d, %d", tc.amount, tc.rate, fee, remaining, tc.fee, tc.remaining)
		}
	}
}

func TestComputeFeeMatchesWideArithmetic(t *testing.T) {
	amounts := []uint64{1, 7, 100, 12_345_678, 1 << 40, math.MaxUint64 / 3, math.MaxUint64 - 1, math.MaxUint64}
	for _, amount := range amounts {
		for rate := 0; rate <= MaxFeeRate; rate++ {
			fee, remaining, err := ComputeFee(amount, uint8(rate))
			if err != nil {
				t.Fatalf("ComputeFee(%d, %d): %v", amount, rate, err)
			}
			want := new(big.Int).Mul(new(big.Int).SetUint64(amount), big.NewInt(int64(rate)))
			want.Div(want, big.NewInt(100))
			if want.Uint64() != fee {
				t.Fatalf("ComputeFee(%d, %d) fee %d, want %s", amount, rate, fee, want)
			}
			if fee+remaining != amount || fee > amount {
				t.Fatalf("ComputeFee(%d, %d) does not split amount: %d + %d", amount, rate, fee, remaining)
			}
		}
	}
}

func TestComputeFeeOutOfRangeRate(t *testing.T) {
	if _, _, err := ComputeFee(1, 255); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if _, _, err := ComputeFee(math.MaxUint64, 255); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}
