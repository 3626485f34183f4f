package engine

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	zero = big.NewInt(0)
	one  = big.NewInt(1)
)

// cp returns a copy of v. A nil v copies as zero.
func cp(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// clamp returns v limited to [0, max] as a new value.
func clamp(v, max *big.Int) *big.Int {
	out := cp(v)
	if out.Sign() < 0 {
		return out.SetInt64(0)
	}
	if max != nil && out.Cmp(max) > 0 {
		return out.Set(max)
	}
	return out
}

// atLeast returns max(v, floor) as a new value.
func atLeast(v, floor *big.Int) *big.Int {
	if v.Cmp(floor) < 0 {
		return cp(floor)
	}
	return cp(v)
}

// scale returns floor(v * factor).
func scale(v *big.Int, factor decimal.Decimal) *big.Int {
	return decimal.NewFromBigInt(cp(v), 0).Mul(factor).Floor().BigInt()
}

// percent returns floor(v * pct / 100).
func percent(v *big.Int, pct int64) *big.Int {
	out := new(big.Int).Mul(cp(v), big.NewInt(pct))
	return out.Div(out, big.NewInt(100))
}
