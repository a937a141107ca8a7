package ledger

import (
	"math/big"

	sdkmath "cosmossdk.io/math"

	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

// CheckedAdd returns a+b, or ArithmeticOverflow if the sum does not fit in 64 bits.
func CheckedAdd(a, b uint64) (uint64, *types.Error) {
	sum, err := sdkmath.NewIntFromUint64(a).SafeAdd(sdkmath.NewIntFromUint64(b))
	if err != nil || !sum.IsUint64() {
		return 0, types.NewLedgerError(types.ArithmeticOverflow, "%d + %d overflows amount", a, b)
	}
	return sum.Uint64(), nil
}

// CheckedSub returns a-b, or ArithmeticOverflow if b > a.
func CheckedSub(a, b uint64) (uint64, *types.Error) {
	diff, err := sdkmath.NewIntFromUint64(a).SafeSub(sdkmath.NewIntFromUint64(b))
	if err != nil || !diff.IsUint64() {
		return 0, types.NewLedgerError(types.ArithmeticOverflow, "%d - %d underflows amount", a, b)
	}
	return diff.Uint64(), nil
}

// Elapsed returns now-last in seconds. A clock that went backwards is InvalidTime.
func Elapsed(last, now int64) (uint64, *types.Error) {
	if now < last {
		return 0, types.NewLedgerError(types.InvalidTime, "time %d is before last update %d", now, last)
	}
	return uint64(now - last), nil
}

// AddPoints returns a+b, or ArithmeticOverflow when the sum leaves the
// representable decimal range.
func AddPoints(a, b sdkmath.LegacyDec) (sdkmath.LegacyDec, *types.Error) {
	// LegacyDec.Add panics out of range, so sum the raw integers first
	raw := new(big.Int).Add(a.BigInt(), b.BigInt())
	sum := sdkmath.LegacyNewDecFromBigIntWithPrec(raw, sdkmath.LegacyPrecision)
	if !sum.IsInValidRange() {
		return sdkmath.LegacyDec{}, types.NewLedgerError(types.ArithmeticOverflow, "points %s + %s overflow", a, b)
	}
	return sum, nil
}
