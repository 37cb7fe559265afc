package asset

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrNilAsset        = errors.New("asset: nil asset")
	ErrNegativeAmount  = errors.New("asset: negative amount")
	ErrAssetMismatch   = errors.New("asset: cannot operate on different assets")
	ErrNegativeResult  = errors.New("asset: operation would result in negative amount")
	ErrTooManyDecimals = errors.New("asset: too many decimal places for asset")
)

// Amount is an immutable non-negative quantity of an asset in its smallest unit
// (lamports for SOL, base units for SPL tokens).
type Amount struct {
	raw   *big.Int
	asset *Asset
}

func newAmount(a *Asset, raw *big.Int) Amount {
	if a == nil {
		panic(ErrNilAsset)
	}
	if raw.Sign() < 0 {
		panic(ErrNegativeAmount)
	}
	return Amount{raw: raw, asset: a}
}

// Zero returns a zero Amount of a.
func Zero(a *Asset) Amount {
	return newAmount(a, new(big.Int))
}

// NewAmountFromUint64 creates an Amount of raw smallest units.
func NewAmountFromUint64(a *Asset, raw uint64) Amount {
	return newAmount(a, new(big.Int).SetUint64(raw))
}

// Lamports creates a SOL Amount.
func Lamports(n uint64) Amount {
	return NewAmountFromUint64(SOL, n)
}

// Raw returns a copy of the smallest-unit value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

// Uint64 returns the smallest-unit value, saturating at the uint64 maximum.
func (a Amount) Uint64() uint64 {
	switch {
	case a.raw == nil:
		return 0
	case !a.raw.IsUint64():
		return ^uint64(0)
	default:
		return a.raw.Uint64()
	}
}

func (a Amount) IsZero() bool     { return a.raw == nil || a.raw.Sign() == 0 }
func (a Amount) IsPositive() bool { return a.raw != nil && a.raw.Sign() > 0 }

// Add returns a+b. Both must be of the same asset.
func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.sameAsset(b); err != nil {
		return Amount{}, err
	}
	return newAmount(a.asset, new(big.Int).Add(a.raw, b.raw)), nil
}

// Sub returns a-b, failing with ErrNegativeResult when b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.sameAsset(b); err != nil {
		return Amount{}, err
	}
	if a.raw.Cmp(b.raw) < 0 {
		return Amount{}, ErrNegativeResult
	}
	return newAmount(a.asset, new(big.Int).Sub(a.raw, b.raw)), nil
}

// MulDecimal scales by a non-negative factor, rounding down to the smallest unit.
func (a Amount) MulDecimal(factor decimal.Decimal) Amount {
	if factor.IsNegative() {
		panic(ErrNegativeAmount)
	}
	return newAmount(a.asset, decimal.NewFromBigInt(a.raw, 0).Mul(factor).Floor().BigInt())
}

// Min returns the smallest of the given amounts, which must share an asset.
func Min(first Amount, rest ...Amount) (Amount, error) {
	least := first
	for _, b := range rest {
		if err := least.sameAsset(b); err != nil {
			return Amount{}, err
		}
		if b.raw.Cmp(least.raw) < 0 {
			least = b
		}
	}
	return least, nil
}

// Equals reports same asset and same value.
func (a Amount) Equals(b Amount) bool {
	return a.sameAsset(b) == nil && a.raw.Cmp(b.raw) == 0
}

// GreaterThan reports a > b.
func (a Amount) GreaterThan(b Amount) (bool, error) {
	if err := a.sameAsset(b); err != nil {
		return false, err
	}
	return a.raw.Cmp(b.raw) > 0, nil
}

// LessThan reports a < b.
func (a Amount) LessThan(b Amount) (bool, error) {
	if err := a.sameAsset(b); err != nil {
		return false, err
	}
	return a.raw.Cmp(b.raw) < 0, nil
}

// ToDecimal converts to whole units, e.g. lamports to SOL.
func (a Amount) ToDecimal() decimal.Decimal {
	if a.raw == nil || a.asset == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.raw, -int32(a.asset.Decimals()))
}

// ParseDecimal converts whole units exactly, failing when d has more precision than the asset.
func ParseDecimal(a *Asset, d decimal.Decimal) (Amount, error) {
	if a == nil {
		return Amount{}, ErrNilAsset
	}
	if d.IsNegative() {
		return Amount{}, ErrNegativeAmount
	}
	scaled := d.Shift(int32(a.Decimals()))
	if !scaled.Equal(scaled.Truncate(0)) {
		return Amount{}, ErrTooManyDecimals
	}
	return newAmount(a, scaled.BigInt()), nil
}

// FromDecimalFloor converts whole units, dropping excess precision. Negative input yields zero.
func FromDecimalFloor(a *Asset, d decimal.Decimal) Amount {
	if d.IsNegative() {
		return Zero(a)
	}
	return newAmount(a, d.Shift(int32(a.Decimals())).Floor().BigInt())
}

// String renders e.g. "1.5 SOL".
func (a Amount) String() string {
	if a.asset == nil {
		return "0 ???"
	}
	return fmt.Sprintf("%s %s", a.ToDecimal().String(), a.asset.Symbol())
}

func (a Amount) sameAsset(b Amount) error {
	if a.asset == nil || b.asset == nil {
		return ErrNilAsset
	}
	if !a.asset.ID().Equals(b.asset.ID()) {
		return fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, a.asset.Symbol(), b.asset.Symbol())
	}
	return nil
}
