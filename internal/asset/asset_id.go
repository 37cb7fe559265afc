// Package asset models Solana assets and exact smallest-unit amounts.
// The core uses big.Int for exact on-chain representation.
// decimal.Decimal is only used at boundaries (config, display, sizing ratios).
package asset

import (
	"fmt"
	"strings"

	"github.com/fd1az/pool-sniper/internal/solana"
)

const fiatPrefix = "fiat:"

// AssetID uniquely identifies an asset by its mint address.
// Native SOL has an empty mint. Fiat units use a "fiat:" prefixed symbol.
type AssetID struct {
	mint string
}

// NewNativeAssetID returns the id of native SOL.
func NewNativeAssetID() AssetID {
	return AssetID{}
}

// NewMintAssetID creates an AssetID for an SPL token mint.
func NewMintAssetID(mint string) (AssetID, error) {
	if err := solana.ValidatePublicKey(mint); err != nil {
		return AssetID{}, fmt.Errorf("asset: invalid mint: %w", err)
	}
	return AssetID{mint: mint}, nil
}

// MustMintAssetID is NewMintAssetID for compile-time constants.
func MustMintAssetID(mint string) AssetID {
	id, err := NewMintAssetID(mint)
	if err != nil {
		panic(err)
	}
	return id
}

// NewFiatAssetID creates an AssetID for an off-chain unit of account.
func NewFiatAssetID(symbol string) AssetID {
	return AssetID{mint: fiatPrefix + strings.ToUpper(symbol)}
}

// Mint returns the token mint address (empty for native SOL and fiat).
func (id AssetID) Mint() string {
	if id.IsFiat() {
		return ""
	}
	return id.mint
}

// IsNative returns true for native SOL.
func (id AssetID) IsNative() bool {
	return id.mint == ""
}

// IsToken returns true for SPL token mints.
func (id AssetID) IsToken() bool {
	return id.mint != "" && !id.IsFiat()
}

// IsFiat returns true for off-chain units.
func (id AssetID) IsFiat() bool {
	return strings.HasPrefix(id.mint, fiatPrefix)
}

// String returns a human-readable representation.
func (id AssetID) String() string {
	switch {
	case id.IsNative():
		return "solana/native"
	case id.IsFiat():
		return id.mint
	default:
		return "solana/" + id.mint
	}
}

// Equals compares two AssetIDs for equality.
func (id AssetID) Equals(other AssetID) bool {
	return id.mint == other.mint
}
