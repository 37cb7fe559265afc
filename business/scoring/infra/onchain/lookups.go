// Package onchain adapts the Solana RPC client to the scoring lookup ports.
package onchain

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/pool-sniper/business/scoring/domain"
	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/asset"
	"github.com/fd1az/pool-sniper/internal/solana"
)

// RPC is the subset of the Solana client the lookups use.
type RPC interface {
	GetMintInfo(ctx context.Context, mint string) (*solana.MintInfo, error)
	GetBalance(ctx context.Context, pubkey string) (uint64, error)
}

// Lookups implements app.MintLookup and app.BalanceLookup.
type Lookups struct {
	rpc      RPC
	registry *asset.Registry
}

// NewLookups creates on-chain lookups. Resolved mints are cached in registry.
func NewLookups(rpc RPC, registry *asset.Registry) *Lookups {
	return &Lookups{rpc: rpc, registry: registry}
}

// Mint reads the mint account of a token.
func (l *Lookups) Mint(ctx context.Context, mint string) (domain.Mint, error) {
	info, err := l.rpc.GetMintInfo(ctx, mint)
	if err != nil {
		return domain.Mint{}, apperror.Wrap(err, apperror.CodeLookupFailed, "mint "+mint)
	}

	if l.registry != nil {
		if _, known := l.registry.GetByMint(mint); !known {
			if token, err := asset.NewToken(mint, "", "", info.Decimals); err == nil {
				l.registry.Upsert(token)
			}
		}
	}

	return domain.Mint{
		Supply:                 info.Supply,
		Decimals:               info.Decimals,
		MintAuthorityRevoked:   info.MintAuthorityRevoked(),
		FreezeAuthorityRevoked: info.FreezeAuthorityRevoked(),
	}, nil
}

// Balance returns the SOL balance of owner.
func (l *Lookups) Balance(ctx context.Context, owner string) (decimal.Decimal, error) {
	lamports, err := l.rpc.GetBalance(ctx, owner)
	if err != nil {
		return decimal.Zero, apperror.Wrap(err, apperror.CodeLookupFailed, "balance "+owner)
	}
	return asset.Lamports(lamports).ToDecimal(), nil
}
