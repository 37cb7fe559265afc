// Package wallet reads the trading wallet from Solana RPC.
package wallet

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/asset"
	"github.com/fd1az/pool-sniper/internal/solana"
)

// RPC is the subset of the Solana client the wallet uses.
type RPC interface {
	GetBalance(ctx context.Context, pubkey string) (uint64, error)
}

// Balance implements app.BalanceProvider for one address.
type Balance struct {
	rpc     RPC
	address string
}

// NewBalance creates a balance provider for address.
func NewBalance(rpc RPC, address string) (*Balance, error) {
	if err := solana.ValidatePublicKey(address); err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err), apperror.WithContext("wallet address"))
	}
	return &Balance{rpc: rpc, address: address}, nil
}

// Balance returns the wallet's SOL balance.
func (b *Balance) Balance(ctx context.Context) (decimal.Decimal, error) {
	lamports, err := b.rpc.GetBalance(ctx, b.address)
	if err != nil {
		return decimal.Zero, apperror.Wrap(err, apperror.CodeLookupFailed, "wallet "+b.address)
	}
	return asset.Lamports(lamports).ToDecimal(), nil
}

// Fixed is a BalanceProvider with a constant balance, used for paper trading
// without a configured wallet.
type Fixed decimal.Decimal

// Balance returns the fixed amount.
func (f Fixed) Balance(context.Context) (decimal.Decimal, error) {
	return decimal.Decimal(f), nil
}
