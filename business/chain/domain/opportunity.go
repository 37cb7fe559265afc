// Package domain contains the core domain types for the chain context.
package domain

import (
	"strings"
	"time"

	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/solana"
)

// PoolVariant is the AMM curve of a newly created pool.
type PoolVariant string

const (
	ConstantProduct       PoolVariant = "constant_product"
	ConcentratedLiquidity PoolVariant = "concentrated_liquidity"
)

// Valid reports whether v is a known variant.
func (v PoolVariant) Valid() bool {
	return v == ConstantProduct || v == ConcentratedLiquidity
}

// Opportunity is one detected pool-creation event.
// ID is the transaction signature; dedup operates on it, not on Pool.
type Opportunity struct {
	ID        string
	Pool      string
	BaseMint  string
	QuoteMint string
	Deployer  string
	BlockTime time.Time
	Variant   PoolVariant
	Slot      uint64
	Program   string
}

// Age returns how long ago the pool was created relative to now.
func (o Opportunity) Age(now time.Time) time.Duration {
	return now.Sub(o.BlockTime)
}

// Validate checks that every required field is present and well formed.
func (o Opportunity) Validate() error {
	var problems []string

	if err := solana.ValidateSignature(o.ID); err != nil {
		problems = append(problems, "id: "+err.Error())
	}
	for _, f := range []struct{ name, key string }{
		{"pool", o.Pool},
		{"base_mint", o.BaseMint},
		{"quote_mint", o.QuoteMint},
		{"deployer", o.Deployer},
	} {
		if err := solana.ValidatePublicKey(f.key); err != nil {
			problems = append(problems, f.name+": "+err.Error())
		}
	}
	if o.BaseMint != "" && o.BaseMint == o.QuoteMint {
		problems = append(problems, "base_mint equals quote_mint")
	}
	if !o.Variant.Valid() {
		problems = append(problems, "unknown variant "+string(o.Variant))
	}
	if o.BlockTime.IsZero() {
		problems = append(problems, "block_time is zero")
	}

	if len(problems) > 0 {
		return apperror.New(apperror.CodeInvalidOpportunity,
			apperror.WithContext(strings.Join(problems, "; ")))
	}
	return nil
}
