package asset

import "github.com/fd1az/pool-sniper/internal/solana"

// Well-known mint addresses on Solana mainnet.
const (
	MintUSDC = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	MintWSOL = solana.WrappedSOLMint
)

// Well-known AssetIDs
var (
	IDSOL  = NewNativeAssetID()
	IDWSOL = MustMintAssetID(MintWSOL)
	IDUSDC = MustMintAssetID(MintUSDC)
	IDUSDT = MustMintAssetID(MintUSDT)
	IDUSD  = NewFiatAssetID("USD")
)

// Well-known Assets (pre-created instances)
var (
	SOL  = NewAssetWithName(IDSOL, "SOL", "Solana", 9)
	WSOL = NewAssetWithName(IDWSOL, "WSOL", "Wrapped SOL", 9)
	USDC = NewAssetWithName(IDUSDC, "USDC", "USD Coin", 6)
	USDT = NewAssetWithName(IDUSDT, "USDT", "Tether USD", 6)
	USD  = NewAssetWithName(IDUSD, "USD", "US Dollar", 2)
)

// DefaultRegistry returns a registry pre-populated with well-known assets.
func DefaultRegistry() *Registry {
	r := NewRegistry(DefaultMaxDiscovered)
	r.Register(SOL)
	r.Register(WSOL)
	r.Register(USDC)
	r.Register(USDT)
	r.Register(USD)
	return r
}

// NewToken creates an SPL token asset. An empty symbol falls back to the shortened mint.
func NewToken(mint, symbol, name string, decimals uint8) (*Asset, error) {
	id, err := NewMintAssetID(mint)
	if err != nil {
		return nil, err
	}
	if symbol == "" {
		symbol = solana.Shorten(mint)
	}
	return NewAssetWithName(id, symbol, name, decimals), nil
}

// IsQuoteMint reports whether mint is one of the usual pool quote assets.
func IsQuoteMint(mint string) bool {
	switch mint {
	case MintWSOL, MintUSDC, MintUSDT:
		return true
	}
	return false
}
