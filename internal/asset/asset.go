package asset

// Asset is the metadata of native SOL, an SPL token or a fiat unit.
// Identity is the AssetID. Symbols are display metadata and not unique on Solana.
type Asset struct {
	id       AssetID
	symbol   string
	name     string
	decimals uint8
}

// NewAssetWithName creates an Asset. It panics on an empty symbol or more than 30 decimals,
// both of which indicate a programming error rather than bad chain data.
func NewAssetWithName(id AssetID, symbol, name string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}
	return &Asset{id: id, symbol: symbol, name: name, decimals: decimals}
}

func (a *Asset) ID() AssetID     { return a.id }
func (a *Asset) Symbol() string  { return a.symbol }
func (a *Asset) Decimals() uint8 { return a.decimals }
func (a *Asset) String() string  { return a.symbol }

// Name returns the token name, falling back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// Mint returns the SPL mint address, empty for native SOL and fiat.
func (a *Asset) Mint() string {
	return a.id.Mint()
}
