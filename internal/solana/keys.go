package solana

import (
	"fmt"

	"github.com/mr-tron/base58"
)

const (
	// PublicKeyLength is the decoded size of an ed25519 public key.
	PublicKeyLength = 32
	// SignatureLength is the decoded size of a transaction signature.
	SignatureLength = 64

	// LamportsPerSOL converts between SOL and lamports.
	LamportsPerSOL = 1_000_000_000
)

// Well-known program ids.
const (
	RaydiumAMMV4Program = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	RaydiumCLMMProgram  = "CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"
	TokenProgram        = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022Program    = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	SystemProgram       = "11111111111111111111111111111111"
	WrappedSOLMint      = "So11111111111111111111111111111111111111112"
)

// ValidatePublicKey checks that s is base58 for a 32-byte key and not the all-zero key.
func ValidatePublicKey(s string) error {
	raw, err := decode(s, PublicKeyLength)
	if err != nil {
		return err
	}
	for _, b := range raw {
		if b != 0 {
			return nil
		}
	}
	return fmt.Errorf("public key %q is the default key", s)
}

// ValidateSignature checks that s is base58 for a 64-byte signature.
func ValidateSignature(s string) error {
	_, err := decode(s, SignatureLength)
	return err
}

func decode(s string, want int) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty base58 value")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode base58 %q: %w", s, err)
	}
	if len(raw) != want {
		return nil, fmt.Errorf("base58 %q decodes to %d bytes, want %d", s, len(raw), want)
	}
	return raw, nil
}

// Shorten renders a key as "abcd...wxyz" for display.
func Shorten(key string) string {
	if len(key) <= 10 {
		return key
	}
	return key[:4] + "..." + key[len(key)-4:]
}
