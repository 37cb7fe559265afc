package solana

import (
	"strings"
	"testing"

	"github.com/mr-tron/base58"
)

func TestValidatePublicKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"raydium program", RaydiumAMMV4Program, false},
		{"wrapped sol", WrappedSOLMint, false},
		{"default key", SystemProgram, true},
		{"empty", "", true},
		{"invalid alphabet", "0OIl" + strings.Repeat("1", 28), true},
		{"wrong length", base58.Encode([]byte{1, 2, 3}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePublicKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePublicKey(%q) err = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSignature(t *testing.T) {
	sig := make([]byte, SignatureLength)
	sig[0] = 7
	if err := ValidateSignature(base58.Encode(sig)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := ValidateSignature(RaydiumAMMV4Program); err == nil {
		t.Fatal("32-byte key accepted as signature")
	}
}

func TestShorten(t *testing.T) {
	if got := Shorten(RaydiumAMMV4Program); got != "675k...1Mp8" {
		t.Errorf("Shorten = %q", got)
	}
	if got := Shorten("short"); got != "short" {
		t.Errorf("Shorten = %q", got)
	}
}
