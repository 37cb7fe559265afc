package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/solana"
)

func validOpportunity() Opportunity {
	return Opportunity{
		ID:        "2soASZVz6NaEUZtRyCbf3hAdpPAAiecRovUSi99FFw9GJGQTbdoPFaFctNx1Nzt2FzPMLj5JjBnkXJm6CGofULNX",
		Pool:      "3gLESRnfLgzAqu6PwGhBwsiBsnQ7BAtyWHhZ5zNcDPMF",
		BaseMint:  "Ef37CudiH2EeQegAn9gGUjKrGCwf5ksMzXnSAPpWtv17",
		QuoteMint: solana.WrappedSOLMint,
		Deployer:  "H4tGwnuuaJKBnA5J4Q7K1jcDQSjd3odTGCK8uU5qxd4m",
		BlockTime: time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC),
		Variant:   ConstantProduct,
	}
}

func TestOpportunity_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Opportunity)
		valid  bool
	}{
		{"valid", func(*Opportunity) {}, true},
		{"missing id", func(o *Opportunity) { o.ID = "" }, false},
		{"id is a pubkey", func(o *Opportunity) { o.ID = o.Pool }, false},
		{"bad pool", func(o *Opportunity) { o.Pool = "not-base58!" }, false},
		{"missing deployer", func(o *Opportunity) { o.Deployer = "" }, false},
		{"same mints", func(o *Opportunity) { o.QuoteMint = o.BaseMint }, false},
		{"unknown variant", func(o *Opportunity) { o.Variant = "stable" }, false},
		{"zero block time", func(o *Opportunity) { o.BlockTime = time.Time{} }, false},
		{"clmm", func(o *Opportunity) { o.Variant = ConcentratedLiquidity }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opp := validOpportunity()
			tt.mutate(&opp)
			err := opp.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeInvalidOpportunity))
		})
	}
}

func TestOpportunity_Age(t *testing.T) {
	opp := validOpportunity()
	assert.Equal(t, 90*time.Minute, opp.Age(opp.BlockTime.Add(90*time.Minute)))
}
