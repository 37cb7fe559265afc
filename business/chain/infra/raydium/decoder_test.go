package raydium

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/pool-sniper/business/chain/domain"
	"github.com/fd1az/pool-sniper/internal/solana"
)

const (
	testSignature = "2soASZVz6NaEUZtRyCbf3hAdpPAAiecRovUSi99FFw9GJGQTbdoPFaFctNx1Nzt2FzPMLj5JjBnkXJm6CGofULNX"
	testPool      = "3gLESRnfLgzAqu6PwGhBwsiBsnQ7BAtyWHhZ5zNcDPMF"
	testBaseMint  = "Ef37CudiH2EeQegAn9gGUjKrGCwf5ksMzXnSAPpWtv17"
	testDeployer  = "H4tGwnuuaJKBnA5J4Q7K1jcDQSjd3odTGCK8uU5qxd4m"
	testFiller    = "FciD4i2WPEYinnKaCzFZAPTUsRxTCpJM6FyQmezmkkoj"

	// base58 of {1, 254, 0...}: initialize2 tag followed by a nonce.
	initialize2Data = "2UJe46gcZ7So"
	// base58 of the create_pool discriminator plus eight zero bytes.
	createPoolData = "Vqsgg6DSF5GvZc2D3ksTzo"
	swapData      = "EMEAv"
)

func ammAccounts(coinMint, pcMint string) []string {
	accounts := make([]string, ammMinAccounts+3)
	for i := range accounts {
		accounts[i] = testFiller
	}
	accounts[ammPoolIndex] = testPool
	accounts[ammCoinMintIndex] = coinMint
	accounts[ammPcMintIndex] = pcMint
	accounts[ammCreatorIndex] = testDeployer
	return accounts
}

func TestIsPoolCreation(t *testing.T) {
	assert.True(t, IsPoolCreation([]string{
		"Program 675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8 invoke [1]",
		"Program log: initialize2: InitializeInstruction2 { nonce: 254, open_time: 0 }",
	}))
	assert.True(t, IsPoolCreation([]string{"Program log: Instruction: CreatePool"}))
	assert.False(t, IsPoolCreation([]string{"Program log: ray_log: AwAAAAAA"}))
	assert.False(t, IsPoolCreation(nil))
}

func TestDecodeOpportunities_AMM(t *testing.T) {
	tx := &solana.Transaction{
		Signature: testSignature,
		Slot:      321,
		BlockTime: 1767225600,
		Instructions: []solana.Instruction{
			{ProgramID: solana.SystemProgram, Data: swapData},
			// SOL listed as coin: decoder must put the new token in BaseMint.
			{ProgramID: solana.RaydiumAMMV4Program, Accounts: ammAccounts(solana.WrappedSOLMint, testBaseMint), Data: initialize2Data},
		},
	}

	opps := DecodeOpportunities(tx)
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.Equal(t, testSignature, opp.ID)
	assert.Equal(t, testPool, opp.Pool)
	assert.Equal(t, testBaseMint, opp.BaseMint)
	assert.Equal(t, solana.WrappedSOLMint, opp.QuoteMint)
	assert.Equal(t, testDeployer, opp.Deployer)
	assert.Equal(t, domain.ConstantProduct, opp.Variant)
	assert.Equal(t, uint64(321), opp.Slot)
	assert.Equal(t, time.Unix(1767225600, 0).UTC(), opp.BlockTime)
	assert.NoError(t, opp.Validate())
}

func TestDecodeOpportunities_CLMM(t *testing.T) {
	accounts := []string{testDeployer, testFiller, testPool, testBaseMint, solana.WrappedSOLMint, testFiller}
	tx := &solana.Transaction{
		Signature: testSignature,
		BlockTime: 1767225600,
		Instructions: []solana.Instruction{
			{ProgramID: solana.RaydiumCLMMProgram, Accounts: accounts, Data: createPoolData},
		},
	}

	opps := DecodeOpportunities(tx)
	require.Len(t, opps, 1)
	assert.Equal(t, domain.ConcentratedLiquidity, opps[0].Variant)
	assert.Equal(t, testPool, opps[0].Pool)
	assert.Equal(t, testDeployer, opps[0].Deployer)
	assert.Equal(t, testBaseMint, opps[0].BaseMint)
}

func TestDecodeOpportunities_Ignores(t *testing.T) {
	tests := map[string]*solana.Transaction{
		"nil": nil,
		"failed": {
			Signature: testSignature, Failed: true,
			Instructions: []solana.Instruction{{ProgramID: solana.RaydiumAMMV4Program, Accounts: ammAccounts(testBaseMint, solana.WrappedSOLMint), Data: initialize2Data}},
		},
		"swap": {
			Signature:    testSignature,
			Instructions: []solana.Instruction{{ProgramID: solana.RaydiumAMMV4Program, Accounts: ammAccounts(testBaseMint, solana.WrappedSOLMint), Data: swapData}},
		},
		"too few accounts": {
			Signature:    testSignature,
			Instructions: []solana.Instruction{{ProgramID: solana.RaydiumAMMV4Program, Accounts: []string{testPool}, Data: initialize2Data}},
		},
		"bad data": {
			Signature:    testSignature,
			Instructions: []solana.Instruction{{ProgramID: solana.RaydiumAMMV4Program, Accounts: ammAccounts(testBaseMint, solana.WrappedSOLMint), Data: "0OIl"}},
		},
	}

	for name, tx := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, DecodeOpportunities(tx))
		})
	}
}
