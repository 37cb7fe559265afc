// Package raydium detects Raydium pool creations from Solana log subscriptions.
package raydium

import (
	"bytes"
	"strings"
	"time"

	"github.com/mr-tron/base58"

	"github.com/fd1az/pool-sniper/business/chain/domain"
	"github.com/fd1az/pool-sniper/internal/asset"
	"github.com/fd1az/pool-sniper/internal/solana"
)

// AMM v4 initialize2 is tag 1 of the native instruction enum.
const ammInitialize2Tag = 1

// Anchor discriminator of the CLMM create_pool instruction.
var clmmCreatePoolDiscriminator = []byte{0xe9, 0x92, 0xd1, 0x8e, 0xcf, 0x68, 0x40, 0xbc}

// Account positions inside the pool-creation instructions.
const (
	ammPoolIndex      = 4
	ammCoinMintIndex  = 8
	ammPcMintIndex    = 9
	ammCreatorIndex   = 17
	ammMinAccounts    = 18
	clmmCreatorIndex  = 0
	clmmPoolIndex     = 2
	clmmMint0Index    = 3
	clmmMint1Index    = 4
	clmmMinAccounts   = 5
	logAMMInitialize  = "initialize2"
	logCLMMCreatePool = "Instruction: CreatePool"
)

// IsPoolCreation reports whether program logs announce a pool initialisation.
func IsPoolCreation(logs []string) bool {
	for _, line := range logs {
		if strings.Contains(line, logAMMInitialize) || strings.Contains(line, logCLMMCreatePool) {
			return true
		}
	}
	return false
}

// DecodeOpportunities extracts every top-level pool-creation instruction in tx.
func DecodeOpportunities(tx *solana.Transaction) []domain.Opportunity {
	if tx == nil || tx.Failed {
		return nil
	}

	blockTime := time.Unix(tx.BlockTime, 0).UTC()
	var out []domain.Opportunity

	for _, ix := range tx.Instructions {
		data, err := base58.Decode(ix.Data)
		if err != nil || len(data) == 0 {
			continue
		}

		var opp domain.Opportunity
		switch {
		case ix.ProgramID == solana.RaydiumAMMV4Program && data[0] == ammInitialize2Tag && len(ix.Accounts) >= ammMinAccounts:
			opp = domain.Opportunity{
				Pool:      ix.Accounts[ammPoolIndex],
				BaseMint:  ix.Accounts[ammCoinMintIndex],
				QuoteMint: ix.Accounts[ammPcMintIndex],
				Deployer:  ix.Accounts[ammCreatorIndex],
				Variant:   domain.ConstantProduct,
			}
		case ix.ProgramID == solana.RaydiumCLMMProgram && bytes.HasPrefix(data, clmmCreatePoolDiscriminator) && len(ix.Accounts) >= clmmMinAccounts:
			opp = domain.Opportunity{
				Pool:      ix.Accounts[clmmPoolIndex],
				BaseMint:  ix.Accounts[clmmMint0Index],
				QuoteMint: ix.Accounts[clmmMint1Index],
				Deployer:  ix.Accounts[clmmCreatorIndex],
				Variant:   domain.ConcentratedLiquidity,
			}
		default:
			continue
		}

		opp.ID = tx.Signature
		opp.Slot = tx.Slot
		opp.BlockTime = blockTime
		opp.Program = ix.ProgramID
		// The new token is the base; pools list SOL/USDC on either side.
		if asset.IsQuoteMint(opp.BaseMint) && !asset.IsQuoteMint(opp.QuoteMint) {
			opp.BaseMint, opp.QuoteMint = opp.QuoteMint, opp.BaseMint
		}
		out = append(out, opp)
	}

	return out
}
