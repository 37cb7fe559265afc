// Package domain contains the risk scoring rubric and assessment types.
package domain

import (
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Factor names one component of the composite score.
type Factor string

const (
	FactorLiquidity Factor = "liquidity"
	FactorSupply    Factor = "supply"
	FactorContract  Factor = "contract"
	FactorSocial    Factor = "social"
	FactorTiming    Factor = "timing"
	FactorDeployer  Factor = "deployer"
)

// Factors lists every factor in display order.
var Factors = []Factor{
	FactorLiquidity, FactorSupply, FactorContract, FactorSocial, FactorTiming, FactorDeployer,
}

// Weight returns the factor weight. Weights sum to 100.
func (f Factor) Weight() int {
	switch f {
	case FactorLiquidity:
		return 25
	case FactorSupply, FactorContract:
		return 20
	case FactorSocial:
		return 15
	case FactorTiming, FactorDeployer:
		return 10
	}
	return 0
}

const (
	MinScore = 1
	MaxScore = 10
	baseline = 5
)

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

var liquidityTiers = []struct {
	min   decimal.Decimal
	score int
}{
	{decimal.NewFromInt(100), 10},
	{decimal.NewFromInt(50), 8},
	{decimal.NewFromInt(20), 6},
	{decimal.NewFromInt(10), 4},
	{decimal.NewFromInt(5), 2},
}

// LiquidityScore scores pool liquidity expressed in SOL.
func LiquidityScore(liquidity decimal.Decimal) int {
	for _, tier := range liquidityTiers {
		if liquidity.GreaterThanOrEqual(tier.min) {
			return tier.score
		}
	}
	return MinScore
}

// Mint is the subset of token mint state the supply factor reads.
type Mint struct {
	Supply                 uint64 // smallest units
	Decimals               uint8
	MintAuthorityRevoked   bool
	FreezeAuthorityRevoked bool
}

// WholeSupply returns the supply in whole tokens, truncated.
func (m Mint) WholeSupply() *big.Int {
	supply := new(big.Int).SetUint64(m.Supply)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(m.Decimals)), nil)
	return supply.Quo(supply, scale)
}

// SupplyScore scores authority hygiene and supply size.
func SupplyScore(m Mint) int {
	score := baseline
	if m.MintAuthorityRevoked {
		score += 3
	} else {
		score -= 2
	}
	if m.FreezeAuthorityRevoked {
		score += 2
	} else {
		score--
	}
	if digits := len(m.WholeSupply().String()); digits >= 9 && digits <= 12 {
		score++
	}
	return clamp(score)
}

// Pool-age thresholds for the contract factor.
const (
	VeryNewPool = time.Hour
	NewPool     = 24 * time.Hour
	MaturePool  = 7 * 24 * time.Hour
)

// ContractScore scores metadata plausibility and pool age.
func ContractScore(name, symbol string, denylist []string, age time.Duration) int {
	score := baseline
	if name != "" && symbol != "" {
		score += 2
	}
	if NameIsSuspicious(name, denylist) {
		score -= 3
	}
	switch {
	case age < VeryNewPool:
		score -= 2
	case age < NewPool:
		score--
	case age > MaturePool:
		score++
	}
	return clamp(score)
}

// NameIsSuspicious reports whether name contains any denylisted substring, ignoring case.
func NameIsSuspicious(name string, denylist []string) bool {
	lower := strings.ToLower(name)
	for _, word := range denylist {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			return true
		}
	}
	return false
}

// SocialScore scores discovered websites and social links.
func SocialScore(links int) int {
	return clamp(baseline + links)
}

// TimingWindows are inclusive UTC hour ranges.
type TimingWindows struct {
	PeakStart, PeakEnd         int
	ExtendedStart, ExtendedEnd int
}

// DefaultTimingWindows returns the 14-21 peak and 12-23 extended windows.
func DefaultTimingWindows() TimingWindows {
	return TimingWindows{PeakStart: 14, PeakEnd: 21, ExtendedStart: 12, ExtendedEnd: 23}
}

func inWindow(hour, start, end int) bool {
	if start <= end {
		return hour >= start && hour <= end
	}
	return hour >= start || hour <= end
}

// TimingScore scores the visibility of the current moment.
func TimingScore(now time.Time, w TimingWindows) int {
	now = now.UTC()
	score := baseline
	switch hour := now.Hour(); {
	case inWindow(hour, w.PeakStart, w.PeakEnd):
		score += 2
	case inWindow(hour, w.ExtendedStart, w.ExtendedEnd):
		score++
	}
	if day := now.Weekday(); day != time.Saturday && day != time.Sunday {
		score++
	}
	return clamp(score)
}

// DeployerScore scores the deployer's SOL balance.
func DeployerScore(balance decimal.Decimal) int {
	score := baseline
	if balance.GreaterThan(decimal.NewFromInt(1)) {
		score++
	}
	if balance.GreaterThan(decimal.NewFromInt(10)) {
		score++
	}
	return clamp(score)
}
