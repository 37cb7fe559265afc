package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Risk-factor tags attached to an assessment.
const (
	TagMintAuthorityRetained   = "mint_authority_retained"
	TagFreezeAuthorityRetained = "freeze_authority_retained"
	TagSuspiciousName          = "suspicious_name"
	TagMissingMetadata         = "missing_metadata"
	TagVeryNewPool             = "very_new_pool"
	TagLowLiquidity            = "low_liquidity"
	TagNoSocials               = "no_socials"
	TagPoorDeployer            = "low_deployer_balance"
	TagBlacklisted             = "blacklisted"
	TagLowComposite            = "low_composite"
	tagFactorFailedPrefix      = "factor_failed:"
)

// FactorFailedTag names the tag recorded when a factor could not be computed.
func FactorFailedTag(f Factor) string {
	return tagFactorFailedPrefix + string(f)
}

// ScamThreshold is the composite below which an assessment is flagged as a scam.
const ScamThreshold = 3

// Assessment is the immutable result of scoring one opportunity.
type Assessment struct {
	scores    map[Factor]int
	failed    []Factor
	composite int
	tags      []string
	scam      bool

	Liquidity   decimal.Decimal // SOL
	MarketCap   decimal.Decimal // USD
	TokenName   string
	TokenSymbol string
}

// NewAssessment builds an assessment from the factors that succeeded.
// Factors absent from scores are recorded as failed.
func NewAssessment(scores map[Factor]int, tags []string, blacklisted bool) Assessment {
	a := Assessment{scores: make(map[Factor]int, len(scores))}
	for f, s := range scores {
		a.scores[f] = s
	}
	for _, f := range Factors {
		if _, ok := a.scores[f]; !ok {
			a.failed = append(a.failed, f)
			tags = append(tags, FactorFailedTag(f))
		}
	}

	a.composite = Composite(a.scores)
	if blacklisted {
		tags = append(tags, TagBlacklisted)
	}
	if a.composite < ScamThreshold {
		tags = append(tags, TagLowComposite)
	}
	a.scam = blacklisted || a.composite < ScamThreshold

	a.tags = dedupeTags(tags)
	return a
}

// Composite is the weight-normalised mean over the given factors, rounded
// half away from zero. It returns 0 when scores is empty.
func Composite(scores map[Factor]int) int {
	var num, den int64
	for f, s := range scores {
		w := int64(f.Weight())
		num += int64(s) * w
		den += w
	}
	if den == 0 {
		return 0
	}
	return int(decimal.NewFromInt(num).Div(decimal.NewFromInt(den)).Round(0).IntPart())
}

// Score returns a factor score and whether the factor succeeded.
func (a Assessment) Score(f Factor) (int, bool) {
	s, ok := a.scores[f]
	return s, ok
}

// Composite returns the composite score, 0 when every factor failed.
func (a Assessment) Composite() int { return a.composite }

// Scam reports whether the opportunity is flagged as a scam.
func (a Assessment) Scam() bool { return a.scam }

// Failed returns the factors that could not be computed.
func (a Assessment) Failed() []Factor { return append([]Factor(nil), a.failed...) }

// Tags returns the risk-factor tags, sorted.
func (a Assessment) Tags() []string { return append([]string(nil), a.tags...) }

// Tier buckets the composite for display.
func (a Assessment) Tier() Tier {
	switch {
	case a.scam:
		return TierScam
	case a.composite >= 8:
		return TierLow
	case a.composite >= 6:
		return TierMedium
	default:
		return TierHigh
	}
}

func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Tier is a coarse risk label.
type Tier string

const (
	TierLow    Tier = "LOW RISK"
	TierMedium Tier = "MEDIUM RISK"
	TierHigh   Tier = "HIGH RISK"
	TierScam   Tier = "LIKELY SCAM"
)

// Emoji returns the notification marker for the tier.
func (t Tier) Emoji() string {
	switch t {
	case TierLow:
		return "🟢"
	case TierMedium:
		return "🟡"
	case TierHigh:
		return "🔴"
	default:
		return "⛔"
	}
}
