// Package domain formats pool alerts for publishing.
package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	scoringDomain "github.com/fd1az/pool-sniper/business/scoring/domain"
	"github.com/fd1az/pool-sniper/internal/solana"
)

// MaxLength is the X post limit.
const MaxLength = 280

const ellipsis = "..."

// Alert is everything a published notification shows.
type Alert struct {
	Tier      scoringDomain.Tier
	Symbol    string
	Composite int
	Liquidity decimal.Decimal // SOL
	MarketCap decimal.Decimal // USD
	Pool      string
	Mint      string
	Decision  string
}

// Text renders the alert and truncates it to max runes.
func (a Alert) Text(max int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s", a.Tier.Emoji(), a.Tier)
	if a.Symbol != "" {
		fmt.Fprintf(&b, " | $%s", a.Symbol)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Score: %d/10\n", a.Composite)
	fmt.Fprintf(&b, "Liquidity: %s SOL\n", a.Liquidity.StringFixed(2))
	if a.MarketCap.IsPositive() {
		fmt.Fprintf(&b, "MCap: $%s\n", HumanUSD(a.MarketCap))
	}
	fmt.Fprintf(&b, "Pool: %s\n", solana.Shorten(a.Pool))
	if a.Mint != "" {
		fmt.Fprintf(&b, "Token: %s\n", solana.Shorten(a.Mint))
	}
	b.WriteString(a.Decision)

	return Truncate(b.String(), max)
}

// HumanUSD abbreviates large dollar amounts: 1234 -> 1.2K, 5600000 -> 5.6M.
func HumanUSD(v decimal.Decimal) string {
	units := []struct {
		suffix string
		scale  decimal.Decimal
	}{
		{"B", decimal.New(1, 9)},
		{"M", decimal.New(1, 6)},
		{"K", decimal.New(1, 3)},
	}
	for _, u := range units {
		if v.GreaterThanOrEqual(u.scale) {
			return v.Div(u.scale).StringFixed(1) + u.suffix
		}
	}
	return v.StringFixed(0)
}

// Truncate shortens s to at most max runes, ending in "...". The cut prefers the
// last whitespace in the second half of the kept text.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return string([]rune(s)[:max])
	}

	kept := []rune(s)[:max-len(ellipsis)]
	for i := len(kept) - 1; i >= len(kept)/2; i-- {
		if unicode.IsSpace(kept[i]) {
			kept = kept[:i]
			break
		}
	}
	return strings.TrimRightFunc(string(kept), unicode.IsSpace) + ellipsis
}
