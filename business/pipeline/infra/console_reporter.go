// Package infra contains the display adapters for the pipeline context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fd1az/pool-sniper/business/pipeline/domain"
	scoringDomain "github.com/fd1az/pool-sniper/business/scoring/domain"
	tradingDomain "github.com/fd1az/pool-sniper/business/trading/domain"
	"github.com/fd1az/pool-sniper/internal/solana"
)

const rule = "================================================================================"

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time

	lastReceived int
}

// NewConsoleReporter creates a ConsoleReporter writing to out, or stdout when out is nil.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out, now: time.Now, lastReceived: -1}
}

// Start prints the banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "Pool Sniper Started")
	fmt.Fprintln(r.out, "===================")
	return nil
}

// Report prints one processed opportunity. Duplicates are not printed.
func (r *ConsoleReporter) Report(o domain.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch o.State {
	case domain.StateDuplicate:
		return
	case domain.StateInvalid:
		fmt.Fprintf(r.out, "[%s] invalid event %s: %s\n", r.stamp(), solana.Shorten(o.Opportunity.ID), o.Reason)
		return
	}

	opp := o.Opportunity
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, "NEW POOL DETECTED")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "Signature:      %s\n", opp.ID)
	fmt.Fprintf(r.out, "Slot:           %d\n", opp.Slot)
	fmt.Fprintf(r.out, "Block time:     %s\n", opp.BlockTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(r.out, "Pool:           %s (%s)\n", opp.Pool, opp.Variant)
	fmt.Fprintf(r.out, "Token:          %s\n", opp.BaseMint)
	fmt.Fprintf(r.out, "Deployer:       %s\n", opp.Deployer)

	if o.Signal != nil {
		a := o.Signal.Assessment
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintln(r.out, "ASSESSMENT")
		if a.TokenSymbol != "" {
			fmt.Fprintf(r.out, "  Symbol:         $%s (%s)\n", a.TokenSymbol, a.TokenName)
		}
		fmt.Fprintf(r.out, "  Composite:      %d/10 %s\n", a.Composite(), a.Tier())
		fmt.Fprintf(r.out, "  Liquidity:      %s SOL\n", a.Liquidity.StringFixed(2))
		for _, f := range scoringDomain.Factors {
			if s, ok := a.Score(f); ok {
				fmt.Fprintf(r.out, "  %-15s %d\n", string(f)+":", s)
			} else {
				fmt.Fprintf(r.out, "  %-15s n/a\n", string(f)+":")
			}
		}
		if tags := a.Tags(); len(tags) > 0 {
			fmt.Fprintf(r.out, "  Tags:           %s\n", strings.Join(tags, ", "))
		}
	}

	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintf(r.out, "DECISION:       %s\n", o.DecisionLine())
	if o.Trade != nil {
		fmt.Fprintf(r.out, "  Transaction:    %s\n", o.Trade.Signature)
	}
	if o.Notification != "" {
		fmt.Fprintf(r.out, "  Notification:   %s\n", o.Notification)
	}
	fmt.Fprintln(r.out, rule)
}

// ReportStats prints a summary line when new opportunities arrived since the last one.
func (r *ConsoleReporter) ReportStats(s domain.Stats, gate tradingDomain.GateSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.Received == r.lastReceived {
		return
	}
	r.lastReceived = s.Received

	line := fmt.Sprintf("[%s] received=%d scored=%d executed=%d failed=%d skipped=%d trades_today=%d/%d",
		r.stamp(), s.Received, s.Scored, s.Executed, s.ExecutionFailures, s.TotalSkipped(),
		gate.TodayCount, gate.MaxDaily)
	if gate.Remaining > 0 {
		line += fmt.Sprintf(" cooldown=%s", gate.Remaining.Round(time.Second))
	}
	if s.NotificationsPending > 0 {
		line += fmt.Sprintf(" alerts_pending=%d", s.NotificationsPending)
	}
	if s.Paused {
		line += " PAUSED"
	}
	fmt.Fprintln(r.out, line)
}

// UpdateConnectionStatus prints connection state changes.
func (r *ConsoleReporter) UpdateConnectionStatus(name, state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%s] %s: %s\n", r.stamp(), name, state)
}

// Stop prints the shutdown line.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Pool Sniper Stopped")
	return nil
}

func (r *ConsoleReporter) stamp() string {
	return r.now().Format("15:04:05")
}
