package infra

import (
	"bytes"
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chainDomain "github.com/fd1az/pool-sniper/business/chain/domain"
	"github.com/fd1az/pool-sniper/business/pipeline/domain"
	scoringDomain "github.com/fd1az/pool-sniper/business/scoring/domain"
	tradingDomain "github.com/fd1az/pool-sniper/business/trading/domain"
	"github.com/fd1az/pool-sniper/pkg/ui"
)

func executedOutcome() domain.Outcome {
	a := scoringDomain.NewAssessment(map[scoringDomain.Factor]int{
		scoringDomain.FactorLiquidity: 9,
		scoringDomain.FactorTiming:    7,
	}, []string{scoringDomain.TagNoSocials}, false)
	a.Liquidity = decimal.RequireFromString("42.5")
	a.TokenSymbol = "DOGE"
	a.TokenName = "Doge Sol"

	opp := chainDomain.Opportunity{
		ID:        "2soASZVz6NaEUZtRyCbf3hAdpPAAiecRovUSi99FFw9GJGQTbdoPFaFctNx1Nzt2FzPMLj5JjBnkXJm6CGofULNX",
		Pool:      "3gLESRnfLgzAqu6PwGhBwsiBsnQ7BAtyWHhZ5zNcDPMF",
		BaseMint:  "Ef37CudiH2EeQegAn9gGUjKrGCwf5ksMzXnSAPpWtv17",
		BlockTime: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		Variant:   chainDomain.ConstantProduct,
	}
	return domain.Outcome{
		State:        domain.StateExecuted,
		Reason:       "executed",
		Signal:       &domain.Signal{Opportunity: opp, Assessment: a},
		Trade:        &tradingDomain.TradeResult{Signature: "txsig", ExecutedAmount: 100_000_000},
		Notification: "sent",
		Opportunity:  opp,
	}
}

func TestConsoleReporter_Report(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.Report(executedOutcome())

	out := buf.String()
	assert.Contains(t, out, "NEW POOL DETECTED")
	assert.Contains(t, out, "$DOGE (Doge Sol)")
	assert.Contains(t, out, "Composite:      8/10")
	assert.Contains(t, out, "Liquidity:      42.50 SOL")
	assert.Contains(t, out, "supply:         n/a")
	assert.Contains(t, out, "DECISION:       ✅ Bought 0.1 SOL")
	assert.Contains(t, out, "Transaction:    txsig")
}

func TestConsoleReporter_SkipsDuplicates(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	o := executedOutcome()
	o.State = domain.StateDuplicate
	r.Report(o)
	assert.Empty(t, buf.String())

	o.State = domain.StateInvalid
	o.Reason = "pool: empty base58 value"
	r.Report(o)
	assert.Contains(t, buf.String(), "invalid event 2soA...ULNX: pool: empty base58 value")
}

func TestConsoleReporter_ReportStatsOnlyOnChange(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)
	r.now = func() time.Time { return time.Date(2026, 3, 10, 9, 30, 0, 0, time.Local) }

	s := domain.Stats{Received: 3, Scored: 2, Executed: 1, Skipped: map[domain.State]int{domain.StateSkippedLowScore: 1}}
	gate := tradingDomain.GateSnapshot{TodayCount: 1, MaxDaily: 10, Remaining: 90 * time.Second}

	r.ReportStats(s, gate)
	r.ReportStats(s, gate)

	lines := bytes.Count(buf.Bytes(), []byte("\n"))
	assert.Equal(t, 1, lines)
	assert.Contains(t, buf.String(), "[09:30:00] received=3 scored=2 executed=1 failed=0 skipped=1 trades_today=1/10 cooldown=1m30s")
}

func TestTUIReporter_ForwardsMessages(t *testing.T) {
	var msgs []tea.Msg
	r := &TUIReporter{send: func(m tea.Msg) { msgs = append(msgs, m) }}

	require.NoError(t, r.Start(context.Background()))
	r.Report(executedOutcome())
	r.ReportStats(domain.Stats{Received: 1}, tradingDomain.GateSnapshot{MaxDaily: 10})
	r.UpdateConnectionStatus("solana_ws", "connected")
	require.NoError(t, r.Stop())

	require.Len(t, msgs, 4)
	assert.Equal(t, ui.StartupMsg{Step: ui.StepPipeline, Status: ui.StepReady}, msgs[0])

	om, ok := msgs[1].(ui.OutcomeMsg)
	require.True(t, ok)
	assert.Equal(t, domain.StateExecuted, om.Outcome.State)

	sm, ok := msgs[2].(ui.StatsMsg)
	require.True(t, ok)
	assert.Equal(t, 1, sm.Stats.Received)

	assert.Equal(t, ui.ConnectionStatusMsg{Name: "solana_ws", State: "connected"}, msgs[3])
}
