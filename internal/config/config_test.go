package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/pool-sniper/internal/apperror"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: pool-sniper\n"))
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Trading.RiskThreshold)
	assert.Equal(t, 300*time.Second, cfg.Trading.Cooldown())
	assert.Equal(t, 10, cfg.Trading.MaxDailyTrades)
	assert.Equal(t, "10", cfg.Trading.MinLiquidityDecimal().String())
	assert.False(t, cfg.Trading.AutoTradeEnabled)
	assert.True(t, cfg.Scoring.BlacklistEnabled)
	assert.Equal(t, 5*time.Second, cfg.Scoring.LookupTimeout)
	assert.Equal(t, 1000, cfg.Pipeline.DedupCapacity)
	assert.Equal(t, 280, cfg.Notify.MaxLength)
	assert.Equal(t, 60*time.Second, cfg.Notify.MinInterval)
}

func TestLoad_EnvironmentNames(t *testing.T) {
	t.Setenv("RISK_THRESHOLD", "8")
	t.Setenv("SNIPER_MAX_DAILY_TRADES", "3")
	t.Setenv("COOLDOWN_PERIOD", "120")
	t.Setenv("TEST_MODE", "true")
	t.Setenv("MIN_LIQUIDITY", "25.5")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Trading.RiskThreshold)
	assert.Equal(t, 3, cfg.Trading.MaxDailyTrades)
	assert.Equal(t, 2*time.Minute, cfg.Trading.Cooldown())
	assert.True(t, cfg.Trading.TestMode)
	assert.Equal(t, "25.5", cfg.Trading.MinLiquidityDecimal().String())
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
scoring:
  lookup_timeout: 2s
  name_denylist: [moon]
trading:
  executor: swapapi
  swap_api_url: http://localhost:8899
notify:
  quota_window: 5m
pipeline:
  workers: 4
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Scoring.LookupTimeout)
	assert.Equal(t, []string{"moon"}, cfg.Scoring.NameDenylist)
	assert.Equal(t, "swapapi", cfg.Trading.Executor)
	assert.Equal(t, 5*time.Minute, cfg.Notify.QuotaWindow)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
}

func TestLoad_InvalidValuesAreConfigurationErrors(t *testing.T) {
	path := writeConfig(t, `
trading:
  risk_threshold: 11
  max_slippage: 100
  executor: magic
notify:
  publisher: x
pipeline:
  workers: 0
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConfigurationError))

	for _, want := range []string{
		"trading.risk_threshold",
		"trading.max_slippage",
		`unknown trading.executor "magic"`,
		"notify.x_bearer_token is required",
		"pipeline.workers",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, apperror.CodeConfigurationError, apperror.GetCode(err))
}

func TestValidate_LiveTradingNeedsWallet(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	cfg.Trading.AutoTradeEnabled = true
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solana.wallet_address is required")

	cfg.Trading.TestMode = true
	assert.NoError(t, cfg.Validate(), "test mode never trades")
}
