// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/solana"
)

// Config holds all application configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Solana      SolanaConfig      `mapstructure:"solana"`
	DexScreener DexScreenerConfig `mapstructure:"dexscreener"`
	Scoring     ScoringConfig     `mapstructure:"scoring"`
	Trading     TradingConfig     `mapstructure:"trading"`
	Notify      NotifyConfig      `mapstructure:"notify"`
	Pipeline    PipelineConfig    `mapstructure:"pipeline"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // Set at runtime, not from config file
}

// SolanaConfig holds Solana node configuration.
type SolanaConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	WebSocketURL   string        `mapstructure:"websocket_url"`
	Commitment     string        `mapstructure:"commitment"`
	Programs       []string      `mapstructure:"programs"`
	WalletAddress  string        `mapstructure:"wallet_address"`
	RPCRateLimit   float64       `mapstructure:"rpc_rate_limit"` // requests per second
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// DexScreenerConfig holds the market-data API configuration.
type DexScreenerConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	RateLimit int           `mapstructure:"rate_limit"` // requests per minute
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ScoringConfig holds risk scoring configuration.
type ScoringConfig struct {
	LookupTimeout     time.Duration `mapstructure:"lookup_timeout"`
	NameDenylist      []string      `mapstructure:"name_denylist"`
	PeakStartHour     int           `mapstructure:"peak_start_hour"`
	PeakEndHour       int           `mapstructure:"peak_end_hour"`
	ExtendedStartHour int           `mapstructure:"extended_start_hour"`
	ExtendedEndHour   int           `mapstructure:"extended_end_hour"`
	BlacklistEnabled  bool          `mapstructure:"blacklist_enabled"`
	Blacklist         []string      `mapstructure:"blacklist"`
}

// TradingConfig holds execution gate and order sizing configuration.
type TradingConfig struct {
	AutoTradeEnabled  bool          `mapstructure:"auto_trade_enabled"`
	TestMode          bool          `mapstructure:"test_mode"`
	MaxTradeAmount    float64       `mapstructure:"max_trade_amount"` // SOL
	MinTradeAmount    float64       `mapstructure:"min_trade_amount"` // SOL
	MinLiquidity      float64       `mapstructure:"min_liquidity"`    // SOL
	MaxSlippage       float64       `mapstructure:"max_slippage"`     // percent
	RiskThreshold     int           `mapstructure:"risk_threshold"`
	CooldownPeriod    int           `mapstructure:"cooldown_period"` // seconds
	MaxDailyTrades    int           `mapstructure:"max_daily_trades"`
	BalanceFraction   float64       `mapstructure:"balance_fraction"`
	LiquidityFraction float64       `mapstructure:"liquidity_fraction"`
	ExecutionTimeout  time.Duration `mapstructure:"execution_timeout"`
	Executor          string        `mapstructure:"executor"` // paper | swapapi
	SwapAPIURL        string        `mapstructure:"swap_api_url"`
	SwapAPIToken      string        `mapstructure:"swap_api_token"`
	PaperBalance      float64       `mapstructure:"paper_balance"` // SOL, paper executor without a wallet
}

// Cooldown returns the global cooldown window.
func (c *TradingConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownPeriod) * time.Second
}

// MaxTradeAmountDecimal returns the per-trade ceiling in SOL.
func (c *TradingConfig) MaxTradeAmountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxTradeAmount)
}

// MinTradeAmountDecimal returns the absolute order floor in SOL.
func (c *TradingConfig) MinTradeAmountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinTradeAmount)
}

// MinLiquidityDecimal returns the liquidity gate in SOL.
func (c *TradingConfig) MinLiquidityDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinLiquidity)
}

// MaxSlippageDecimal returns the slippage tolerance in percent.
func (c *TradingConfig) MaxSlippageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxSlippage)
}

// NotifyConfig holds notification publishing configuration.
type NotifyConfig struct {
	Publisher    string        `mapstructure:"publisher"` // console | x
	XBaseURL     string        `mapstructure:"x_base_url"`
	XBearerToken string        `mapstructure:"x_bearer_token"`
	MinInterval  time.Duration `mapstructure:"min_interval"`
	QuotaLimit   int           `mapstructure:"quota_limit"`
	QuotaWindow  time.Duration `mapstructure:"quota_window"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	MaxLength    int           `mapstructure:"max_length"`
	SendTimeout  time.Duration `mapstructure:"send_timeout"`
}

// PipelineConfig holds decision pipeline configuration.
type PipelineConfig struct {
	Workers       int `mapstructure:"workers"`
	DedupCapacity int `mapstructure:"dedup_capacity"`
	BufferSize    int `mapstructure:"buffer_size"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"` // zipkin | console | honeycomb | newrelic
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SNIPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithCause(err),
				apperror.WithContext("read config"))
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("unmarshal config"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "SNIPER_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SNIPER_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SNIPER_LOG_LEVEL", "LOG_LEVEL")

	// Solana
	v.BindEnv("solana.rpc_url", "SNIPER_SOLANA_RPC_URL", "SOLANA_RPC_URL")
	v.BindEnv("solana.websocket_url", "SNIPER_SOLANA_WS_URL", "SOLANA_WS_URL")
	v.BindEnv("solana.wallet_address", "SNIPER_WALLET_ADDRESS", "WALLET_ADDRESS")

	// Scoring
	v.BindEnv("scoring.blacklist_enabled", "SNIPER_BLACKLIST_ENABLED", "BLACKLIST_ENABLED")

	// Trading gates
	v.BindEnv("trading.max_trade_amount", "SNIPER_MAX_TRADE_AMOUNT", "MAX_TRADE_AMOUNT")
	v.BindEnv("trading.min_liquidity", "SNIPER_MIN_LIQUIDITY", "MIN_LIQUIDITY")
	v.BindEnv("trading.max_slippage", "SNIPER_MAX_SLIPPAGE", "MAX_SLIPPAGE")
	v.BindEnv("trading.risk_threshold", "SNIPER_RISK_THRESHOLD", "RISK_THRESHOLD")
	v.BindEnv("trading.cooldown_period", "SNIPER_COOLDOWN_PERIOD", "COOLDOWN_PERIOD")
	v.BindEnv("trading.auto_trade_enabled", "SNIPER_AUTO_TRADE_ENABLED", "AUTO_TRADE_ENABLED")
	v.BindEnv("trading.test_mode", "SNIPER_TEST_MODE", "TEST_MODE")
	v.BindEnv("trading.max_daily_trades", "SNIPER_MAX_DAILY_TRADES", "MAX_DAILY_TRADES")
	v.BindEnv("trading.swap_api_url", "SNIPER_SWAP_API_URL", "SWAP_API_URL")
	v.BindEnv("trading.swap_api_token", "SNIPER_SWAP_API_TOKEN", "SWAP_API_TOKEN")

	// Notify
	v.BindEnv("notify.x_bearer_token", "SNIPER_X_BEARER_TOKEN", "X_BEARER_TOKEN")

	// Telemetry
	v.BindEnv("telemetry.enabled", "SNIPER_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "SNIPER_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "SNIPER_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pool-sniper")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("solana.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("solana.websocket_url", "wss://api.mainnet-beta.solana.com")
	v.SetDefault("solana.commitment", solana.DefaultCommitment)
	v.SetDefault("solana.programs", []string{solana.RaydiumAMMV4Program})
	v.SetDefault("solana.rpc_rate_limit", solana.DefaultRateLimit)
	v.SetDefault("solana.max_reconnects", 0) // infinite
	v.SetDefault("solana.initial_backoff", "1s")
	v.SetDefault("solana.max_backoff", "30s")

	v.SetDefault("dexscreener.base_url", "https://api.dexscreener.com")
	v.SetDefault("dexscreener.rate_limit", 300)
	v.SetDefault("dexscreener.timeout", "5s")

	v.SetDefault("scoring.lookup_timeout", "5s")
	v.SetDefault("scoring.name_denylist", []string{"test", "scam", "rug", "fake", "honeypot", "ponzi"})
	v.SetDefault("scoring.peak_start_hour", 14)
	v.SetDefault("scoring.peak_end_hour", 21)
	v.SetDefault("scoring.extended_start_hour", 12)
	v.SetDefault("scoring.extended_end_hour", 23)
	v.SetDefault("scoring.blacklist_enabled", true)
	v.SetDefault("scoring.blacklist", []string{})

	v.SetDefault("trading.auto_trade_enabled", false)
	v.SetDefault("trading.test_mode", false)
	v.SetDefault("trading.max_trade_amount", 0.1)
	v.SetDefault("trading.min_trade_amount", 0.001)
	v.SetDefault("trading.min_liquidity", 10)
	v.SetDefault("trading.max_slippage", 5)
	v.SetDefault("trading.risk_threshold", 7)
	v.SetDefault("trading.cooldown_period", 300)
	v.SetDefault("trading.max_daily_trades", 10)
	v.SetDefault("trading.balance_fraction", 0.9)
	v.SetDefault("trading.liquidity_fraction", 0.05)
	v.SetDefault("trading.execution_timeout", "300s")
	v.SetDefault("trading.executor", "paper")
	v.SetDefault("trading.paper_balance", 1.0)

	v.SetDefault("notify.publisher", "console")
	v.SetDefault("notify.x_base_url", "https://api.x.com")
	v.SetDefault("notify.min_interval", "60s")
	v.SetDefault("notify.quota_limit", 300)
	v.SetDefault("notify.quota_window", "15m")
	v.SetDefault("notify.max_attempts", 3)
	v.SetDefault("notify.max_length", 280)
	v.SetDefault("notify.send_timeout", "10s")

	v.SetDefault("pipeline.workers", 1)
	v.SetDefault("pipeline.dedup_capacity", 1000)
	v.SetDefault("pipeline.buffer_size", 256)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "pool-sniper")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Solana.RPCURL == "" {
		add("solana.rpc_url is required")
	}
	if c.Solana.WebSocketURL == "" {
		add("solana.websocket_url is required")
	}
	for _, p := range c.Solana.Programs {
		if err := solana.ValidatePublicKey(p); err != nil {
			add("invalid solana.programs entry %q", p)
		}
	}
	if c.Solana.WalletAddress != "" {
		if err := solana.ValidatePublicKey(c.Solana.WalletAddress); err != nil {
			add("invalid solana.wallet_address: %v", err)
		}
	}

	s := c.Scoring
	if s.LookupTimeout <= 0 {
		add("scoring.lookup_timeout must be positive")
	}
	for name, h := range map[string]int{
		"peak_start_hour": s.PeakStartHour, "peak_end_hour": s.PeakEndHour,
		"extended_start_hour": s.ExtendedStartHour, "extended_end_hour": s.ExtendedEndHour,
	} {
		if h < 0 || h > 23 {
			add("scoring.%s must be within 0-23, got %d", name, h)
		}
	}

	t := c.Trading
	if t.RiskThreshold < 1 || t.RiskThreshold > 10 {
		add("trading.risk_threshold must be within 1-10, got %d", t.RiskThreshold)
	}
	if t.MaxTradeAmount <= 0 {
		add("trading.max_trade_amount must be positive")
	}
	if t.MinTradeAmount < 0 {
		add("trading.min_trade_amount cannot be negative")
	}
	if t.MinLiquidity < 0 {
		add("trading.min_liquidity cannot be negative")
	}
	if t.MaxSlippage < 0 || t.MaxSlippage >= 100 {
		add("trading.max_slippage must be within [0,100), got %v", t.MaxSlippage)
	}
	if t.CooldownPeriod < 0 {
		add("trading.cooldown_period cannot be negative")
	}
	if t.MaxDailyTrades < 1 {
		add("trading.max_daily_trades must be at least 1")
	}
	if t.BalanceFraction <= 0 || t.BalanceFraction > 1 {
		add("trading.balance_fraction must be within (0,1]")
	}
	if t.LiquidityFraction <= 0 || t.LiquidityFraction > 1 {
		add("trading.liquidity_fraction must be within (0,1]")
	}
	if t.ExecutionTimeout <= 0 {
		add("trading.execution_timeout must be positive")
	}
	switch t.Executor {
	case "paper":
	case "swapapi":
		if t.SwapAPIURL == "" {
			add("trading.swap_api_url is required for the swapapi executor")
		}
	default:
		add("unknown trading.executor %q", t.Executor)
	}
	if t.AutoTradeEnabled && !t.TestMode && c.Solana.WalletAddress == "" {
		add("solana.wallet_address is required when auto trading is enabled")
	}

	n := c.Notify
	switch n.Publisher {
	case "console":
	case "x":
		if n.XBearerToken == "" {
			add("notify.x_bearer_token is required for the x publisher")
		}
	default:
		add("unknown notify.publisher %q", n.Publisher)
	}
	if n.QuotaLimit < 1 || n.QuotaWindow <= 0 {
		add("notify.quota_limit and notify.quota_window must be positive")
	}
	if n.MaxAttempts < 1 {
		add("notify.max_attempts must be at least 1")
	}
	if n.MaxLength < 10 {
		add("notify.max_length must be at least 10")
	}

	if c.Pipeline.Workers < 1 {
		add("pipeline.workers must be at least 1")
	}
	if c.Pipeline.DedupCapacity < 1 {
		add("pipeline.dedup_capacity must be at least 1")
	}

	if len(problems) > 0 {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(strings.Join(problems, "; ")))
	}
	return nil
}
