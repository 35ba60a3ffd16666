package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 定义整个配置的结构
type Config struct {
	Log           LogConfig           `mapstructure:"log"`
	Bot           BotConfig           `mapstructure:"bot"`
	Engine        EngineConfig        `mapstructure:"engine"`
	Swap          SwapConfig          `mapstructure:"swap"`
	Helius        HeliusConfig        `mapstructure:"helius"`
	Jupiter       JupiterConfig       `mapstructure:"jupiter"`
	Solana        SolanaConfig        `mapstructure:"solana"`
	TradeLog      TradeLogConfig      `mapstructure:"trade_log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Monitor       MonitorConfig       `mapstructure:"monitor"`
}

// LogConfig Log 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

// BotConfig 跟单风控参数，对应 BotSettings
type BotConfig struct {
	MaxAmountPerTx    float64  `mapstructure:"max_amount_per_tx"`
	SlippageBps       int      `mapstructure:"slippage_bps"`
	Slippage          float64  `mapstructure:"slippage"` // 百分比，slippage_bps 未设置时生效
	MaxSlippageBps    int      `mapstructure:"max_slippage_bps"`
	DelayMs           int      `mapstructure:"delay_ms"`
	BlacklistedTokens []string `mapstructure:"blacklisted_tokens"`
	TrackedWallets    []string `mapstructure:"tracked_wallets"`
	AutoStart         bool     `mapstructure:"auto_start"`
}

type EngineConfig struct {
	PollIntervalMs     int    `mapstructure:"poll_interval_ms"`
	WalletConcurrency  int    `mapstructure:"wallet_concurrency"`
	SeenCapacity       int    `mapstructure:"seen_capacity"`
	DedupBackend       string `mapstructure:"dedup_backend"` // memory | redis
	DedupTTLSec        int    `mapstructure:"dedup_ttl_sec"`
	FailureThreshold   int    `mapstructure:"failure_threshold"`
	BackoffMultiplier  int    `mapstructure:"backoff_multiplier"`
	SerializePerWallet bool   `mapstructure:"serialize_per_wallet"`
	MaxLookbackSec     int    `mapstructure:"max_lookback_sec"`
}

type SwapConfig struct {
	ProgramIDs []string `mapstructure:"program_ids"`
}

type HeliusConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Limit     int    `mapstructure:"limit"`
	RateLimit int    `mapstructure:"rate_limit"`
	Timeout   int    `mapstructure:"timeout"`
}

type JupiterConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	APIKey            string `mapstructure:"api_key"`
	RateLimit         int    `mapstructure:"rate_limit"`
	Timeout           int    `mapstructure:"timeout"`
	QuoteMaxAgeMs     int    `mapstructure:"quote_max_age_ms"`
	ExecuteTimeoutSec int    `mapstructure:"execute_timeout_sec"`
	WrapUnwrapSol     bool   `mapstructure:"wrap_unwrap_sol"`
}

type SolanaConfig struct {
	RpcURL          string  `mapstructure:"rpc_url"`
	PrivateKey      string  `mapstructure:"private_key"`
	SkipPreflight   bool    `mapstructure:"skip_preflight"`
	BalanceCheckSec int     `mapstructure:"balance_check_sec"`
	MinBalanceSol   float64 `mapstructure:"min_balance_sol"`
}

type TradeLogConfig struct {
	Path          string `mapstructure:"path"`
	HistoryLimit  int    `mapstructure:"history_limit"`
	MaxSizeMB     int    `mapstructure:"max_size_mb"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers    string `mapstructure:"brokers"`
	TopicTrade string `mapstructure:"topic_trade"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type ElasticsearchConfig struct {
	Addresses       []string `mapstructure:"addresses"`
	Username        string   `mapstructure:"username"`
	Password        string   `mapstructure:"password"`
	TradesIndexName string   `mapstructure:"trades_index_name"`
}

type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

// 默认 swap 程序白名单
var DefaultProgramIDs = []string{
	"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4", // Jupiter v6
	"JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB", // Jupiter v4
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8", // Raydium AMM v4
	"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc",  // Orca Whirlpool
	"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P",  // pump.fun
}

// 环境变量绑定，兼容旧变量名
var envBindings = map[string][]string{
	"log.level":                 {"LOG_LEVEL"},
	"bot.max_amount_per_tx":     {"MAX_AMOUNT_PER_TX", "MAX_SOL_PER_TX"},
	"bot.slippage_bps":          {"SLIPPAGE_BPS"},
	"bot.slippage":              {"SLIPPAGE"},
	"bot.max_slippage_bps":      {"MAX_SLIPPAGE_BPS"},
	"bot.delay_ms":              {"DELAY_MS"},
	"bot.blacklisted_tokens":    {"BLACKLISTED_TOKENS"},
	"bot.tracked_wallets":       {"TRACKED_WALLETS"},
	"bot.auto_start":            {"AUTO_START"},
	"engine.poll_interval_ms":   {"POLL_INTERVAL_MS"},
	"engine.dedup_backend":      {"DEDUP_BACKEND"},
	"swap.program_ids":          {"SWAP_PROGRAM_IDS"},
	"helius.base_url":           {"HELIUS_BASE_URL"},
	"helius.api_key":            {"HELIUS_API_KEY"},
	"jupiter.base_url":          {"JUPITER_BASE_URL"},
	"jupiter.api_key":           {"JUPITER_API_KEY"},
	"solana.rpc_url":            {"SOLANA_RPC_URL"},
	"solana.private_key":        {"WALLET_PRIVATE_KEY", "SOLANA_PRIVATE_KEY"},
	"trade_log.path":            {"TRADE_LOG_PATH"},
	"kafka.brokers":             {"KAFKA_BROKERS"},
	"redis.address":             {"REDIS_ADDRESS"},
	"redis.password":            {"REDIS_PASSWORD"},
	"postgres.dsn":              {"POSTGRES_DSN"},
	"elasticsearch.addresses":   {"ELASTICSEARCH_ADDRESSES"},
	"monitor.prometheus_addr":   {"PROMETHEUS_ADDR"},
	"monitor.enable":            {"MONITOR_ENABLE"},
	"trade_log.history_limit":   {"TRADE_HISTORY_LIMIT"},
	"engine.wallet_concurrency": {"WALLET_CONCURRENCY"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "logs")

	v.SetDefault("bot.max_amount_per_tx", 0.1)
	v.SetDefault("bot.slippage", 1.0)
	v.SetDefault("bot.max_slippage_bps", 1000)
	v.SetDefault("bot.delay_ms", 1000)
	v.SetDefault("bot.blacklisted_tokens", []string{})
	v.SetDefault("bot.tracked_wallets", []string{})

	v.SetDefault("engine.poll_interval_ms", 1000)
	v.SetDefault("engine.wallet_concurrency", 8)
	v.SetDefault("engine.seen_capacity", 10000)
	v.SetDefault("engine.dedup_backend", "memory")
	v.SetDefault("engine.dedup_ttl_sec", 86400)
	v.SetDefault("engine.failure_threshold", 3)
	v.SetDefault("engine.backoff_multiplier", 5)
	v.SetDefault("engine.serialize_per_wallet", true)
	v.SetDefault("engine.max_lookback_sec", 60)

	v.SetDefault("swap.program_ids", DefaultProgramIDs)

	v.SetDefault("helius.base_url", "https://api.helius.xyz/v0")
	v.SetDefault("helius.limit", 20)
	v.SetDefault("helius.rate_limit", 600)
	v.SetDefault("helius.timeout", 10)

	v.SetDefault("jupiter.base_url", "https://quote-api.jup.ag/v6")
	v.SetDefault("jupiter.rate_limit", 600)
	v.SetDefault("jupiter.timeout", 10)
	v.SetDefault("jupiter.quote_max_age_ms", 2000)
	v.SetDefault("jupiter.execute_timeout_sec", 60)
	v.SetDefault("jupiter.wrap_unwrap_sol", true)

	v.SetDefault("solana.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("solana.balance_check_sec", 300)
	v.SetDefault("solana.min_balance_sol", 0.05)

	v.SetDefault("trade_log.path", "trade_history.jsonl")
	v.SetDefault("trade_log.history_limit", 1000)
	v.SetDefault("trade_log.max_size_mb", 100)
	v.SetDefault("trade_log.retention_days", 90)

	v.SetDefault("kafka.topic_trade", "copytrade.trade_record")
	v.SetDefault("elasticsearch.trades_index_name", "copytrade_trades")
	v.SetDefault("monitor.prometheus_addr", ":9090")
}

// InitConfig 读取 ./config/config.worker.yaml（可选）与环境变量
func InitConfig() Config {
	cfg, err := Load(viper.GetViper(), "./config/")
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}
	return cfg
}

// Load 在给定的 viper 实例上加载配置，配置文件缺失时只使用默认值和环境变量
func Load(v *viper.Viper, paths ...string) (Config, error) {
	var config Config

	v.SetConfigName("config.worker")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	setDefaults(v)
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return config, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, err
		}
	}

	if err := decode(v.AllSettings(), &config); err != nil {
		return config, err
	}

	resolveSlippage(v, &config)
	return config, nil
}

// resolveSlippage 内部统一使用 bps；未显式给出 slippage_bps 时由百分比换算（1.0% = 100 bps）
func resolveSlippage(v *viper.Viper, config *Config) {
	if v.IsSet("bot.slippage_bps") {
		return
	}
	config.Bot.SlippageBps = int(decimal.NewFromFloat(config.Bot.Slippage).Mul(decimal.NewFromInt(100)).IntPart())
}

func decode(input interface{}, out *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// WatchConfig 配置热加载，变更后以新配置回调
func WatchConfig(onChange func(Config)) {
	v := viper.GetViper()
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		var newConfig Config
		if err := decode(v.AllSettings(), &newConfig); err != nil {
			return
		}
		resolveSlippage(v, &newConfig)
		if onChange != nil {
			onChange(newConfig)
		}
	})
	v.WatchConfig()
}

func (c EngineConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c JupiterConfig) QuoteMaxAge() time.Duration {
	return time.Duration(c.QuoteMaxAgeMs) * time.Millisecond
}

func (c JupiterConfig) ExecuteTimeout() time.Duration {
	return time.Duration(c.ExecuteTimeoutSec) * time.Second
}

// MaxAmount 单笔上限
func (c BotConfig) MaxAmount() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxAmountPerTx)
}
