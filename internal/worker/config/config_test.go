package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.True(t, cfg.Bot.MaxAmount().Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, 100, cfg.Bot.SlippageBps)
	assert.Equal(t, 1000, cfg.Bot.DelayMs)
	assert.Empty(t, cfg.Bot.BlacklistedTokens)
	assert.Equal(t, time.Second, cfg.Engine.PollInterval())
	assert.Equal(t, 8, cfg.Engine.WalletConcurrency)
	assert.Equal(t, "memory", cfg.Engine.DedupBackend)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.Solana.RpcURL)
	assert.Equal(t, DefaultProgramIDs, cfg.Swap.ProgramIDs)
	assert.Equal(t, 2*time.Second, cfg.Jupiter.QuoteMaxAge())
	assert.Equal(t, time.Minute, cfg.Jupiter.ExecuteTimeout())
	assert.Equal(t, "trade_history.jsonl", cfg.TradeLog.Path)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("MAX_SOL_PER_TX", "2.5")
	t.Setenv("SLIPPAGE", "0.5")
	t.Setenv("DELAY_MS", "0")
	t.Setenv("BLACKLISTED_TOKENS", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v,DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263")
	t.Setenv("SOLANA_PRIVATE_KEY", "secret")
	t.Setenv("TRACKED_WALLETS", "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU")

	cfg, err := Load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.True(t, cfg.Bot.MaxAmount().Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, 50, cfg.Bot.SlippageBps)
	assert.Equal(t, 0, cfg.Bot.DelayMs)
	assert.Len(t, cfg.Bot.BlacklistedTokens, 2)
	assert.Equal(t, "secret", cfg.Solana.PrivateKey)
	assert.Equal(t, []string{"7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"}, cfg.Bot.TrackedWallets)
}

func TestSlippageBpsTakesPrecedence(t *testing.T) {
	t.Setenv("SLIPPAGE", "3")
	t.Setenv("SLIPPAGE_BPS", "25")

	cfg, err := Load(viper.New(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Bot.SlippageBps)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	doc := `
bot:
  max_amount_per_tx: 1
  slippage_bps: 80
  auto_start: true
engine:
  poll_interval_ms: 500
  dedup_backend: redis
postgres:
  dsn: postgres://localhost/copytrade
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.worker.yaml"), []byte(doc), 0o644))

	cfg, err := Load(viper.New(), dir)
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Bot.SlippageBps)
	assert.True(t, cfg.Bot.AutoStart)
	assert.Equal(t, 500*time.Millisecond, cfg.Engine.PollInterval())
	assert.Equal(t, "redis", cfg.Engine.DedupBackend)
	assert.Equal(t, "postgres://localhost/copytrade", cfg.Postgres.DSN)
	// 未覆盖的字段仍为默认值
	assert.Equal(t, 3, cfg.Engine.FailureThreshold)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.worker.yaml"), []byte("bot: [unclosed"), 0o644))

	_, err := Load(viper.New(), dir)
	assert.Error(t, err)
}

func TestWatchConfigCallsBackWithNewConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.worker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bot:\n  slippage_bps: 10\n"), 0o644))

	cfg, err := Load(viper.GetViper(), dir)
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Bot.SlippageBps)

	got := make(chan Config, 16)
	WatchConfig(func(next Config) {
		select {
		case got <- next:
		default:
		}
	})
	require.NoError(t, os.WriteFile(path, []byte("bot:\n  slippage_bps: 40\n"), 0o644))

	// 写入过程中可能先收到截断后的中间状态
	timeout := time.After(5 * time.Second)
	for {
		select {
		case next := <-got:
			if next.Bot.SlippageBps != 40 {
				continue
			}
			// 调用方持有的配置不被回写
			assert.Equal(t, 10, cfg.Bot.SlippageBps)
			return
		case <-timeout:
			t.Fatal("no reload callback")
		}
	}
}
