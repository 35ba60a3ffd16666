package model

import (
	"slices"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// BotSettings 风控参数快照，创建后不可修改，变更时整体替换
type BotSettings struct {
	MaxAmountPerTx    decimal.Decimal `json:"maxAmountPerTx"`
	SlippageBps       int             `json:"slippageBps"`
	DelayMs           int             `json:"delayMs"`
	BlacklistedTokens []string        `json:"blacklistedTokens"`
}

// NewBotSettings 归一化黑名单（去空、去重、排序）
func NewBotSettings(maxAmount decimal.Decimal, slippageBps, delayMs int, blacklist []string) BotSettings {
	tokens := make([]string, 0, len(blacklist))
	for _, t := range blacklist {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		tokens = append(tokens, t)
	}
	slices.Sort(tokens)
	tokens = slices.Compact(tokens)

	return BotSettings{
		MaxAmountPerTx:    maxAmount,
		SlippageBps:       slippageBps,
		DelayMs:           delayMs,
		BlacklistedTokens: tokens,
	}
}

func (s BotSettings) IsBlacklisted(mint string) bool {
	_, found := slices.BinarySearch(s.BlacklistedTokens, mint)
	return found
}

func (s BotSettings) Delay() time.Duration {
	return time.Duration(s.DelayMs) * time.Millisecond
}

// BotSettingsRow 持久化的设置，单行表
type BotSettingsRow struct {
	ID                int64           `gorm:"primaryKey"`
	MaxAmountPerTx    decimal.Decimal `gorm:"column:max_amount_per_tx;type:decimal(50,20);not null"`
	SlippageBps       int             `gorm:"column:slippage_bps;not null"`
	DelayMs           int             `gorm:"column:delay_ms;not null"`
	BlacklistedTokens pq.StringArray  `gorm:"column:blacklisted_tokens;type:varchar(64)[]"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;not null"`
}

func (r *BotSettingsRow) TableName() string {
	return "copytrade.t_bot_settings"
}

func (r BotSettingsRow) Settings() BotSettings {
	return NewBotSettings(r.MaxAmountPerTx, r.SlippageBps, r.DelayMs, r.BlacklistedTokens)
}

func NewBotSettingsRow(s BotSettings) *BotSettingsRow {
	return &BotSettingsRow{
		ID:                1,
		MaxAmountPerTx:    s.MaxAmountPerTx,
		SlippageBps:       s.SlippageBps,
		DelayMs:           s.DelayMs,
		BlacklistedTokens: pq.StringArray(s.BlacklistedTokens),
		UpdatedAt:         time.Now(),
	}
}
