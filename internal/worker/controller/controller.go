package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"web3-copytrade/internal/worker/config"
	"web3-copytrade/internal/worker/dao"
	"web3-copytrade/internal/worker/engine"
	"web3-copytrade/internal/worker/model"
	"web3-copytrade/internal/worker/settings"
	"web3-copytrade/internal/worker/wallet"
	"web3-copytrade/pkg/logger"
	"web3-copytrade/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrAlreadyTracked  = wallet.ErrAlreadyTracked
	ErrNotFound        = wallet.ErrNotFound
	ErrInvalidAddress  = errors.New("invalid wallet address")
	ErrInvalidSettings = errors.New("invalid settings")
)

// 滑点上限 100%
const maxSlippageBps = 10000

type Engine interface {
	Start() bool
	Stop(ctx context.Context) error
	State() engine.State
}

type TradeHistory interface {
	History(n int) []model.TradeRecord
	Last() *model.TradeRecord
}

// Status 运行状态快照
type Status struct {
	Running        bool                  `json:"running"`
	TrackedWallets []model.TrackedWallet `json:"trackedWallets"`
	Settings       model.BotSettings     `json:"settings"`
	LastTrade      *model.TradeRecord    `json:"lastTrade"`
}

// SettingsUpdate 部分更新，nil 字段保持不变；BlacklistedTokens 为空切片时清空黑名单
type SettingsUpdate struct {
	MaxAmountPerTx    *decimal.Decimal
	SlippageBps       *int
	DelayMs           *int
	BlacklistedTokens []string
}

// UpdateFromConfig 配置热更新时整体覆盖风控参数
func UpdateFromConfig(cfg config.BotConfig) SettingsUpdate {
	maxAmount := cfg.MaxAmount()
	slippage := cfg.SlippageBps
	delay := cfg.DelayMs
	blacklist := cfg.BlacklistedTokens
	if blacklist == nil {
		blacklist = []string{}
	}
	return SettingsUpdate{
		MaxAmountPerTx:    &maxAmount,
		SlippageBps:       &slippage,
		DelayMs:           &delay,
		BlacklistedTokens: blacklist,
	}
}

// Controller 控制面：启停引擎、管理钱包与风控设置
type Controller struct {
	engine   Engine
	wallets  *wallet.Registry
	settings *settings.Store
	trades   TradeHistory
	daos     *dao.DAOManager // nil 表示不持久化

	// 串行化设置的读-改-写
	mu sync.Mutex
	tl *zap.Logger
}

func New(eng Engine, wallets *wallet.Registry, store *settings.Store, trades TradeHistory, daos *dao.DAOManager, tl *zap.Logger) *Controller {
	return &Controller{
		engine:   eng,
		wallets:  wallets,
		settings: store,
		trades:   trades,
		daos:     daos,
		tl:       tl,
	}
}

// Restore 从数据库恢复钱包与设置，启动引擎前调用
func (c *Controller) Restore(ctx context.Context) error {
	if c.daos == nil {
		return nil
	}

	stored, err := c.daos.WalletDAO.List(ctx)
	if err != nil {
		return fmt.Errorf("load tracked wallets: %w", err)
	}
	for _, w := range stored {
		if _, err := c.wallets.Add(w); err != nil && !errors.Is(err, wallet.ErrAlreadyTracked) {
			return err
		}
	}

	s, err := c.daos.SettingsDAO.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if s != nil {
		c.settings.Set(*s)
	}

	c.tl.Info("Controller state restored",
		zap.Int("wallets", len(stored)),
		zap.Bool("settings_restored", s != nil))
	return nil
}

func (c *Controller) Start(ctx context.Context) {
	if c.engine.Start() {
		logger.WithTrace(ctx, c.tl).Info("Bot started", zap.Int("tracked_wallets", c.wallets.Len()))
	}
}

// Stop 等待进行中的跟单完成，受 ctx 限制
func (c *Controller) Stop(ctx context.Context) error {
	if err := c.engine.Stop(ctx); err != nil {
		return err
	}
	logger.WithTrace(ctx, c.tl).Info("Bot stopped")
	return nil
}

// Status 不等待引擎
func (c *Controller) Status() Status {
	return Status{
		Running:        c.engine.State() == engine.StateRunning,
		TrackedWallets: c.wallets.Snapshot(),
		Settings:       c.settings.Load(),
		LastTrade:      c.trades.Last(),
	}
}

func (c *Controller) AddWallet(ctx context.Context, w model.TrackedWallet) (model.TrackedWallet, error) {
	w.Address = strings.TrimSpace(w.Address)
	if !utils.IsValidSolanaAddress(w.Address) {
		return model.TrackedWallet{}, fmt.Errorf("%w: %q", ErrInvalidAddress, w.Address)
	}

	added, err := c.wallets.Add(w)
	if err != nil {
		return model.TrackedWallet{}, err
	}
	if c.daos != nil {
		if err := c.daos.WalletDAO.Create(ctx, &added); err != nil {
			// 持久化失败时回滚内存状态
			_ = c.wallets.Remove(added.Address)
			return model.TrackedWallet{}, fmt.Errorf("persist wallet %s: %w", added.Address, err)
		}
	}

	c.tl.Info("Wallet tracked", zap.String("address", added.Address), zap.String("label", added.Label))
	return added, nil
}

func (c *Controller) RemoveWallet(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	if !c.wallets.Contains(address) {
		return ErrNotFound
	}
	if c.daos != nil {
		if err := c.daos.WalletDAO.DeleteByAddress(ctx, address); err != nil {
			return fmt.Errorf("delete wallet %s: %w", address, err)
		}
	}
	if err := c.wallets.Remove(address); err != nil {
		return err
	}

	c.tl.Info("Wallet untracked", zap.String("address", address))
	return nil
}

// UpdateSettings 整体替换设置，只影响之后的交易
func (c *Controller) UpdateSettings(ctx context.Context, u SettingsUpdate) (model.BotSettings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.settings.Load()
	maxAmount := cur.MaxAmountPerTx
	if u.MaxAmountPerTx != nil {
		maxAmount = *u.MaxAmountPerTx
	}
	slippage := cur.SlippageBps
	if u.SlippageBps != nil {
		slippage = *u.SlippageBps
	}
	delay := cur.DelayMs
	if u.DelayMs != nil {
		delay = *u.DelayMs
	}
	blacklist := cur.BlacklistedTokens
	if u.BlacklistedTokens != nil {
		blacklist = u.BlacklistedTokens
	}

	next := model.NewBotSettings(maxAmount, slippage, delay, blacklist)
	if err := validate(next); err != nil {
		return cur, err
	}

	if c.daos != nil {
		if err := c.daos.SettingsDAO.Save(ctx, next); err != nil {
			return cur, fmt.Errorf("persist settings: %w", err)
		}
	}
	c.settings.Set(next)

	logger.WithTrace(ctx, c.tl).Info("Settings updated",
		zap.String("max_amount_per_tx", next.MaxAmountPerTx.String()),
		zap.Int("slippage_bps", next.SlippageBps),
		zap.Int("delay_ms", next.DelayMs),
		zap.Strings("blacklisted_tokens", next.BlacklistedTokens))
	return next, nil
}

func (c *Controller) Settings() model.BotSettings {
	return c.settings.Load()
}

func (c *Controller) Wallets() []model.TrackedWallet {
	return c.wallets.Snapshot()
}

// History 最近 n 条记录，n<=0 返回全部
func (c *Controller) History(n int) []model.TradeRecord {
	return c.trades.History(n)
}

func validate(s model.BotSettings) error {
	if !s.MaxAmountPerTx.IsPositive() {
		return fmt.Errorf("%w: maxAmountPerTx must be positive, got %s", ErrInvalidSettings, s.MaxAmountPerTx)
	}
	if s.SlippageBps < 0 || s.SlippageBps > maxSlippageBps {
		return fmt.Errorf("%w: slippageBps out of range, got %d", ErrInvalidSettings, s.SlippageBps)
	}
	if s.DelayMs < 0 {
		return fmt.Errorf("%w: delayMs must not be negative, got %d", ErrInvalidSettings, s.DelayMs)
	}
	for _, mint := range s.BlacklistedTokens {
		if !utils.IsValidSolanaAddress(mint) {
			return fmt.Errorf("%w: blacklisted token %q is not a mint address", ErrInvalidSettings, mint)
		}
	}
	return nil
}
