package dao

import (
	"context"
	"web3-copytrade/internal/worker/model"
)

// SettingsDAO 风控设置持久化（单行）
type SettingsDAO interface {
	// Load 未保存过时返回 nil
	Load(ctx context.Context) (*model.BotSettings, error)

	Save(ctx context.Context, settings model.BotSettings) error
}
