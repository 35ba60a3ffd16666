package dao

import (
	"context"
	"web3-copytrade/internal/worker/model"
)

// WalletDAO 跟踪钱包持久化
type WalletDAO interface {
	// List 按添加顺序返回全部钱包
	List(ctx context.Context) ([]model.TrackedWallet, error)

	// Create 新增钱包，地址已存在时不报错
	Create(ctx context.Context, wallet *model.TrackedWallet) error

	// DeleteByAddress 删除钱包
	DeleteByAddress(ctx context.Context, address string) error
}
