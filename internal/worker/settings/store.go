package settings

import (
	"slices"
	"sync/atomic"
	"web3-copytrade/internal/worker/model"
)

// Store 当前生效的设置，整体原子替换
type Store struct {
	current atomic.Pointer[model.BotSettings]
}

func NewStore(initial model.BotSettings) *Store {
	s := &Store{}
	s.Set(initial)
	return s
}

// Load 取快照；快照不会被后续 Set 修改
func (s *Store) Load() model.BotSettings {
	return *s.current.Load()
}

func (s *Store) Set(v model.BotSettings) {
	v.BlacklistedTokens = slices.Clone(v.BlacklistedTokens)
	if v.BlacklistedTokens == nil {
		v.BlacklistedTokens = []string{}
	}
	s.current.Store(&v)
}
