package wallet

import (
	"errors"
	"strings"
	"sync"
	"time"
	"web3-copytrade/internal/worker/model"
)

var (
	ErrAlreadyTracked = errors.New("wallet already tracked")
	ErrNotFound       = errors.New("wallet not found")
)

// Registry 跟踪钱包列表，保持添加顺序，地址唯一
type Registry struct {
	mu      sync.RWMutex
	wallets []model.TrackedWallet
	index   map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

func (r *Registry) Add(w model.TrackedWallet) (model.TrackedWallet, error) {
	w.Address = strings.TrimSpace(w.Address)
	w.Label = strings.TrimSpace(w.Label)
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[w.Address]; ok {
		return model.TrackedWallet{}, ErrAlreadyTracked
	}
	r.index[w.Address] = len(r.wallets)
	r.wallets = append(r.wallets, w)
	return w, nil
}

func (r *Registry) Remove(address string) error {
	address = strings.TrimSpace(address)

	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[address]
	if !ok {
		return ErrNotFound
	}
	r.wallets = append(r.wallets[:i], r.wallets[i+1:]...)
	delete(r.index, address)
	for j := i; j < len(r.wallets); j++ {
		r.index[r.wallets[j].Address] = j
	}
	return nil
}

func (r *Registry) Contains(address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[address]
	return ok
}

// Snapshot 返回副本，调用方可随意持有
func (r *Registry) Snapshot() []model.TrackedWallet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.TrackedWallet, len(r.wallets))
	copy(out, r.wallets)
	return out
}

func (r *Registry) Addresses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.wallets))
	for i, w := range r.wallets {
		out[i] = w.Address
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.wallets)
}
