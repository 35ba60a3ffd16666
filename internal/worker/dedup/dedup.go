package dedup

import (
	"context"
	"sync"
)

// Store 已处理交易 id 集合
// MarkIfAbsent 原子地检查并标记，返回 true 表示本次首次标记
type Store interface {
	MarkIfAbsent(ctx context.Context, txID string) (bool, error)
}

const DefaultCapacity = 10000

// MemoryStore 定长 FIFO，超出容量时淘汰最早标记的 id
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]struct{}
	order    []string
	head     int
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
		order:    make([]string, 0, capacity),
	}
}

func (s *MemoryStore) MarkIfAbsent(_ context.Context, txID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[txID]; ok {
		return false, nil
	}
	if len(s.order) < s.capacity {
		s.order = append(s.order, txID)
	} else {
		delete(s.seen, s.order[s.head])
		s.order[s.head] = txID
		s.head = (s.head + 1) % s.capacity
	}
	s.seen[txID] = struct{}{}
	return true, nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
