package helius

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNetwork     Kind = "network"
	KindRateLimited Kind = "rate_limited"
	KindUpstream    Kind = "upstream"
)

var (
	ErrNetwork     = errors.New("feed network error")
	ErrRateLimited = errors.New("feed rate limited")
	ErrUpstream    = errors.New("feed upstream error")
)

// FeedError 拉取交易失败，Kind 决定匹配的哨兵错误
type FeedError struct {
	Kind    Kind
	Address string
	Status  int
	Err     error
}

func (e *FeedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("helius %s for %s (status %d): %v", e.Kind, e.Address, e.Status, e.Err)
	}
	return fmt.Sprintf("helius %s for %s: %v", e.Kind, e.Address, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }

func (e *FeedError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrUpstream:
		return e.Kind == KindUpstream
	}
	return false
}
