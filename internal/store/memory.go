package store

import (
	"context"
	"sync"

	"directchat/internal/models"
)

// MemoryCollection 把记录保存在进程内存中，读写都会复制切片。
type MemoryCollection[T any] struct {
	mu      sync.RWMutex
	records []T
}

func NewMemoryCollection[T any](seed ...T) *MemoryCollection[T] {
	return &MemoryCollection[T]{records: append([]T(nil), seed...)}
}

func (m *MemoryCollection[T]) ReadAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]T(nil), m.records...), nil
}

func (m *MemoryCollection[T]) WriteAll(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append([]T(nil), records...)
	return nil
}

func NewMemoryGateway() *Gateway {
	return NewGateway(
		NewMemoryCollection[models.User](),
		NewMemoryCollection[models.Chat](),
		NewMemoryCollection[models.Message](),
	)
}
