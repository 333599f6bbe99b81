// Package store 提供三类记录集合（users、chats、messages）的整集合读写抽象。
//
// 底层 Collection 只保证 ReadAll/WriteAll 两个操作，且两者之间不具备原子性。
// Table 在其上为每个集合加一把互斥锁，所有“读-改-写”都必须经过 Table.Update，
// 从而避免两个并发请求各自读取后写回导致的丢失更新。
package store

import (
	"context"
	"fmt"
	"sync"

	"directchat/internal/models"
)

// 集合名，同时用作文件名/表名的前缀。
const (
	UsersCollection    = "users"
	ChatsCollection    = "chats"
	MessagesCollection = "messages"
)

// Collection 是按插入顺序保存的一组记录，WriteAll 会整体替换旧内容。
type Collection[T any] interface {
	ReadAll(ctx context.Context) ([]T, error)
	WriteAll(ctx context.Context, records []T) error
}

// Table 串行化同一集合上的所有读-改-写操作。
type Table[T any] struct {
	name string
	mu   sync.Mutex
	c    Collection[T]
}

func NewTable[T any](name string, c Collection[T]) *Table[T] {
	return &Table[T]{name: name, c: c}
}

func (t *Table[T]) Name() string { return t.name }

// Read 返回集合当前内容。Read 同样持锁，避免读到写入一半的文件。
func (t *Table[T]) Read(ctx context.Context) ([]T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	records, err := t.c.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.name, err)
	}
	return records, nil
}

// Update 在锁内读取整个集合交给 fn，fn 返回新的完整集合后整体写回。
// fn 返回错误时不会写入。
func (t *Table[T]) Update(ctx context.Context, fn func(records []T) ([]T, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	records, err := t.c.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("read %s: %w", t.name, err)
	}
	next, err := fn(records)
	if err != nil {
		return err
	}
	if err := t.c.WriteAll(ctx, next); err != nil {
		return fmt.Errorf("write %s: %w", t.name, err)
	}
	return nil
}

// Gateway 聚合三个集合，供 service 层使用。
type Gateway struct {
	Users    *Table[models.User]
	Chats    *Table[models.Chat]
	Messages *Table[models.Message]

	closer func() error
}

func NewGateway(users Collection[models.User], chats Collection[models.Chat], messages Collection[models.Message]) *Gateway {
	return &Gateway{
		Users:    NewTable(UsersCollection, users),
		Chats:    NewTable(ChatsCollection, chats),
		Messages: NewTable(MessagesCollection, messages),
	}
}

// WithCloser 注册关闭底层存储的回调。
func (g *Gateway) WithCloser(fn func() error) *Gateway {
	g.closer = fn
	return g
}

func (g *Gateway) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}
