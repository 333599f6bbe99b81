// Package presence 维护用户 ID 到当前实时连接的映射。
package presence

import "sync"

// Conn 是可以推送数据的实时连接句柄。Push 不得阻塞，
// 连接已关闭或缓冲区满时返回 false。
type Conn interface {
	Push(payload []byte) bool
}

// Registry 记录每个用户最近一次绑定的连接。同一用户的新连接会覆盖旧连接，
// 旧连接此后收不到定向推送。
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register 绑定 userID 与 conn，返回被覆盖的旧连接（没有则为 nil）。
func (r *Registry) Register(userID string, conn Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.conns[userID]
	r.conns[userID] = conn
	if prev == conn {
		return nil
	}
	return prev
}

func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	return c, ok
}

// Unregister 按连接反查并移除绑定。若该连接已被同一用户的新连接覆盖，
// 则什么也不做并返回 ok=false。
func (r *Registry) Unregister(conn Conn) (userID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.conns {
		if c == conn {
			delete(r.conns, id)
			return id, true
		}
	}
	return "", false
}

func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.Lookup(userID)
	return ok
}

// Online 返回当前绑定的用户数。
func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
