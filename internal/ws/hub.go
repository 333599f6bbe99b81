package ws

import (
	"sync"
	"sync/atomic"

	"directchat/internal/metrics"
)

// Hub 持有全部在线连接（包括尚未 register 的），由 run 循环独占访问。
// 用户到连接的定向映射在 presence.Registry 中维护。
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	online     int32
	done       chan struct{}
	stopOnce   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run 处理注册、注销与广播，直到 Stop 被调用。
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			atomic.StoreInt32(&h.online, int32(len(h.clients)))
			metrics.WsConnections.Inc()
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				// 发送缓冲已满的慢连接直接断开
				if !c.Push(msg) {
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	c.closeSend()
	atomic.StoreInt32(&h.online, int32(len(h.clients)))
	metrics.WsConnections.Dec()
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.closeSend()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast 把 frame 发给所有连接，实现 service.Broadcaster。
func (h *Hub) Broadcast(frame []byte) {
	select {
	case h.broadcast <- frame:
	case <-h.done:
	}
}

// Online 返回当前连接数，供 REST 接口复用。
func (h *Hub) Online() int { return int(atomic.LoadInt32(&h.online)) }
