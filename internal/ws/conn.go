package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"directchat/internal/event"
	"directchat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxFrame   = 1 << 16
)

// Services 是实时通道事件分发到的业务服务。
type Services struct {
	Presence *service.PresenceService
	Messages *service.MessageService
}

// Client 是一条 websocket 连接，实现 presence.Conn。
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	svc  Services

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newClient(h *Hub, conn *websocket.Conn, svc Services, buffer int) *Client {
	if buffer <= 0 {
		buffer = 256
	}
	return &Client{hub: h, conn: conn, svc: svc, send: make(chan []byte, buffer)}
}

// Push 非阻塞地把 payload 放入发送缓冲；连接已关闭或缓冲已满时返回 false。
func (c *Client) Push(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Serve 升级 HTTP 连接为 websocket，并在连接生命周期内分发事件。
func Serve(h *Hub, svc Services, buffer int) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := newClient(h, conn, svc, buffer)
		h.Register(client)

		go client.writePump()
		client.readPump(context.WithoutCancel(c.Request.Context()))
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		if err := c.svc.Presence.Disconnect(ctx, c); err != nil {
			log.Error().Err(err).Msg("ws disconnect")
		}
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxFrame)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.dispatch(ctx, data)
	}
}

// dispatch 处理一帧入站事件。错误只记录日志，不回传给客户端。
func (c *Client) dispatch(ctx context.Context, data []byte) {
	env, err := event.Decode(data)
	if err != nil {
		log.Debug().Err(err).Msg("ws bad frame")
		return
	}
	switch env.Event {
	case event.Register:
		userID, err := event.RegisterPayload(env.Data)
		if err == nil {
			err = c.svc.Presence.Connect(ctx, userID, c)
		}
		if err != nil {
			log.Warn().Err(err).Str("event", env.Event).Msg("ws handler")
		}
	case event.SendMessage:
		var d event.Draft
		if err := json.Unmarshal(env.Data, &d); err != nil {
			log.Warn().Err(err).Str("event", env.Event).Msg("ws handler")
			return
		}
		_, err := c.svc.Messages.Send(ctx, service.Submission{
			SenderID:   d.SenderID,
			ReceiverID: d.ReceiverID,
			Text:       d.Text,
			ChatID:     d.ChatID,
			Origin:     c,
			Path:       service.PathWS,
		})
		if err != nil {
			log.Warn().Err(err).Str("event", env.Event).Str("sender_id", d.SenderID).Msg("ws handler")
		}
	default:
		log.Debug().Str("event", env.Event).Msg("ws unknown event")
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
