package service

import (
	"context"
	"strings"
	"time"

	"directchat/internal/event"
	"directchat/internal/ident"
	"directchat/internal/metrics"
	"directchat/internal/models"
	"directchat/internal/presence"
	"directchat/internal/store"

	"github.com/rs/zerolog/log"
)

// 消息进入系统的路径，仅用于指标与日志。
const (
	PathHTTP = "http"
	PathWS   = "ws"
)

// Submission 是一次发送请求。ChatID 仅用于核对，持久化时总是重新推导。
// Origin 为发起请求的连接；HTTP 路径下为 nil，此时回显给发送者当前绑定的连接。
type Submission struct {
	SenderID   string
	ReceiverID string
	Text       string
	ChatID     string
	Origin     presence.Conn
	Path       string
}

// MessageService 负责消息的持久化与实时分发：先落盘，再推送给接收者并回显给发送者。
// HTTP 与实时通道都通过 Send 进入，不做去重：两次提交就是两条记录。
type MessageService struct {
	store    *store.Gateway
	registry *presence.Registry
	now      func() time.Time
}

func NewMessageService(st *store.Gateway, registry *presence.Registry) *MessageService {
	return &MessageService{store: st, registry: registry, now: time.Now}
}

// Send 校验并持久化消息，随后尽力推送。推送失败不会影响返回值，
// 接收者可在下次拉取时读到该消息。
func (s *MessageService) Send(ctx context.Context, sub Submission) (*models.Message, error) {
	if sub.SenderID == "" || sub.ReceiverID == "" || strings.TrimSpace(sub.Text) == "" {
		return nil, invalid("senderId, receiverId and text are required")
	}
	msg := ident.StampMessage(models.Message{
		SenderID:   sub.SenderID,
		ReceiverID: sub.ReceiverID,
		Text:       sub.Text,
	}, s.now())
	if sub.ChatID != "" && sub.ChatID != msg.ChatID {
		log.Warn().Str("chat_id", sub.ChatID).Str("derived_chat_id", msg.ChatID).
			Str("sender_id", sub.SenderID).Msg("client chat id ignored")
	}

	err := s.store.Messages.Update(ctx, func(msgs []models.Message) ([]models.Message, error) {
		return append(msgs, msg), nil
	})
	if err != nil {
		return nil, storageErr("persist message", err)
	}
	metrics.MessagesTotal.WithLabelValues(pathLabel(sub.Path)).Inc()

	s.fanout(msg, sub.Origin)
	return &msg, nil
}

// fanout 推送给接收者，再回显给发送者；同一连接只推送一次。
func (s *MessageService) fanout(msg models.Message, origin presence.Conn) {
	frame, err := event.Encode(event.NewMessage, msg)
	if err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("encode message")
		return
	}

	receiver, ok := s.registry.Lookup(msg.ReceiverID)
	if ok {
		push(receiver, frame, msg, "receiver")
	} else {
		metrics.PushesTotal.WithLabelValues(metrics.PushOffline).Inc()
		log.Debug().Str("message_id", msg.ID).Str("receiver_id", msg.ReceiverID).Msg("receiver offline")
	}

	sender := origin
	if sender == nil {
		sender, _ = s.registry.Lookup(msg.SenderID)
	}
	if sender != nil && sender != receiver {
		push(sender, frame, msg, "sender")
	}
}

func push(c presence.Conn, frame []byte, msg models.Message, role string) {
	if c.Push(frame) {
		metrics.PushesTotal.WithLabelValues(metrics.PushDelivered).Inc()
		return
	}
	metrics.PushesTotal.WithLabelValues(metrics.PushDropped).Inc()
	log.Warn().Str("message_id", msg.ID).Str("role", role).Msg("realtime push dropped")
}

// List 按持久化顺序返回会话内的所有消息。
func (s *MessageService) List(ctx context.Context, chatID string) ([]models.Message, error) {
	if chatID == "" {
		return nil, invalid("chatId is required")
	}
	msgs, err := s.store.Messages.Read(ctx)
	if err != nil {
		return nil, storageErr("list messages", err)
	}
	out := make([]models.Message, 0)
	for _, m := range msgs {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func pathLabel(p string) string {
	if p == "" {
		return PathHTTP
	}
	return p
}
