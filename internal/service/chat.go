package service

import (
	"context"
	"strings"
	"time"

	"directchat/internal/ident"
	"directchat/internal/models"
	"directchat/internal/store"
)

// ChatService 封装两人会话的创建与 PIN 设置。
type ChatService struct {
	store *store.Gateway
	now   func() time.Time
}

func NewChatService(st *store.Gateway) *ChatService {
	return &ChatService{store: st, now: time.Now}
}

// Open 返回两人之间的会话，不存在时创建。查找与创建在同一次 Update 内完成，
// 同一对用户的并发调用只会得到一条记录。
func (s *ChatService) Open(ctx context.Context, user1, user2 string) (*models.Chat, error) {
	user1 = strings.TrimSpace(user1)
	user2 = strings.TrimSpace(user2)
	if user1 == "" || user2 == "" {
		return nil, invalid("user1Id and user2Id are required")
	}
	id := ident.ChatID(user1, user2)
	var chat models.Chat
	err := s.store.Chats.Update(ctx, func(chats []models.Chat) ([]models.Chat, error) {
		for _, c := range chats {
			if c.ID == id {
				chat = c
				return chats, nil
			}
		}
		chat = models.Chat{
			ID:           id,
			Participants: []string{user1, user2},
			CreatedAt:    s.now().UTC(),
		}
		return append(chats, chat), nil
	})
	if err != nil {
		return nil, storageErr("open chat", err)
	}
	return &chat, nil
}

// SetPin 为会话保存 4 位数字 PIN。PIN 仅作记录，读取消息与发送消息都不校验它。
func (s *ChatService) SetPin(ctx context.Context, chatID, pin string) (*models.Chat, error) {
	if chatID == "" {
		return nil, invalid("chatId is required")
	}
	if !validPin(pin) {
		return nil, invalid("pin must be exactly 4 digits")
	}
	var chat models.Chat
	err := s.store.Chats.Update(ctx, func(chats []models.Chat) ([]models.Chat, error) {
		for i := range chats {
			if chats[i].ID == chatID {
				p := pin
				chats[i].Pin = &p
				chat = chats[i]
				return chats, nil
			}
		}
		return nil, ErrChatNotFound
	})
	if err != nil {
		if isBusiness(err) {
			return nil, err
		}
		return nil, storageErr("set pin", err)
	}
	return &chat, nil
}

func (s *ChatService) Get(ctx context.Context, chatID string) (*models.Chat, error) {
	chats, err := s.store.Chats.Read(ctx)
	if err != nil {
		return nil, storageErr("get chat", err)
	}
	for _, c := range chats {
		if c.ID == chatID {
			return &c, nil
		}
	}
	return nil, ErrChatNotFound
}

func validPin(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}
