package models

import "time"

// User 是持久化的用户记录，password 按原文保存。
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"password"`
	IsOnline       bool      `json:"isOnline"`
	LastConnection time.Time `json:"lastConnection"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UserView 是对外输出的用户数据，不包含密码。
type UserView struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	IsOnline       bool      `json:"isOnline"`
	LastConnection time.Time `json:"lastConnection"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (u User) View() UserView {
	return UserView{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		IsOnline:       u.IsOnline,
		LastConnection: u.LastConnection,
		CreatedAt:      u.CreatedAt,
	}
}

// UserSummary 用于联系人列表，附带与请求者之间的最后一条消息。
type UserSummary struct {
	UserView
	LastMessage *Message `json:"lastMessage"`
}

// Chat 是两人会话，ID 由双方 ID 规范化推导。
type Chat struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	Pin          *string   `json:"pin"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Message struct {
	ID         string    `json:"id"`
	ChatID     string    `json:"chatId"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

// StatusChange 是在线状态变更事件的载荷。
type StatusChange struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}
