// Package ident 负责会话 ID 推导以及新记录的 ID/时间戳分配。
package ident

import (
	"sort"
	"strings"
	"time"

	"directchat/internal/models"

	"github.com/google/uuid"
)

// Separator 连接两个参与者 ID。
const Separator = "-"

// ChatID 对两个参与者 ID 按字典序排序后拼接，结果与参数顺序无关。
func ChatID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, Separator)
}

// NewID 返回基于时钟的 UUIDv7，字典序大致随时间递增。
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// StampMessage 为草稿分配服务端 ID、时间戳与规范会话 ID，忽略客户端提供的同名字段。
func StampMessage(draft models.Message, now time.Time) models.Message {
	return models.Message{
		ID:         NewID(),
		ChatID:     ChatID(draft.SenderID, draft.ReceiverID),
		SenderID:   draft.SenderID,
		ReceiverID: draft.ReceiverID,
		Text:       draft.Text,
		Timestamp:  now.UTC(),
	}
}

// Latest 返回时间戳最大的消息；时间戳相同时以集合中靠后的（后写入的）为准。
func Latest(msgs []models.Message) *models.Message {
	var out *models.Message
	for i := range msgs {
		if out == nil || !msgs[i].Timestamp.Before(out.Timestamp) {
			m := msgs[i]
			out = &m
		}
	}
	return out
}
