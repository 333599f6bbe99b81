// Package event 定义实时通道上的 JSON 信封与事件名。
package event

import "encoding/json"

// 客户端 -> 服务端
const (
	Register    = "register"
	SendMessage = "sendMessage"
)

// 服务端 -> 客户端
const (
	NewMessage        = "newMessage"
	UserStatusChanged = "userStatusChanged"
)

// Envelope 是双向通用的事件帧：{"event": "...", "data": ...}。
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode 把事件名与载荷编码为一帧。
func Encode(name string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: name, Data: raw})
}

func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(frame, &env)
	return env, err
}

// Draft 是 sendMessage 事件的载荷，chatId 即使提供也会被服务端重新推导。
type Draft struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
	ChatID     string `json:"chatId,omitempty"`
}

// RegisterPayload 接受 "userId" 字符串或 {"userId": "..."} 两种形式。
func RegisterPayload(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return id, nil
	}
	var obj struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", err
	}
	return obj.UserID, nil
}
