package server

import (
	"errors"
	"net/http"

	"directchat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Handler 聚合所有 HTTP handler，依赖注入 service 层。
type Handler struct {
	userSvc *service.UserService
	chatSvc *service.ChatService
	msgSvc  *service.MessageService
}

func NewHandler(userSvc *service.UserService, chatSvc *service.ChatService, msgSvc *service.MessageService) *Handler {
	return &Handler{userSvc: userSvc, chatSvc: chatSvc, msgSvc: msgSvc}
}

// fail 把业务错误映射为 {success:false, message}；存储错误只记录日志并返回通用信息。
func fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
	default:
		log.Error().Err(err).Str("op", op).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
	}
}

func badPayload(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid payload"})
}

// Register 处理用户注册请求。
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	user, err := h.userSvc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		fail(c, "register", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user.View()})
}

// Login 处理用户登录请求。
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	user, err := h.userSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user.View()})
}

// ListUsers 搜索联系人，结果中不包含请求者本人。
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.userSvc.Search(c.Request.Context(), c.Query("search"), c.Query("currentUserId"))
	if err != nil {
		fail(c, "list users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// OpenChat 返回两人的会话，不存在则创建。
func (h *Handler) OpenChat(c *gin.Context) {
	var req struct {
		User1ID string `json:"user1Id"`
		User2ID string `json:"user2Id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	chat, err := h.chatSvc.Open(c.Request.Context(), req.User1ID, req.User2ID)
	if err != nil {
		fail(c, "open chat", err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// SetPin 保存会话 PIN。
func (h *Handler) SetPin(c *gin.Context) {
	var req struct {
		ChatID string `json:"chatId"`
		Pin    string `json:"pin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	chat, err := h.chatSvc.SetPin(c.Request.Context(), req.ChatID, req.Pin)
	if err != nil {
		fail(c, "set pin", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "chat": chat})
}

// PostMessage 通过 HTTP 发送消息，与实时通道的 sendMessage 走同一入口。
func (h *Handler) PostMessage(c *gin.Context) {
	var req struct {
		ChatID     string `json:"chatId"`
		SenderID   string `json:"senderId"`
		ReceiverID string `json:"receiverId"`
		Text       string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	msg, err := h.msgSvc.Send(c.Request.Context(), service.Submission{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Text:       req.Text,
		ChatID:     req.ChatID,
		Path:       service.PathHTTP,
	})
	if err != nil {
		fail(c, "post message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// ListMessages 返回会话内的全部消息，按持久化顺序排列。
func (h *Handler) ListMessages(c *gin.Context) {
	msgs, err := h.msgSvc.List(c.Request.Context(), c.Query("chatId"))
	if err != nil {
		fail(c, "list messages", err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}
