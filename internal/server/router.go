package server

import (
	"net/http"
	"os"
	"time"

	"directchat/internal/config"
	"directchat/internal/metrics"
	"directchat/internal/mw"
	"directchat/internal/presence"
	"directchat/internal/service"
	"directchat/internal/store"
	"directchat/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// App 汇总路由需要的全部组件，由 main 或测试构造。
type App struct {
	Store    *store.Gateway
	Registry *presence.Registry
	Hub      *ws.Hub
	Users    *service.UserService
	Chats    *service.ChatService
	Messages *service.MessageService
	Presence *service.PresenceService

	limiter *mw.RL
}

// NewApp 基于存储网关组装注册表、Hub 与各 service。调用方负责启动 Hub.Run。
func NewApp(st *store.Gateway) *App {
	reg := presence.NewRegistry()
	hub := ws.NewHub()
	users := service.NewUserService(st)
	return &App{
		Store:    st,
		Registry: reg,
		Hub:      hub,
		Users:    users,
		Chats:    service.NewChatService(st),
		Messages: service.NewMessageService(st, reg),
		Presence: service.NewPresenceService(reg, users, hub),
	}
}

// Close 停止 Hub 与限速器并关闭存储。
func (a *App) Close() error {
	a.Hub.Stop()
	if a.limiter != nil {
		a.limiter.Stop()
	}
	return a.Store.Close()
}

// SetupRouter 统一初始化 Gin 中间件、REST API 以及 WebSocket 端点。
func SetupRouter(cfg config.Config, app *App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	// 控制单个 IP+路由的速率，RPS 为 0 时不限速。
	if cfg.RateLimitRPS > 0 {
		limit, rl := mw.RateLimit(rate.Every(time.Second/time.Duration(cfg.RateLimitRPS)), cfg.RateLimitBurst)
		app.limiter = rl
		r.Use(limit)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": app.Hub.Online(), "online_users": app.Registry.Online()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := NewHandler(app.Users, app.Chats, app.Messages)
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/users", h.ListUsers)
	r.POST("/chats", h.OpenChat)
	r.POST("/chats/pin", h.SetPin)
	r.POST("/messages", h.PostMessage)
	r.GET("/messages", h.ListMessages)

	r.GET("/ws", ws.Serve(app.Hub, ws.Services{Presence: app.Presence, Messages: app.Messages}, cfg.WSSendBuffer))

	if fi, err := os.Stat(cfg.StaticDir); err == nil && fi.IsDir() {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.StaticDir))))
	}
	return r
}
