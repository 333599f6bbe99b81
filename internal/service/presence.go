package service

import (
	"context"
	"errors"
	"strconv"

	"directchat/internal/event"
	"directchat/internal/metrics"
	"directchat/internal/models"
	"directchat/internal/presence"

	"github.com/rs/zerolog/log"
)

// Broadcaster 把一帧数据发送给所有在线连接。
type Broadcaster interface {
	Broadcast(frame []byte)
}

// PresenceService 管理连接的绑定与解绑：更新注册表、持久化在线状态，
// 写入成功后再广播 userStatusChanged。
type PresenceService struct {
	registry *presence.Registry
	users    *UserService
	hub      Broadcaster
}

func NewPresenceService(registry *presence.Registry, users *UserService, hub Broadcaster) *PresenceService {
	return &PresenceService{registry: registry, users: users, hub: hub}
}

// Connect 把 conn 绑定到 userID。同一用户的旧连接被覆盖后不再接收定向推送。
// 未知用户仍会被绑定，但不写库也不广播。
func (s *PresenceService) Connect(ctx context.Context, userID string, conn presence.Conn) error {
	if userID == "" {
		return invalid("userId is required")
	}
	if prev := s.registry.Register(userID, conn); prev != nil {
		log.Info().Str("user_id", userID).Msg("newer connection replaced previous binding")
	}
	metrics.OnlineUsers.Set(float64(s.registry.Online()))
	return s.transition(ctx, userID, true)
}

// Disconnect 解除 conn 的绑定。conn 若已被更新的连接取代则什么也不做。
func (s *PresenceService) Disconnect(ctx context.Context, conn presence.Conn) error {
	userID, ok := s.registry.Unregister(conn)
	if !ok {
		return nil
	}
	metrics.OnlineUsers.Set(float64(s.registry.Online()))
	return s.transition(ctx, userID, false)
}

func (s *PresenceService) IsOnline(userID string) bool {
	return s.registry.IsOnline(userID)
}

func (s *PresenceService) transition(ctx context.Context, userID string, online bool) error {
	if err := s.users.SetPresence(ctx, userID, online); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Str("user_id", userID).Bool("online", online).Msg("presence change for unknown user")
			return nil
		}
		return err
	}
	frame, err := event.Encode(event.UserStatusChanged, models.StatusChange{UserID: userID, IsOnline: online})
	if err != nil {
		return err
	}
	s.hub.Broadcast(frame)
	metrics.PresenceTransitions.WithLabelValues(strconv.FormatBool(online)).Inc()
	log.Debug().Str("user_id", userID).Bool("online", online).Msg("presence changed")
	return nil
}
