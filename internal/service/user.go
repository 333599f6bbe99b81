package service

import (
	"context"
	"strings"
	"time"

	"directchat/internal/ident"
	"directchat/internal/models"
	"directchat/internal/store"
)

// UserService 封装注册、登录、联系人搜索与在线状态持久化。
type UserService struct {
	store *store.Gateway
	now   func() time.Time
}

func NewUserService(st *store.Gateway) *UserService {
	return &UserService{store: st, now: time.Now}
}

// Register 创建新用户，email 必须唯一。
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, invalid("name, email and password are required")
	}
	now := s.now().UTC()
	user := models.User{
		ID:             ident.NewID(),
		Name:           name,
		Email:          email,
		Password:       password,
		IsOnline:       false,
		LastConnection: now,
		CreatedAt:      now,
	}
	err := s.store.Users.Update(ctx, func(users []models.User) ([]models.User, error) {
		for _, u := range users {
			if u.Email == email {
				return nil, ErrEmailTaken
			}
		}
		return append(users, user), nil
	})
	if err != nil {
		if isBusiness(err) {
			return nil, err
		}
		return nil, storageErr("register", err)
	}
	return &user, nil
}

// Login 按 email 查找用户并原样比较密码。
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, invalid("email and password are required")
	}
	users, err := s.store.Users.Read(ctx)
	if err != nil {
		return nil, storageErr("login", err)
	}
	for _, u := range users {
		if u.Email != email {
			continue
		}
		if u.Password != password {
			return nil, ErrInvalidCredentials
		}
		return &u, nil
	}
	return nil, ErrUserNotFound
}

// Get 按 ID 返回用户。
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	users, err := s.store.Users.Read(ctx)
	if err != nil {
		return nil, storageErr("get user", err)
	}
	for _, u := range users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, &Error{Kind: ErrNotFound, Msg: "user not found"}
}

// Search 返回除请求者外、name 或 email 包含 search（不区分大小写）的用户，
// 每个用户附带与请求者之间最近的一条消息。
func (s *UserService) Search(ctx context.Context, search, currentUserID string) ([]models.UserSummary, error) {
	users, err := s.store.Users.Read(ctx)
	if err != nil {
		return nil, storageErr("search users", err)
	}
	msgs, err := s.store.Messages.Read(ctx)
	if err != nil {
		return nil, storageErr("search users", err)
	}
	term := strings.ToLower(strings.TrimSpace(search))

	// 按对方 ID 归组请求者参与的消息，保持持久化顺序
	byPeer := make(map[string][]models.Message)
	for _, m := range msgs {
		switch currentUserID {
		case m.SenderID:
			byPeer[m.ReceiverID] = append(byPeer[m.ReceiverID], m)
		case m.ReceiverID:
			byPeer[m.SenderID] = append(byPeer[m.SenderID], m)
		}
	}

	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		if u.ID == currentUserID {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(u.Name), term) &&
			!strings.Contains(strings.ToLower(u.Email), term) {
			continue
		}
		out = append(out, models.UserSummary{UserView: u.View(), LastMessage: ident.Latest(byPeer[u.ID])})
	}
	return out, nil
}

// SetPresence 持久化用户的 isOnline 与 lastConnection。用户不存在时返回 ErrNotFound。
func (s *UserService) SetPresence(ctx context.Context, userID string, online bool) error {
	err := s.store.Users.Update(ctx, func(users []models.User) ([]models.User, error) {
		for i := range users {
			if users[i].ID == userID {
				users[i].IsOnline = online
				users[i].LastConnection = s.now().UTC()
				return users, nil
			}
		}
		return nil, &Error{Kind: ErrNotFound, Msg: "user not found"}
	})
	if err != nil {
		if isBusiness(err) {
			return err
		}
		return storageErr("set presence", err)
	}
	return nil
}
