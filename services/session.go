package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Gandasoft/polylearner-web/config"
	"github.com/Gandasoft/polylearner-web/models"
	"github.com/Gandasoft/polylearner-web/utils"
)

// Session 每个客户端进程唯一的登录身份。显式注入到需要鉴权的组件中
type Session struct {
	baseURL string
	hc      *http.Client
	store   TokenStore
	now     func() time.Time

	mu    sync.RWMutex
	token string
	user  *models.User
}

func NewSession(baseURL string, hc *http.Client, store TokenStore) *Session {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Session{
		baseURL: baseURL,
		hc:      hc,
		store:   store,
		now:     time.Now,
	}
}

// Restore 启动时恢复持久化的令牌。没有令牌或令牌已过期时保持未登录且不返回错误；
// 资料拉取失败等同于会话失效，会登出并返回 ErrSessionExpired。ctx 被取消时保留令牌
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.store.Load(ctx)
	if errors.Is(err, ErrNoToken) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load persisted token: %w", err)
	}

	if utils.TokenExpired(token, s.now()) {
		config.Logger.Infow("持久化令牌已过期，丢弃")
		if err := s.store.Delete(ctx); err != nil {
			config.Logger.Warnw("删除过期令牌失败", "error", err)
		}
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.user = nil
	s.mu.Unlock()

	return s.fetchProfile(ctx, token)
}

// SignIn 用外部身份提供方的令牌换取后端会话
func (s *Session) SignIn(ctx context.Context, externalAccessToken string, expiresIn int) (*models.User, error) {
	var resp models.AuthExchangeResponse
	err := doJSON(ctx, s.hc, http.MethodPost, s.baseURL, "/auth/google", "",
		models.AuthExchangeRequest{AccessToken: externalAccessToken, ExpiresIn: expiresIn}, &resp)
	if err != nil {
		config.Logger.Errorw("登录换取会话失败", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrAuthExchangeFailed, err)
	}
	if resp.AccessToken == "" || resp.User == nil {
		return nil, fmt.Errorf("%w: response missing token or user", ErrAuthExchangeFailed)
	}

	s.mu.Lock()
	s.token = resp.AccessToken
	s.user = resp.User
	s.mu.Unlock()

	if err := s.store.Save(ctx, resp.AccessToken); err != nil {
		config.Logger.Warnw("保存令牌失败，本次会话仍然有效", "error", err)
	}
	config.Logger.Infow("登录成功", "userID", resp.User.ID, "email", resp.User.Email)

	u := *resp.User
	return &u, nil
}

// SignOut 清除内存与持久化的令牌，不调用后端
func (s *Session) SignOut(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.store.Delete(ctx); err != nil {
		config.Logger.Warnw("删除持久化令牌失败", "error", err)
	}
}

// Refresh 重新拉取用户资料（额度字段由后端维护）
func (s *Session) Refresh(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return ErrSessionExpired
	}
	return s.fetchProfile(ctx, token)
}

// HandleUnauthorized 领域请求收到 401 时调用，token 为该请求携带的令牌。
// 只有它仍是当前令牌时才登出，旧令牌的迟到 401 不影响新会话
func (s *Session) HandleUnauthorized(token string) {
	if !s.signOutIfCurrent(context.Background(), token) {
		config.Logger.Infow("忽略旧令牌的 401")
		return
	}
	config.Logger.Warnw("后端拒绝令牌，强制登出")
}

// signOutIfCurrent 令牌未被替换时登出，返回是否执行了登出
func (s *Session) signOutIfCurrent(ctx context.Context, token string) bool {
	s.mu.Lock()
	if token == "" || s.token != token {
		s.mu.Unlock()
		return false
	}
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.store.Delete(ctx); err != nil {
		config.Logger.Warnw("删除持久化令牌失败", "error", err)
	}
	return true
}

func (s *Session) fetchProfile(ctx context.Context, token string) error {
	var user models.User
	if err := doJSON(ctx, s.hc, http.MethodGet, s.baseURL, "/auth/me", token, nil, &user); err != nil {
		// 调用方取消或超时不代表令牌失效，保留会话
		if ctx.Err() != nil {
			config.Logger.Infow("获取用户信息被取消，保留令牌", "error", err)
			return fmt.Errorf("fetch profile: %w", err)
		}
		config.Logger.Warnw("获取用户信息失败，会话失效", "error", err)
		s.signOutIfCurrent(context.Background(), token)
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// 期间令牌可能已被替换或清除
	if s.token != token {
		return ErrSessionExpired
	}
	s.user = &user
	return nil
}

// Token 当前 bearer 令牌，未登录时为空
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User 返回用户副本，未加载时为 nil
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Session) HasToken() bool {
	return s.Token() != ""
}
