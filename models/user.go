package models

// User 后端返回的用户身份与额度，客户端只读
type User struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	GoogleID    string `json:"google_id"`
	Picture     string `json:"picture,omitempty"`
	CreatedAt   string `json:"created_at"`
	TokensUsed  int    `json:"tokens_used"`
	TokensLimit int    `json:"tokens_limit"`
}

func (u *User) GetDisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// TokensRemaining 剩余 AI 额度，不会小于 0
func (u *User) TokensRemaining() int {
	if u.TokensUsed >= u.TokensLimit {
		return 0
	}
	return u.TokensLimit - u.TokensUsed
}

// AuthExchangeRequest 外部身份令牌换取后端会话
type AuthExchangeRequest struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type AuthExchangeResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}
