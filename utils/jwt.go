package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrNoExpiry = errors.New("token has no exp claim")

// TokenExpiry 读取 JWT 的 exp 声明，不校验签名（签名由后端负责）
func TokenExpiry(tokenString string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, fmt.Errorf("解析 token 失败: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// TokenExpired 无法解析或没有 exp 的令牌一律视为过期
func TokenExpired(tokenString string, now time.Time) bool {
	exp, err := TokenExpiry(tokenString)
	if err != nil {
		return true
	}
	return !exp.After(now)
}
