package model

import (
	"time"

	"github.com/bigkaa/asset-console/internal/domain/rbac"
)

// Session: состояние аутентификации одного браузера. Принадлежит
// сервису сессий и передаётся явно через контекст запроса.
type Session struct {
	ID        string
	Principal rbac.Principal
	// Токен внешнего API, передаётся как x-auth-token.
	Token          string
	TokenIssuedAt  time.Time
	TokenExpiresAt time.Time
	// IdleDeadline сдвигается при каждой активности.
	IdleDeadline time.Time
	CreatedAt    time.Time
}

// Причины завершения сессии.
const (
	ExpiryIdle  = "idle"
	ExpiryToken = "token"
)

// ExpiredAt возвращает причину недействительности сессии на момент now
// или "", если сессия действует.
func (s *Session) ExpiredAt(now time.Time) string {
	if !s.TokenExpiresAt.IsZero() && !now.Before(s.TokenExpiresAt) {
		return ExpiryToken
	}
	if !now.Before(s.IdleDeadline) {
		return ExpiryIdle
	}
	return ""
}

// Touch переносит дедлайн неактивности. Дедлайн один, поэтому
// повторная активность не накапливает таймеры.
func (s *Session) Touch(now time.Time, idle time.Duration) {
	s.IdleDeadline = now.Add(idle)
}

// Clone возвращает копию, которую можно изменять.
func (s *Session) Clone() *Session {
	c := *s
	return &c
}
