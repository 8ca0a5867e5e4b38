package model

import "time"

// Session はサーバー側で保持するRedditのOAuthトークンセッション。
// 実トークンはクライアントに渡さず、HTTP Only CookieのセッションIDだけを配布する。
type Session struct {
	ID           string
	AccessToken  string
	RefreshToken string
	// TokenExpiry はアクセストークンの絶対有効期限。
	TokenExpiry time.Time
	Username    string
	CreatedAt   time.Time
}

// Expired はアクセストークンが期限切れかどうかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !s.TokenExpiry.IsZero() && now.After(s.TokenExpiry)
}
