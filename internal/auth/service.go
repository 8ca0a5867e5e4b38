// Package auth はReddit OAuth認証フローとセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/glockstar/fanpage/internal/model"
	"github.com/glockstar/fanpage/internal/reddit"
	"github.com/glockstar/fanpage/internal/repository"
)

// OAuthProvider はReddit OAuthプロバイダーのインターフェース。
// テスト時のモック差し替えのための抽象化。
type OAuthProvider interface {
	// AuthCodeURL は認可URLを生成する。
	AuthCodeURL(state string) string
	// ExchangeCode は認可コードをトークンセットに交換する。
	ExchangeCode(ctx context.Context, code string) (*reddit.Token, error)
	// Refresh はリフレッシュトークンで新しいトークンセットを取得する。
	Refresh(ctx context.Context, refreshToken string) (*reddit.Token, error)
	// Identity はアクセストークンの持ち主のユーザー名を取得する。
	Identity(ctx context.Context, accessToken string) (string, error)
}

// Service は認証に関するビジネスロジックを提供する。
// RedditのOAuthトークンはサーバー側セッションにのみ保存し、
// クライアントにはセッションIDだけを配布する。
type Service struct {
	oauth       OAuthProvider
	sessionRepo repository.SessionRepository
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(oauth OAuthProvider, sessionRepo repository.SessionRepository) *Service {
	return &Service{
		oauth:       oauth,
		sessionRepo: sessionRepo,
		now:         time.Now,
	}
}

// BeginLogin はCSRF対策のstateを生成し、認可URLと共に返す。
// stateは呼び出し側がコールバック検証用のCookieに保存する。
func (s *Service) BeginLogin() (authURL, state string, err error) {
	state, err = generateState()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}
	return s.oauth.AuthCodeURL(state), state, nil
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// 認可コードをトークンに交換し、本人確認でユーザー名を取得してから永続化する。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	token, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	username, err := s.oauth.Identity(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reddit identity: %w", err)
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:           sessionID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  token.Expiry,
		Username:     username,
		CreatedAt:    s.now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	slog.Info("reddit user logged in", slog.String("username", username))
	return session, nil
}

// Status はセッションの認証状態を返す。
// アクセストークンが期限切れの場合はリフレッシュを試み、
// リフレッシュに失敗した場合はセッションを破棄して未認証として返す。
// セッションが存在しない場合もエラーではなく未認証として返す。
func (s *Service) Status(ctx context.Context, sessionID string) (*model.AuthState, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return &model.AuthState{Authenticated: false}, nil
	}
	return &model.AuthState{Authenticated: true, Username: session.Username}, nil
}

// Session は有効なアクセストークンを持つセッションを返す。
// 期限切れトークンはリフレッシュし、更新後のトークンを永続化する。
// リフレッシュに失敗した場合はセッション行を削除してnilを返す。
func (s *Service) Session(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	if !session.Expired(s.now()) {
		return session, nil
	}

	if session.RefreshToken == "" {
		// リフレッシュ不能なセッションは破棄する
		s.discardSession(ctx, session.ID, "no refresh token")
		return nil, nil
	}

	token, err := s.oauth.Refresh(ctx, session.RefreshToken)
	if err != nil {
		s.discardSession(ctx, session.ID, err.Error())
		return nil, nil
	}

	session.AccessToken = token.AccessToken
	session.RefreshToken = token.RefreshToken
	session.TokenExpiry = token.Expiry

	if err := s.sessionRepo.UpdateTokens(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}

	slog.Info("reddit token refreshed", slog.String("username", session.Username))
	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// discardSession はリフレッシュ不能になったセッションを削除する。
// 削除の失敗はログに残すだけで呼び出し元へは伝播しない。
func (s *Service) discardSession(ctx context.Context, sessionID, reason string) {
	slog.Warn("discarding reddit session",
		slog.String("session_id", sessionID),
		slog.String("reason", reason),
	)
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		slog.Error("failed to delete stale session",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// generateState はOAuthのstateパラメータを生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
