// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/glockstar/fanpage/internal/metrics"
	"github.com/glockstar/fanpage/internal/model"
)

const (
	sessionCookieName = "reddit_session"
	oauthStateCookie  = "oauth_state"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	BeginLogin() (authURL, state string, err error)
	HandleCallback(ctx context.Context, code string) (*model.Session, error)
	Status(ctx context.Context, sessionID string) (*model.AuthState, error)
	Session(ctx context.Context, sessionID string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// RedditClientInterface はReddit APIプロキシが必要とするクライアントインターフェース。
type RedditClientInterface interface {
	ListNewPosts(ctx context.Context, subreddit, accessToken string, limit int) ([]model.RedditPost, error)
	Submit(ctx context.Context, accessToken string, submission *model.PostSubmission) error
}

// RedditHandlerConfig はRedditプロキシハンドラーの設定。
type RedditHandlerConfig struct {
	BaseURL        string
	CookieDomain   string
	CookieSecure   bool
	SessionMaxAge  int // セッションCookieの有効期間（秒）
	PostFetchLimit int
}

// RedditHandler はReddit OAuthと投稿プロキシのHTTPハンドラー。
type RedditHandler struct {
	auth      AuthServiceInterface
	client    RedditClientInterface
	collector metrics.MetricsCollector
	config    RedditHandlerConfig
}

// NewRedditHandler はRedditHandlerを生成する。collectorはnil可。
func NewRedditHandler(
	auth AuthServiceInterface,
	client RedditClientInterface,
	collector metrics.MetricsCollector,
	config RedditHandlerConfig,
) *RedditHandler {
	return &RedditHandler{
		auth:      auth,
		client:    client,
		collector: collector,
		config:    config,
	}
}

// AuthURL はReddit OAuthの認可URLを発行する。
// GET /api/reddit/auth-url
func (h *RedditHandler) AuthURL(w http.ResponseWriter, r *http.Request) {
	h.recordProxy("auth_url")

	authURL, state, err := h.auth.BeginLogin()
	if err != nil {
		slog.Error("failed to begin oauth login", slog.String("error", err.Error()))
		writeProxyError(w, http.StatusInternalServerError, "認可URLの生成に失敗しました。")
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"auth_url": authURL,
	})
}

// Callback はReddit OAuthコールバックを処理する。
// 成功・失敗いずれもフロントエンドの/redditページにリダイレクトし、
// 結果はクエリパラメータで通知する。
// GET /reddit-callback?code=xxx&state=yyy
func (h *RedditHandler) Callback(w http.ResponseWriter, r *http.Request) {
	h.recordProxy("callback")

	// Reddit側でユーザーが拒否した場合などはerrorパラメータが付く
	if reason := r.URL.Query().Get("error"); reason != "" {
		slog.Warn("oauth callback returned error", slog.String("reason", reason))
		h.redirectWithError(w, r, reason)
		return
	}

	// stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch", slog.String("query_state", state))
		h.redirectWithError(w, r, "invalid_state")
		return
	}

	// stateクッキーを削除
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectWithError(w, r, "missing_code")
		return
	}

	session, err := h.auth.HandleCallback(r.Context(), code)
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		h.redirectWithError(w, r, "auth_failed")
		return
	}

	// セッションCookieを設定（HTTP Only、トークンはサーバー側にのみ保存）
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.config.BaseURL+"/reddit?success=authenticated", http.StatusTemporaryRedirect)
}

// User は現在の認証状態を返す。
// 未認証・セッション無効・リフレッシュ失敗のいずれでも401ではなく
// authenticated:false を返す（フロントエンドはフェイルオープンで動作する）。
// GET /api/reddit/user
func (h *RedditHandler) User(w http.ResponseWriter, r *http.Request) {
	h.recordProxy("user")

	state, err := h.auth.Status(r.Context(), h.sessionID(r))
	if err != nil {
		slog.Error("failed to resolve auth status", slog.String("error", err.Error()))
		state = &model.AuthState{Authenticated: false}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}

// Posts はサブレディットの新着投稿を取得する。
// 認証済みの場合はOAuthホスト、未認証の場合はパブリックエンドポイントを使う。
// GET /api/reddit/posts/{subreddit}
func (h *RedditHandler) Posts(w http.ResponseWriter, r *http.Request) {
	h.recordProxy("posts")

	subreddit := chi.URLParam(r, "subreddit")

	accessToken := ""
	if session, err := h.auth.Session(r.Context(), h.sessionID(r)); err == nil && session != nil {
		accessToken = session.AccessToken
	}

	posts, err := h.client.ListNewPosts(r.Context(), subreddit, accessToken, h.config.PostFetchLimit)
	if err != nil {
		handleProxyError(w, err)
		return
	}

	// Reddit APIのリスティング構造をそのまま模したレスポンス
	children := make([]map[string]any, len(posts))
	for i, post := range posts {
		children[i] = map[string]any{"data": post}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data": map[string]any{
			"data": map[string]any{
				"children": children,
			},
		},
	})
}

// Submit は新規投稿を作成する。認証必須。
// POST /api/reddit/submit
func (h *RedditHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.recordProxy("submit")

	session, err := h.auth.Session(r.Context(), h.sessionID(r))
	if err != nil {
		slog.Error("failed to resolve session", slog.String("error", err.Error()))
		handleProxyError(w, model.NewNotAuthenticatedError())
		h.recordSubmit(false)
		return
	}
	if session == nil {
		handleProxyError(w, model.NewNotAuthenticatedError())
		h.recordSubmit(false)
		return
	}

	var submission model.PostSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		writeProxyError(w, http.StatusBadRequest, "リクエストボディの解析に失敗しました。")
		h.recordSubmit(false)
		return
	}

	if err := h.client.Submit(r.Context(), session.AccessToken, &submission); err != nil {
		handleProxyError(w, err)
		h.recordSubmit(false)
		return
	}

	h.recordSubmit(true)
	slog.Info("post submitted",
		slog.String("subreddit", submission.Subreddit),
		slog.String("kind", string(submission.Kind)),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// Logout はセッションを破棄し、セッションCookieをクリアする。
// POST /api/reddit/logout
func (h *RedditHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.recordProxy("logout")

	if sessionID := h.sessionID(r); sessionID != "" {
		if err := h.auth.Logout(r.Context(), sessionID); err != nil {
			slog.Error("failed to logout", slog.String("error", err.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// sessionID はリクエストのセッションCookie値を返す。Cookieがなければ空文字。
func (h *RedditHandler) sessionID(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// redirectWithError はフロントエンドの/redditページにエラー理由付きでリダイレクトする。
func (h *RedditHandler) redirectWithError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, h.config.BaseURL+"/reddit?error="+url.QueryEscape(reason), http.StatusTemporaryRedirect)
}

func (h *RedditHandler) recordProxy(endpoint string) {
	if h.collector != nil {
		h.collector.RecordProxyRequest(endpoint)
	}
}

func (h *RedditHandler) recordSubmit(success bool) {
	if h.collector != nil {
		h.collector.RecordSubmitOutcome(success)
	}
}

// --- ヘルパー関数 ---

// writeProxyError は {success:false, error} 形式でエラーレスポンスを書き込む。
func writeProxyError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}

// handleProxyError はサービス層から返されたエラーをプロキシレスポンス形式に変換する。
func handleProxyError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeProxyError(w, mapAPIErrorToHTTPStatus(apiErr), apiErr.Message)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	writeProxyError(w, http.StatusInternalServerError, "内部エラーが発生しました。")
}
