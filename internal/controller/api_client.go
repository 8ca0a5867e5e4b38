package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/glockstar/fanpage/internal/model"
)

// APIClient はHTTP経由でバックエンドのプロキシAPIを呼び出すProxyClientの実装。
// セッションCookieとCSRFトークンCookieはジャーで自動管理される。
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient はAPIClientを生成する。
// baseURLはバックエンドのルートURL（末尾スラッシュなし）。
func NewAPIClient(baseURL string, httpClient *http.Client) (*APIClient, error) {
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		httpClient = &http.Client{
			Timeout: 15 * time.Second,
			Jar:     jar,
		}
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// AuthStatus は現在の認証状態を取得する。
func (c *APIClient) AuthStatus(ctx context.Context) (*model.AuthState, error) {
	var state model.AuthState
	if err := c.getJSON(ctx, "/api/reddit/user", &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// AuthURL はReddit OAuthの認可URLを取得する。
func (c *APIClient) AuthURL(ctx context.Context) (string, error) {
	var body struct {
		Success bool   `json:"success"`
		AuthURL string `json:"auth_url"`
		Error   string `json:"error"`
	}
	if err := c.getJSON(ctx, "/api/reddit/auth-url", &body); err != nil {
		return "", err
	}
	if !body.Success || body.AuthURL == "" {
		return "", fmt.Errorf("auth URL request failed: %s", body.Error)
	}
	return body.AuthURL, nil
}

// Logout はセッションを破棄する。
func (c *APIClient) Logout(ctx context.Context) error {
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := c.postJSON(ctx, "/api/reddit/logout", nil, &body); err != nil {
		return err
	}
	if !body.Success {
		return fmt.Errorf("logout failed: %s", body.Error)
	}
	return nil
}

// FetchPosts はサブレディットの新着投稿を取得する。
func (c *APIClient) FetchPosts(ctx context.Context, subreddit string) ([]model.RedditPost, error) {
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Data    struct {
			Data struct {
				Children []struct {
					Data model.RedditPost `json:"data"`
				} `json:"children"`
			} `json:"data"`
		} `json:"data"`
	}
	path := "/api/reddit/posts/" + url.PathEscape(subreddit)
	if err := c.getJSON(ctx, path, &body); err != nil {
		return nil, err
	}
	if !body.Success {
		return nil, model.NewRedditAPIError(body.Error)
	}

	posts := make([]model.RedditPost, len(body.Data.Data.Children))
	for i, child := range body.Data.Data.Children {
		posts[i] = child.Data
	}
	return posts, nil
}

// SubmitPost は新規投稿を送信する。
func (c *APIClient) SubmitPost(ctx context.Context, submission *model.PostSubmission) error {
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := c.postJSON(ctx, "/api/reddit/submit", submission, &body); err != nil {
		return err
	}
	if !body.Success {
		return model.NewRedditAPIError(body.Error)
	}
	return nil
}

// getJSON はGETリクエストを送ってJSONレスポンスをデコードする。
func (c *APIClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// postJSON はCSRFトークンを取得したうえでPOSTリクエストを送る。
func (c *APIClient) postJSON(ctx context.Context, path string, payload, out any) error {
	token, err := c.csrfToken(ctx)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// csrfToken はCSRFトークンを取得する。CookieはジャーによりPOSTにも同送される。
func (c *APIClient) csrfToken(ctx context.Context) (string, error) {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.getJSON(ctx, "/api/csrf-token", &body); err != nil {
		return "", fmt.Errorf("failed to obtain csrf token: %w", err)
	}
	return body.Token, nil
}

// compile-time interface check
var _ ProxyClient = (*APIClient)(nil)
