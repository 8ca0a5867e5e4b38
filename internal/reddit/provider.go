// Package reddit はReddit OAuthとReddit APIへのアクセスを提供する。
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAuthURL     = "https://www.reddit.com/api/v1/authorize"
	defaultTokenURL    = "https://www.reddit.com/api/v1/access_token"
	defaultIdentityURL = "https://oauth.reddit.com/api/v1/me"

	// oauthScopes は投稿の閲覧・作成と本人確認に必要なスコープ。
	oauthScopes = "identity edit submit read"
)

// OAuthConfig はReddit OAuthプロバイダーの設定。
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	UserAgent    string

	// テスト用にオーバーライド可能なURL
	AuthURL     string
	TokenURL    string
	IdentityURL string

	// HTTPClient はトークン交換と本人確認に使用するクライアント。
	// nilの場合はhttp.DefaultClientを使用する。
	HTTPClient *http.Client
}

// Token はReddit OAuthのトークンセット。
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// OAuthProvider はReddit OAuth 2.0による認証を提供する。
type OAuthProvider struct {
	config     OAuthConfig
	httpClient *http.Client
	now        func() time.Time
}

// NewOAuthProvider はOAuthProviderを生成する。
func NewOAuthProvider(config OAuthConfig) *OAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultTokenURL
	}
	if config.IdentityURL == "" {
		config.IdentityURL = defaultIdentityURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OAuthProvider{
		config:     config,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// AuthCodeURL はRedditの認可URLを生成する。
// duration=permanentによりリフレッシュトークンが発行される。
func (p *OAuthProvider) AuthCodeURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"response_type": {"code"},
		"state":         {state},
		"redirect_uri":  {p.config.RedirectURL},
		"duration":      {"permanent"},
		"scope":         {oauthScopes},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

// tokenResponse はRedditのトークンエンドポイントのレスポンス。
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Error        string `json:"error"`
}

// ExchangeCode は認可コードをトークンセットに交換する。
func (p *OAuthProvider) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	data := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {p.config.RedirectURL},
	}
	return p.requestToken(ctx, data)
}

// Refresh はリフレッシュトークンで新しいアクセストークンを取得する。
// Redditはリフレッシュ時に新しいrefresh_tokenを返すことがあり、
// 返された場合はそれが既存のものを置き換える。
func (p *OAuthProvider) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	token, err := p.requestToken(ctx, data)
	if err != nil {
		return nil, err
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}

// requestToken はトークンエンドポイントにリクエストを送信する。
// Redditのトークンエンドポイントはclient_id:client_secretのBasic認証を要求する。
func (p *OAuthProvider) requestToken(ctx context.Context, data url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(p.config.ClientID, p.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", p.config.UserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.Error != "" {
		return nil, fmt.Errorf("token request rejected: %s", tokenResp.Error)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	return &Token{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		Expiry:       p.now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
	}, nil
}

// identityResponse はRedditの本人確認エンドポイントのレスポンス。
type identityResponse struct {
	Name string `json:"name"`
}

// Identity はアクセストークンの持ち主のユーザー名を取得する。
func (p *OAuthProvider) Identity(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.IdentityURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", p.config.UserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read identity response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("identity fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var identity identityResponse
	if err := json.Unmarshal(body, &identity); err != nil {
		return "", fmt.Errorf("failed to parse identity response: %w", err)
	}

	if identity.Name == "" {
		return "", fmt.Errorf("empty name in identity response")
	}

	return identity.Name, nil
}
