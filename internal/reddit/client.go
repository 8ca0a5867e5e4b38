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

	"github.com/glockstar/fanpage/internal/metrics"
	"github.com/glockstar/fanpage/internal/model"
	"github.com/glockstar/fanpage/internal/security"
)

const (
	defaultOAuthBaseURL  = "https://oauth.reddit.com"
	defaultPublicBaseURL = "https://www.reddit.com"
)

// ClientConfig はReddit APIクライアントの設定。
type ClientConfig struct {
	UserAgent string

	// テスト用にオーバーライド可能なURL
	OAuthBaseURL  string
	PublicBaseURL string

	// HTTPClient は認証済みリクエストに使用するクライアント。
	// nilの場合はhttp.DefaultClientを使用する。
	HTTPClient *http.Client

	// PublicClient は未認証のパブリックAPIアクセスに使用するクライアント。
	// SSRF防止付きクライアントを渡すことを想定している。
	// nilの場合はHTTPClientを使用する。
	PublicClient *http.Client
}

// Client はReddit APIへのアクセスを提供する。
// 投稿一覧の取得と新規投稿の作成を担う。
type Client struct {
	config       ClientConfig
	httpClient   *http.Client
	publicClient *http.Client
	sanitizer    security.ContentSanitizerService
	metrics      metrics.MetricsCollector
	now          func() time.Time
}

// NewClient はReddit APIクライアントを生成する。
// sanitizerは投稿本文のサニタイズに使用する。collectorはnil可。
func NewClient(config ClientConfig, sanitizer security.ContentSanitizerService, collector metrics.MetricsCollector) *Client {
	if config.OAuthBaseURL == "" {
		config.OAuthBaseURL = defaultOAuthBaseURL
	}
	if config.PublicBaseURL == "" {
		config.PublicBaseURL = defaultPublicBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	publicClient := config.PublicClient
	if publicClient == nil {
		publicClient = httpClient
	}
	return &Client{
		config:       config,
		httpClient:   httpClient,
		publicClient: publicClient,
		sanitizer:    sanitizer,
		metrics:      collector,
		now:          time.Now,
	}
}

// SanitizeSubreddit はサブレディット名を正規化して検証する。
// 前後の空白を除去して小文字化し、英数字とアンダースコアのみを許可する。
func SanitizeSubreddit(subreddit string) (string, *model.APIError) {
	s := strings.ToLower(strings.TrimSpace(subreddit))
	if s == "" {
		return "", model.NewInvalidSubredditError(subreddit)
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return "", model.NewInvalidSubredditError(subreddit)
		}
	}
	return s, nil
}

// listingResponse はRedditのリスティングAPIのレスポンス。
type listingResponse struct {
	Data struct {
		Children []struct {
			Data postData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// postData はリスティング内の1投稿。
type postData struct {
	Subreddit   string `json:"subreddit"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Selftext    string `json:"selftext"`
	Thumbnail   string `json:"thumbnail"`
	URL         string `json:"url"`
	IsSelf      bool   `json:"is_self"`
	Ups         int    `json:"ups"`
	NumComments int    `json:"num_comments"`
}

// ListNewPosts は指定サブレディットの新着投稿を取得する。
// アクセストークンがある場合はOAuthホストを使用し、
// ない場合はパブリックJSONエンドポイントを使用する。
// パブリックJSONの取得に失敗した場合はRSSフィードにフォールバックする。
func (c *Client) ListNewPosts(ctx context.Context, subreddit, accessToken string, limit int) ([]model.RedditPost, error) {
	sub, apiErr := SanitizeSubreddit(subreddit)
	if apiErr != nil {
		return nil, apiErr
	}

	if accessToken != "" {
		return c.listViaOAuth(ctx, sub, accessToken, limit)
	}

	posts, err := c.listViaPublicJSON(ctx, sub, limit)
	if err == nil {
		return posts, nil
	}

	// パブリックJSONはレート制限されやすいため、RSSで再試行する
	rssPosts, rssErr := c.listViaRSS(ctx, sub, limit)
	if rssErr != nil {
		return nil, fmt.Errorf("public listing failed (%v), rss fallback failed: %w", err, rssErr)
	}
	return rssPosts, nil
}

// listViaOAuth は認証済みAPIから新着投稿を取得する。
func (c *Client) listViaOAuth(ctx context.Context, subreddit, accessToken string, limit int) ([]model.RedditPost, error) {
	reqURL := fmt.Sprintf("%s/r/%s/new?limit=%d", c.config.OAuthBaseURL, url.PathEscape(subreddit), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	return c.doListing(req, c.httpClient)
}

// listViaPublicJSON はパブリックJSONエンドポイントから新着投稿を取得する。
func (c *Client) listViaPublicJSON(ctx context.Context, subreddit string, limit int) ([]model.RedditPost, error) {
	reqURL := fmt.Sprintf("%s/r/%s/new.json?limit=%d", c.config.PublicBaseURL, url.PathEscape(subreddit), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create public listing request: %w", err)
	}

	return c.doListing(req, c.publicClient)
}

// doListing はリスティングリクエストを実行してビューモデルに変換する。
func (c *Client) doListing(req *http.Request, client *http.Client) ([]model.RedditPost, error) {
	req.Header.Set("User-Agent", c.config.UserAgent)

	start := c.now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing request failed: %w", err)
	}
	defer resp.Body.Close()
	c.observe(resp.StatusCode, c.now().Sub(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewRedditAPIError(fmt.Sprintf("listing failed with status %d", resp.StatusCode))
	}

	var listing listingResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse listing response: %w", err)
	}

	posts := make([]model.RedditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		posts = append(posts, model.RedditPost{
			Subreddit:   d.Subreddit,
			Author:      d.Author,
			Title:       d.Title,
			Selftext:    c.sanitize(d.Selftext),
			Thumbnail:   d.Thumbnail,
			URL:         d.URL,
			IsSelf:      d.IsSelf,
			Ups:         d.Ups,
			NumComments: d.NumComments,
		})
	}
	return posts, nil
}

// submitResponse はRedditの投稿APIのレスポンスエンベロープ。
// errorsは [code, message, field] 形式の配列の配列。
type submitResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
	} `json:"json"`
}

// Submit は新規投稿を作成する。
// 入力検証に失敗した場合はネットワーク呼び出しを行わずにAPIErrorを返す。
func (c *Client) Submit(ctx context.Context, accessToken string, submission *model.PostSubmission) error {
	if apiErr := submission.Validate(); apiErr != nil {
		return apiErr
	}

	sub, apiErr := SanitizeSubreddit(submission.Subreddit)
	if apiErr != nil {
		return apiErr
	}

	data := url.Values{
		"api_type": {"json"},
		"sr":       {sub},
		"title":    {submission.Title},
	}
	switch submission.Kind {
	case model.PostKindLink:
		data.Set("kind", "link")
		data.Set("url", submission.URL)
	default:
		data.Set("kind", "self")
		data.Set("text", submission.Content)
	}

	reqURL := c.config.OAuthBaseURL + "/api/submit"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create submit request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.config.UserAgent)

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit request failed: %w", err)
	}
	defer resp.Body.Close()
	c.observe(resp.StatusCode, c.now().Sub(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read submit response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return model.NewRedditAPIError(fmt.Sprintf("submit failed with status %d", resp.StatusCode))
	}

	var submitResp submitResponse
	if err := json.Unmarshal(body, &submitResp); err != nil {
		return fmt.Errorf("failed to parse submit response: %w", err)
	}

	if len(submitResp.JSON.Errors) > 0 {
		return model.NewRedditAPIError(joinSubmitErrors(submitResp.JSON.Errors))
	}

	return nil
}

// joinSubmitErrors はRedditのエラー配列を "CODE: message" 形式で結合する。
func joinSubmitErrors(errs [][]any) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		fields := make([]string, 0, len(e))
		for _, v := range e {
			if s, ok := v.(string); ok && s != "" {
				fields = append(fields, s)
			}
		}
		if len(fields) > 0 {
			parts = append(parts, strings.Join(fields, ": "))
		}
	}
	return strings.Join(parts, "; ")
}

// sanitize は投稿本文をサニタイズする。sanitizerがnilの場合はそのまま返す。
func (c *Client) sanitize(text string) string {
	if c.sanitizer == nil {
		return text
	}
	return c.sanitizer.Sanitize(text)
}

// observe はReddit APIの応答をメトリクスに記録する。
func (c *Client) observe(statusCode int, latency time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordRedditStatus(statusCode)
	c.metrics.RecordRedditLatency(latency)
}
