package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mmcdole/gofeed"

	"github.com/glockstar/fanpage/internal/model"
)

// listViaRSS はサブレディットのAtomフィードから新着投稿を取得する。
// パブリックJSONエンドポイントが失敗した場合のフォールバック経路。
// RSSには投票数やコメント数が含まれないため、それらはゼロ値になる。
func (c *Client) listViaRSS(ctx context.Context, subreddit string, limit int) ([]model.RedditPost, error) {
	reqURL := fmt.Sprintf("%s/r/%s/new/.rss?limit=%d", c.config.PublicBaseURL, url.PathEscape(subreddit), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create rss request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	start := c.now()
	resp, err := c.publicClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rss request failed: %w", err)
	}
	defer resp.Body.Close()
	c.observe(resp.StatusCode, c.now().Sub(start))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss fetch failed with status %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rss feed: %w", err)
	}

	posts := make([]model.RedditPost, 0, len(feed.Items))
	for i, item := range feed.Items {
		if i >= limit {
			break
		}
		author := ""
		if item.Author != nil {
			author = item.Author.Name
		}
		body := item.Content
		if body == "" {
			body = item.Description
		}
		posts = append(posts, model.RedditPost{
			Subreddit: subreddit,
			Author:    author,
			Title:     item.Title,
			Selftext:  c.sanitize(body),
			URL:       item.Link,
			IsSelf:    true,
		})
	}
	return posts, nil
}
