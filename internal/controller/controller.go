package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/glockstar/fanpage/internal/model"
)

// bannerTTL はバナーが自動的に消えるまでの表示時間。
const bannerTTL = 5 * time.Second

// ProxyClient はバックエンドのRedditプロキシAPIを抽象化する。
type ProxyClient interface {
	// AuthStatus は現在の認証状態を取得する。
	AuthStatus(ctx context.Context) (*model.AuthState, error)
	// AuthURL はReddit OAuthの認可URLを取得する。
	AuthURL(ctx context.Context) (string, error)
	// Logout はセッションを破棄する。
	Logout(ctx context.Context) error
	// FetchPosts はサブレディットの新着投稿を取得する。
	FetchPosts(ctx context.Context, subreddit string) ([]model.RedditPost, error)
	// SubmitPost は新規投稿を送信する。
	SubmitPost(ctx context.Context, submission *model.PostSubmission) error
}

// Controller はソーシャル投稿ページの状態遷移を駆動する。
// すべての遷移はmutexで直列化され、遷移後の状態はRendererに渡される。
type Controller struct {
	client    ProxyClient
	renderer  Renderer
	navigator Navigator
	clock     Clock
	subreddit string

	mu    sync.Mutex
	state ViewState

	// fetchGen は一覧取得の世代カウンター。
	// 古い取得の完了は世代が進んでいたら破棄される。
	fetchGen uint64

	// bannerTimer は表示中バナーの消去タイマー。
	// バナーの上書き時には前のタイマーを必ず停止する。
	bannerTimer Timer
	bannerSeq   uint64
}

// New はControllerを生成する。
func New(client ProxyClient, renderer Renderer, navigator Navigator, clock Clock, subreddit string) *Controller {
	return &Controller{
		client:    client,
		renderer:  renderer,
		navigator: navigator,
		clock:     clock,
		subreddit: subreddit,
		state: ViewState{
			PostList: PostListIdle,
			Form:     FormIdle,
		},
	}
}

// State は現在のViewStateのスナップショットを返す。
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CheckAuthStatus はページロード時の認証状態確認を行う。
// 確認に失敗した場合は未認証として扱い（フェイルオープン）、
// 認証状態にかかわらず投稿一覧の取得を開始する。
func (c *Controller) CheckAuthStatus(ctx context.Context) {
	state, err := c.client.AuthStatus(ctx)
	if err != nil {
		slog.Warn("auth status check failed", slog.String("error", err.Error()))
		state = &model.AuthState{Authenticated: false}
	}

	c.mu.Lock()
	c.state.Auth = *state
	c.render()
	c.mu.Unlock()

	c.FetchPosts(ctx)
}

// InitiateAuth はReddit OAuthフローを開始する。
// 認可URLの取得に失敗した場合はエラーバナーを表示する。
func (c *Controller) InitiateAuth(ctx context.Context) {
	authURL, err := c.client.AuthURL(ctx)
	if err != nil {
		slog.Error("failed to obtain auth URL", slog.String("error", err.Error()))
		c.ShowBanner(BannerError, "Redditへの接続を開始できませんでした。")
		return
	}
	c.navigator.Redirect(authURL)
}

// Logout はログアウトを実行する。
// 成功時は未認証状態へ遷移し、失敗時はログのみ残して状態を変えない。
func (c *Controller) Logout(ctx context.Context) {
	if err := c.client.Logout(ctx); err != nil {
		slog.Error("logout failed", slog.String("error", err.Error()))
		return
	}

	c.mu.Lock()
	c.state.Auth = model.AuthState{Authenticated: false}
	c.render()
	c.mu.Unlock()
}

// FetchPosts は投稿一覧を取得する。
// 取得中はローディングプレースホルダーを表示し、
// 完了時に世代が進んでいた場合（後続の取得が始まっていた場合）は結果を破棄する。
func (c *Controller) FetchPosts(ctx context.Context) {
	c.mu.Lock()
	c.fetchGen++
	gen := c.fetchGen
	c.state.PostList = PostListLoading
	c.state.PostsError = ""
	c.render()
	c.mu.Unlock()

	posts, err := c.client.FetchPosts(ctx, c.subreddit)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.fetchGen {
		// 古い取得の完了。新しい取得が進行中なので破棄する。
		return
	}

	if err != nil {
		slog.Error("failed to fetch posts",
			slog.String("subreddit", c.subreddit),
			slog.String("error", err.Error()),
		)
		c.state.PostList = PostListError
		c.state.Posts = nil
		c.state.PostsError = fetchErrorMessage(err)
		c.render()
		return
	}

	c.state.PostList = PostListLoaded
	c.state.Posts = posts
	c.render()
}

// SubmitPost は新規投稿を送信する。
// ローカル検証に失敗した場合はリクエストを送らずにエラーバナーを表示する。
// 成功時はフォームをリセットして成功バナーを表示し、一覧を再取得する。
func (c *Controller) SubmitPost(ctx context.Context, submission *model.PostSubmission) {
	if apiErr := submission.Validate(); apiErr != nil {
		c.ShowBanner(BannerError, apiErr.Message)
		return
	}

	c.mu.Lock()
	if c.state.Form == FormSubmitting {
		// 送信中の再送信は無視する
		c.mu.Unlock()
		return
	}
	c.state.Form = FormSubmitting
	c.render()
	c.mu.Unlock()

	err := c.client.SubmitPost(ctx, submission)

	c.mu.Lock()
	c.state.Form = FormIdle
	c.render()
	c.mu.Unlock()

	if err != nil {
		c.ShowBanner(BannerError, submitErrorMessage(err))
		return
	}

	c.ShowBanner(BannerSuccess, "投稿しました。")
	c.FetchPosts(ctx)
}

// ShowBanner はバナーを表示する。
// スロットは1つだけで、表示中のバナーは上書きされ、前のタイマーは停止される。
// バナーはTTL経過後に自動的に消える。
func (c *Controller) ShowBanner(kind BannerKind, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
	}

	c.bannerSeq++
	seq := c.bannerSeq
	c.state.Banner = &Banner{Kind: kind, Text: text}
	c.render()

	c.bannerTimer = c.clock.AfterFunc(bannerTTL, func() {
		c.clearBanner(seq)
	})
}

// clearBanner はタイマー発火時にバナーを消去する。
// 発火までの間に別のバナーに上書きされていた場合は何もしない。
func (c *Controller) clearBanner(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.bannerSeq {
		return
	}
	c.state.Banner = nil
	c.render()
}

// ConsumeQueryParams はOAuthリダイレクト後のクエリパラメータを処理する。
// ?success=authenticated は成功バナー、?error= はエラーバナーを表示する。
// パラメータを消費した場合はtrueを返し、呼び出し側はアドレスから
// パラメータを取り除く必要がある。
func (c *Controller) ConsumeQueryParams(values url.Values) bool {
	if reason := values.Get("error"); reason != "" {
		c.ShowBanner(BannerError, "Reddit認証に失敗しました: "+reason)
		return true
	}
	if values.Get("success") == "authenticated" {
		c.ShowBanner(BannerSuccess, "Redditアカウントと連携しました。")
		return true
	}
	return false
}

// render は現在の状態をRendererへ渡す。呼び出し元がロックを保持していること。
func (c *Controller) render() {
	c.renderer.Render(c.state)
}

// submitErrorMessage は投稿失敗時の表示メッセージを決定する。
// サーバーからのAPIErrorメッセージを優先し、なければ汎用メッセージを使う。
func submitErrorMessage(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "投稿に失敗しました。しばらく待ってから再度お試しください。"
}

// fetchErrorMessage は一覧取得失敗時のプレースホルダー文言を決定する。
// サーバーが返したエラー内容を文言に含め、通信エラー等でメッセージが
// 取れない場合のみ汎用文言を使う。
func fetchErrorMessage(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return "投稿を読み込めませんでした: " + apiErr.Message
	}
	return "投稿を読み込めませんでした。"
}
