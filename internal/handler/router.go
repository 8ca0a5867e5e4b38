package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/glockstar/fanpage/internal/metrics"
	"github.com/glockstar/fanpage/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig

	// Redditプロキシ
	AuthService  AuthServiceInterface
	RedditClient RedditClientInterface
	RedditConfig RedditHandlerConfig

	// 思い出
	MemoryService MemoryServiceInterface

	// 計測
	Collector metrics.MetricsCollector
	Gatherer  prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS
//
// /api/* にはさらに RateLimit(General) と CSRF が適用され、
// POST /api/reddit/submit には投稿専用レート制限を追加する。
// OAuthコールバック（/reddit-callback）はブラウザ遷移のためAPIチェーンの外に置く。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	redditHandler := NewRedditHandler(deps.AuthService, deps.RedditClient, deps.Collector, deps.RedditConfig)
	memoryHandler := NewMemoryHandler(deps.MemoryService)

	// --- 運用エンドポイント ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	if deps.Gatherer != nil {
		r.Get("/metrics", metrics.Handler(deps.Gatherer).ServeHTTP)
	}

	// OAuthコールバック（ブラウザリダイレクトで着弾する）
	r.Get("/reddit-callback", redditHandler.Callback)

	// CSRFトークン取得
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// --- APIルート ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// Redditプロキシ
		r.Route("/api/reddit", func(r chi.Router) {
			r.Get("/auth-url", redditHandler.AuthURL)
			r.Get("/user", redditHandler.User)
			r.Get("/posts/{subreddit}", redditHandler.Posts)
			r.Post("/logout", redditHandler.Logout)

			// POST /api/reddit/submit - 投稿（投稿専用レート制限を追加）
			r.With(deps.RateLimiter.SubmitMiddleware()).Post("/submit", redditHandler.Submit)
		})

		// 思い出管理
		r.Route("/api/recuerdos", func(r chi.Router) {
			r.Get("/", memoryHandler.List)
			r.Post("/", memoryHandler.Create)
			r.Post("/imagen", memoryHandler.UploadImage)
			r.Get("/{id}", memoryHandler.Get)
		})
	})

	return r
}
