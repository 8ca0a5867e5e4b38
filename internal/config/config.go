package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Reddit OAuth
	RedditClientID     string
	RedditClientSecret string
	RedditRedirectURL  string
	RedditUserAgent    string

	// Reddit API
	RedditRequestTimeout time.Duration
	PostFetchLimit       int

	// Session
	SessionMaxAge int

	// Storage（画像バケット）
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool
	// StoragePublicBaseURL は公開URLの組み立てに使う外部向けベースURL。
	StoragePublicBaseURL string

	// Memory
	DefaultUserID    string
	DefaultSubreddit string

	// Rate Limit
	RateLimitGeneral int
	RateLimitSubmit  int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.RedditClientID = os.Getenv("REDDIT_CLIENT_ID")
	if cfg.RedditClientID == "" {
		missing = append(missing, "REDDIT_CLIENT_ID")
	}

	cfg.RedditClientSecret = os.Getenv("REDDIT_CLIENT_SECRET")
	if cfg.RedditClientSecret == "" {
		missing = append(missing, "REDDIT_CLIENT_SECRET")
	}

	cfg.RedditRedirectURL = os.Getenv("REDDIT_REDIRECT_URL")
	if cfg.RedditRedirectURL == "" {
		missing = append(missing, "REDDIT_REDIRECT_URL")
	}

	cfg.StorageEndpoint = os.Getenv("STORAGE_ENDPOINT")
	if cfg.StorageEndpoint == "" {
		missing = append(missing, "STORAGE_ENDPOINT")
	}

	cfg.StorageAccessKey = os.Getenv("STORAGE_ACCESS_KEY")
	if cfg.StorageAccessKey == "" {
		missing = append(missing, "STORAGE_ACCESS_KEY")
	}

	cfg.StorageSecretKey = os.Getenv("STORAGE_SECRET_KEY")
	if cfg.StorageSecretKey == "" {
		missing = append(missing, "STORAGE_SECRET_KEY")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.RedditUserAgent = getEnvString("REDDIT_USER_AGENT", "GlockStarFanPage/1.0")
	cfg.RedditRequestTimeout = getEnvDuration("REDDIT_REQUEST_TIMEOUT", 10*time.Second)
	cfg.PostFetchLimit = getEnvInt("POST_FETCH_LIMIT", 10)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.StorageBucket = getEnvString("STORAGE_BUCKET", "recuerdos-imagenes")
	cfg.StorageUseSSL = getEnvBool("STORAGE_USE_SSL", true)
	cfg.StoragePublicBaseURL = getEnvString("STORAGE_PUBLIC_BASE_URL", "")
	cfg.DefaultUserID = getEnvString("DEFAULT_USER_ID", "anonymous")
	cfg.DefaultSubreddit = getEnvString("DEFAULT_SUBREDDIT", "Glocks")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSubmit = getEnvInt("RATE_LIMIT_SUBMIT", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.StoragePublicBaseURL == "" {
		scheme := "http"
		if cfg.StorageUseSSL {
			scheme = "https"
		}
		cfg.StoragePublicBaseURL = fmt.Sprintf("%s://%s", scheme, cfg.StorageEndpoint)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
