package reddit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestAuthCodeURL_ContainsRequiredParams(t *testing.T) {
	provider := NewOAuthProvider(OAuthConfig{
		ClientID:    "client-123",
		RedirectURL: "http://localhost:8080/reddit-callback",
		UserAgent:   "TestAgent/1.0",
	})

	authURL := provider.AuthCodeURL("state-abc")

	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("AuthCodeURL returned invalid URL: %v", err)
	}

	if !strings.HasPrefix(authURL, "https://www.reddit.com/api/v1/authorize?") {
		t.Errorf("authURL = %q, want prefix %q", authURL, "https://www.reddit.com/api/v1/authorize?")
	}

	q := parsed.Query()
	wantParams := map[string]string{
		"client_id":     "client-123",
		"response_type": "code",
		"state":         "state-abc",
		"redirect_uri":  "http://localhost:8080/reddit-callback",
		"duration":      "permanent",
		"scope":         "identity edit submit read",
	}
	for key, want := range wantParams {
		if got := q.Get(key); got != want {
			t.Errorf("param %s = %q, want %q", key, got, want)
		}
	}
}

func TestExchangeCode_Success(t *testing.T) {
	var gotGrantType, gotCode, gotUser, gotPass, gotUserAgent string
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		gotUserAgent = r.Header.Get("User-Agent")
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		gotGrantType = r.PostFormValue("grant_type")
		gotCode = r.PostFormValue("code")

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"token_type":    "bearer",
			"expires_in":    3600,
			"refresh_token": "refresh-1",
		})
	}))
	defer tokenServer.Close()

	provider := NewOAuthProvider(OAuthConfig{
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		RedirectURL:  "http://localhost:8080/reddit-callback",
		UserAgent:    "TestAgent/1.0",
		TokenURL:     tokenServer.URL,
	})

	before := time.Now()
	token, err := provider.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode returned error: %v", err)
	}

	if token.AccessToken != "access-1" {
		t.Errorf("AccessToken = %q, want %q", token.AccessToken, "access-1")
	}
	if token.RefreshToken != "refresh-1" {
		t.Errorf("RefreshToken = %q, want %q", token.RefreshToken, "refresh-1")
	}
	// expires_in=3600が現在時刻起点の絶対期限に変換される
	wantExpiry := before.Add(3600 * time.Second)
	if token.Expiry.Before(wantExpiry.Add(-time.Minute)) || token.Expiry.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("Expiry = %v, want around %v", token.Expiry, wantExpiry)
	}

	if gotGrantType != "authorization_code" {
		t.Errorf("grant_type = %q, want %q", gotGrantType, "authorization_code")
	}
	if gotCode != "auth-code" {
		t.Errorf("code = %q, want %q", gotCode, "auth-code")
	}
	if gotUser != "client-123" || gotPass != "secret-456" {
		t.Errorf("basic auth = %q:%q, want client-123:secret-456", gotUser, gotPass)
	}
	if gotUserAgent != "TestAgent/1.0" {
		t.Errorf("User-Agent = %q, want %q", gotUserAgent, "TestAgent/1.0")
	}
}

func TestExchangeCode_TokenEndpointError(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer tokenServer.Close()

	provider := NewOAuthProvider(OAuthConfig{TokenURL: tokenServer.URL})

	_, err := provider.ExchangeCode(context.Background(), "bad-code")
	if err == nil {
		t.Fatal("expected error for 401 token response, got nil")
	}
}

func TestExchangeCode_ErrorInBody(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Redditは200でerrorフィールドを返すことがある
		json.NewEncoder(w).Encode(map[string]any{"error": "invalid_grant"})
	}))
	defer tokenServer.Close()

	provider := NewOAuthProvider(OAuthConfig{TokenURL: tokenServer.URL})

	_, err := provider.ExchangeCode(context.Background(), "expired-code")
	if err == nil {
		t.Fatal("expected error for error-in-body response, got nil")
	}
	if !strings.Contains(err.Error(), "invalid_grant") {
		t.Errorf("error = %v, want to contain invalid_grant", err)
	}
}

func TestRefresh_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.PostFormValue("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", got)
		}
		if got := r.PostFormValue("refresh_token"); got != "refresh-old" {
			t.Errorf("refresh_token = %q, want refresh-old", got)
		}
		// refresh_tokenを含まないレスポンス
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-new",
			"expires_in":   3600,
		})
	}))
	defer tokenServer.Close()

	provider := NewOAuthProvider(OAuthConfig{TokenURL: tokenServer.URL})

	token, err := provider.Refresh(context.Background(), "refresh-old")
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if token.AccessToken != "access-new" {
		t.Errorf("AccessToken = %q, want %q", token.AccessToken, "access-new")
	}
	// ローテーションされなかった場合は既存のリフレッシュトークンを維持する
	if token.RefreshToken != "refresh-old" {
		t.Errorf("RefreshToken = %q, want %q", token.RefreshToken, "refresh-old")
	}
}

func TestIdentity_ReturnsUsername(t *testing.T) {
	identityServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer access-1" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer access-1")
		}
		json.NewEncoder(w).Encode(map[string]any{"name": "glock_fan_42"})
	}))
	defer identityServer.Close()

	provider := NewOAuthProvider(OAuthConfig{IdentityURL: identityServer.URL})

	name, err := provider.Identity(context.Background(), "access-1")
	if err != nil {
		t.Fatalf("Identity returned error: %v", err)
	}
	if name != "glock_fan_42" {
		t.Errorf("name = %q, want %q", name, "glock_fan_42")
	}
}

func TestIdentity_EmptyName_ReturnsError(t *testing.T) {
	identityServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer identityServer.Close()

	provider := NewOAuthProvider(OAuthConfig{IdentityURL: identityServer.URL})

	_, err := provider.Identity(context.Background(), "access-1")
	if err == nil {
		t.Fatal("expected error for empty name, got nil")
	}
}
