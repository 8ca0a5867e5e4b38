package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glockstar/fanpage/internal/model"
)

// newAPITestServer はプロキシAPIの応答を模したテストサーバーを返す。
func newAPITestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrf_token", Value: "token-1", Path: "/"})
		json.NewEncoder(w).Encode(map[string]string{"token": "token-1"})
	})
	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestAPIClient_AuthStatus(t *testing.T) {
	server := newAPITestServer(t, map[string]http.HandlerFunc{
		"/api/reddit/user": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(model.AuthState{Authenticated: true, Username: "glock_fan_42"})
		},
	})

	client, err := NewAPIClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewAPIClient returned error: %v", err)
	}

	state, err := client.AuthStatus(context.Background())
	if err != nil {
		t.Fatalf("AuthStatus returned error: %v", err)
	}
	if !state.Authenticated || state.Username != "glock_fan_42" {
		t.Errorf("state = %+v", state)
	}
}

func TestAPIClient_FetchPosts_UnwrapsListingEnvelope(t *testing.T) {
	server := newAPITestServer(t, map[string]http.HandlerFunc{
		"/api/reddit/posts/Glocks": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data": map[string]any{
					"data": map[string]any{
						"children": []map[string]any{
							{"data": model.RedditPost{Title: "first"}},
							{"data": model.RedditPost{Title: "second"}},
						},
					},
				},
			})
		},
	})

	client, err := NewAPIClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewAPIClient returned error: %v", err)
	}

	posts, err := client.FetchPosts(context.Background(), "Glocks")
	if err != nil {
		t.Fatalf("FetchPosts returned error: %v", err)
	}
	if len(posts) != 2 || posts[0].Title != "first" {
		t.Errorf("posts = %+v", posts)
	}
}

func TestAPIClient_SubmitPost_SendsCSRFToken(t *testing.T) {
	var gotHeader, gotContentType string
	server := newAPITestServer(t, map[string]http.HandlerFunc{
		"/api/reddit/submit": func(w http.ResponseWriter, r *http.Request) {
			gotHeader = r.Header.Get("X-CSRF-Token")
			gotContentType = r.Header.Get("Content-Type")
			json.NewEncoder(w).Encode(map[string]any{"success": true})
		},
	})

	client, err := NewAPIClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewAPIClient returned error: %v", err)
	}

	err = client.SubmitPost(context.Background(), &model.PostSubmission{
		Subreddit: "Glocks",
		Title:     "hello",
		Kind:      model.PostKindText,
	})
	if err != nil {
		t.Fatalf("SubmitPost returned error: %v", err)
	}
	if gotHeader != "token-1" {
		t.Errorf("X-CSRF-Token = %q, want token-1", gotHeader)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
}

func TestAPIClient_SubmitPost_FailureEnvelope(t *testing.T) {
	server := newAPITestServer(t, map[string]http.HandlerFunc{
		"/api/reddit/submit": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "RATELIMIT: you are doing that too much",
			})
		},
	})

	client, err := NewAPIClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewAPIClient returned error: %v", err)
	}

	err = client.SubmitPost(context.Background(), &model.PostSubmission{
		Subreddit: "Glocks",
		Title:     "hello",
		Kind:      model.PostKindText,
	})
	if err == nil {
		t.Fatal("expected error for failure envelope, got nil")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "RATELIMIT: you are doing that too much" {
		t.Errorf("message = %q", apiErr.Message)
	}
}
