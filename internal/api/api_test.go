package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func baseAt(srv *httptest.Server) ClientOption {
	return WithBaseURL(srv.URL)
}

func TestPostSendsJSONBody(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(baseAt(srv))
	resp, err := c.POST(context.Background(), "/send", map[string]string{"text": "hello"})
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if gotContentType != "application/json" {
		t.Fatalf("Content-Type = %q", gotContentType)
	}
	if string(gotBody) != `{"text":"hello"}` {
		t.Fatalf("body = %s", gotBody)
	}

	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := resp.ParseJSON(&parsed); err != nil {
		t.Fatal(err)
	}
	if !parsed.OK {
		t.Fatal("expected ok response")
	}
}

func TestErrorStatusReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(baseAt(srv))
	if _, err := c.GET(context.Background(), "/x"); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestDoWithRetryRecovers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(baseAt(srv))
	req := NewRequest(http.MethodGet, "/flaky").WithContext(context.Background())
	cfg := &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond}

	resp, err := c.DoWithRetry(req, cfg)
	if err != nil {
		t.Fatalf("DoWithRetry: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestDoWithRetryExhausts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(baseAt(srv))
	req := NewRequest(http.MethodGet, "/down").WithContext(context.Background())
	cfg := &RetryConfig{MaxAttempts: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond}

	if _, err := c.DoWithRetry(req, cfg); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestDefaultHeadersApplied(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(baseAt(srv), WithHeader("Authorization", "Bearer tok"))
	if _, err := c.GET(context.Background(), "/h"); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}
