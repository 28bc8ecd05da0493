package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetcher_Success(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "RSSync/1.0 RSS Reader", false, nil)
	data, err := fetcher.Run(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if string(data) != "<rss></rss>" {
		t.Errorf("Expected body '<rss></rss>', got: %s", string(data))
	}
	if userAgent != "RSSync/1.0 RSS Reader" {
		t.Errorf("Expected user agent to be sent, got: %s", userAgent)
	}
}

func TestFetcher_AcceptsSelfSignedCertificate(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	if _, err := NewFetcher(5*time.Second, "test", false, nil).Run(context.Background(), server.URL); err != nil {
		t.Errorf("Expected relaxed TLS to accept self-signed certificate, got: %v", err)
	}

	if _, err := NewFetcher(5*time.Second, "test", true, nil).Run(context.Background(), server.URL); err == nil {
		t.Error("Expected strict TLS to reject self-signed certificate")
	}
}

func TestFetcher_Failures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/empty":
			w.WriteHeader(http.StatusOK)
		case "/slow":
			time.Sleep(500 * time.Millisecond)
			w.Write([]byte("late"))
		case "/huge":
			w.Write([]byte(strings.Repeat("a", maxBodySize+1)))
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(200*time.Millisecond, "test", false, nil)

	for _, path := range []string{"/missing", "/empty", "/slow", "/huge"} {
		_, err := fetcher.Run(context.Background(), server.URL+path)
		if err == nil {
			t.Errorf("Expected error for %s", path)
			continue
		}
		if !errors.Is(err, ErrFetch) {
			t.Errorf("Expected ErrFetch for %s, got: %v", path, err)
		}
	}

	if _, err := fetcher.Run(context.Background(), "http://127.0.0.1:1/unreachable"); !errors.Is(err, ErrFetch) {
		t.Errorf("Expected ErrFetch for unreachable host, got: %v", err)
	}
}

func TestHostRateLimiter(t *testing.T) {
	limiter := NewHostRateLimiter(100 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.WaitForHost(ctx, "https://example.com/feed"); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("Expected requests to the same host to be spaced out, took %v", elapsed)
	}

	// Other hosts are not delayed
	start = time.Now()
	if err := limiter.WaitForHost(ctx, "https://other.com/feed"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Expected first request to a new host to pass immediately, took %v", elapsed)
	}

	if err := limiter.WaitForHost(ctx, "not a url"); err == nil {
		t.Error("Expected error for URL without host")
	}

	var disabled *HostRateLimiter
	if err := disabled.WaitForHost(ctx, "https://example.com"); err != nil {
		t.Errorf("Expected nil limiter to be a no-op, got: %v", err)
	}
}
