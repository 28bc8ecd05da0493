package feed

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxBodySize = 10 << 20

type Fetcher struct {
	httpClient  *http.Client
	rateLimiter *HostRateLimiter
	userAgent   string
	timeout     time.Duration
}

// NewFetcher builds a fetcher. Certificate verification stays off unless
// strictTLS is set, since many feed hosts serve broken chains.
func NewFetcher(timeout time.Duration, userAgent string, strictTLS bool, rateLimiter *HostRateLimiter) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !strictTLS}

	return &Fetcher{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		rateLimiter: rateLimiter,
		userAgent:   userAgent,
		timeout:     timeout,
	}
}

// Run downloads url. Every failure wraps ErrFetch.
func (f *Fetcher) Run(ctx context.Context, url string) ([]byte, error) {
	if err := f.rateLimiter.WaitForHost(ctx, url); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrFetch, err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrFetch, err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, text/html;q=0.9, */*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP error: %s", ErrFetch, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrFetch, err)
	}
	if len(data) > maxBodySize {
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", ErrFetch, maxBodySize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty response body", ErrFetch)
	}

	return data, nil
}
