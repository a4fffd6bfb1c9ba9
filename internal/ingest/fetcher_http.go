package ingest

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// RateLimitedFetcher provides per-domain rate limiting, bounded retries
// with exponential backoff, and configurable timeouts.
type RateLimitedFetcher struct {
	clients       map[string]*http.Client
	limiters      map[string]*time.Ticker
	configs       map[string]FetchConfig
	defaultConfig FetchConfig
	authHeaders   map[string]string // per-domain Authorization value
	mu            sync.RWMutex
}

// NewRateLimitedFetcher creates a fetcher with the given defaults.
func NewRateLimitedFetcher(defaultConfig FetchConfig) *RateLimitedFetcher {
	if defaultConfig.TimeoutSeconds == 0 {
		defaultConfig.TimeoutSeconds = 30
	}
	if defaultConfig.MaxRetries == 0 {
		defaultConfig.MaxRetries = 3
	}
	if defaultConfig.RateLimitRPS == 0 {
		defaultConfig.RateLimitRPS = 1.0
	}

	return &RateLimitedFetcher{
		clients:       make(map[string]*http.Client),
		limiters:      make(map[string]*time.Ticker),
		configs:       make(map[string]FetchConfig),
		authHeaders:   make(map[string]string),
		defaultConfig: defaultConfig,
	}
}

// SetDomainConfig installs a platform-specific fetch config and optional
// Authorization header for one domain.
func (f *RateLimitedFetcher) SetDomainConfig(domain string, config FetchConfig, authHeader string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if config.TimeoutSeconds == 0 {
		config.TimeoutSeconds = f.defaultConfig.TimeoutSeconds
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = f.defaultConfig.MaxRetries
	}
	if config.RateLimitRPS == 0 {
		config.RateLimitRPS = f.defaultConfig.RateLimitRPS
	}
	f.configs[domain] = config
	if authHeader != "" {
		f.authHeaders[domain] = authHeader
	}
}

func (f *RateLimitedFetcher) getClient(domain string, config FetchConfig) *http.Client {
	f.mu.RLock()
	client, exists := f.clients[domain]
	f.mu.RUnlock()
	if exists {
		return client
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if client, exists := f.clients[domain]; exists {
		return client
	}

	client = &http.Client{
		Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
	}
	f.clients[domain] = client

	interval := time.Duration(float64(time.Second) / config.RateLimitRPS)
	if interval <= 0 {
		interval = time.Second
	}
	f.limiters[domain] = time.NewTicker(interval)

	return client
}

// shouldRetry determines if an error or status code is transient.
func shouldRetry(err error, statusCode int) bool {
	if err != nil {
		if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
			return true
		}
		return false
	}
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// backoffDelay returns the wait before retry attempt n (1-based):
// 0.5s, 1s, 2s, ... plus up to 100ms of jitter.
func backoffDelay(attempt int) time.Duration {
	backoff := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
	jitter := time.Duration(rand.Intn(100)) * time.Millisecond
	return backoff + jitter
}

// Fetch implements the Fetcher interface with rate limiting and retries.
func (f *RateLimitedFetcher) Fetch(ctx context.Context, rawURL string) (*FetchedDocument, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	domain := u.Host

	config := f.defaultConfig
	f.mu.RLock()
	if domainConfig, exists := f.configs[domain]; exists {
		config = domainConfig
	}
	auth := f.authHeaders[domain]
	f.mu.RUnlock()

	client := f.getClient(domain, config)

	f.mu.RLock()
	limiter := f.limiters[domain]
	f.mu.RUnlock()
	if limiter != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-limiter.C:
		}
	}

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffDelay(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", defaultUserAgent)
		req.Header.Set("Accept", "application/json, text/plain, */*")
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			if shouldRetry(err, 0) {
				continue
			}
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return &FetchedDocument{
				URL:         rawURL,
				StatusCode:  resp.StatusCode,
				ContentType: resp.Header.Get("Content-Type"),
				Body:        resp.Body,
				FetchedAt:   time.Now(),
				Headers:     resp.Header,
			}, nil
		}

		resp.Body.Close()
		if shouldRetry(nil, resp.StatusCode) {
			lastErr = fmt.Errorf("status code %d", resp.StatusCode)
			continue
		}
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
