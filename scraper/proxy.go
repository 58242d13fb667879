package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"deal-scout/utils"
)

const (
	proxyCheckTimeout = 5 * time.Second
	proxyHealthTTL    = 5 * time.Minute
)

// HealthCheckFunc reports whether a proxy can reach the outside world.
type HealthCheckFunc func(ctx context.Context, proxy string) error

type proxyHealth struct {
	healthy   bool
	checkedAt time.Time
}

// ProxyRotator hands out proxies round-robin, skipping ones that fail a
// health check. Results are cached for five minutes. The cache belongs to
// the rotator; create one per process and share it between fetchers.
type ProxyRotator struct {
	proxies []string
	check   HealthCheckFunc
	ttl     time.Duration
	now     func() time.Time
	logger  *utils.Logger

	mu     sync.Mutex
	next   int
	health map[string]proxyHealth
}

// NewProxyRotator creates a rotator over proxies that health-checks against checkURL.
func NewProxyRotator(proxies []string, checkURL string, logger *utils.Logger) *ProxyRotator {
	return NewProxyRotatorWithCheck(proxies, HTTPHealthCheck(checkURL), logger)
}

// NewProxyRotatorWithCheck creates a rotator with a custom health check.
func NewProxyRotatorWithCheck(proxies []string, check HealthCheckFunc, logger *utils.Logger) *ProxyRotator {
	return &ProxyRotator{
		proxies: proxies,
		check:   check,
		ttl:     proxyHealthTTL,
		now:     time.Now,
		logger:  logger,
		health:  make(map[string]proxyHealth),
	}
}

// Next returns the next healthy proxy. Every configured proxy is tried at
// most once per call; when none is reachable ok is false and the caller
// should connect directly.
func (r *ProxyRotator) Next(ctx context.Context) (proxy string, ok bool) {
	if len(r.proxies) == 0 {
		return "", false
	}

	for i := 0; i < len(r.proxies); i++ {
		candidate := r.advance()
		if r.healthy(ctx, candidate) {
			return candidate, true
		}
	}

	r.logger.Warn("[proxy] No reachable proxy among %d, using direct connection", len(r.proxies))
	return "", false
}

func (r *ProxyRotator) advance() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.proxies[r.next%len(r.proxies)]
	r.next++
	return p
}

func (r *ProxyRotator) healthy(ctx context.Context, proxy string) bool {
	r.mu.Lock()
	entry, cached := r.health[proxy]
	r.mu.Unlock()

	if cached && r.now().Sub(entry.checkedAt) < r.ttl {
		return entry.healthy
	}

	// Concurrent callers may check the same proxy twice; the cache only
	// needs to be roughly fresh.
	checkCtx, cancel := context.WithTimeout(ctx, proxyCheckTimeout)
	err := r.check(checkCtx, proxy)
	cancel()

	if err != nil {
		r.logger.Debug("[proxy] %s failed health check: %v", proxy, err)
	}

	r.mu.Lock()
	r.health[proxy] = proxyHealth{healthy: err == nil, checkedAt: r.now()}
	r.mu.Unlock()
	return err == nil
}

// HTTPHealthCheck returns a check that GETs checkURL through the proxy.
func HTTPHealthCheck(checkURL string) HealthCheckFunc {
	return func(ctx context.Context, proxy string) error {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return fmt.Errorf("proxy: parse %q: %w", proxy, err)
		}
		client := &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
			Timeout:   proxyCheckTimeout,
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkURL, nil)
		if err != nil {
			return fmt.Errorf("proxy: build check request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("proxy: check via %s: %w", proxy, err)
		}
		resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("proxy: check via %s: %w: %d", proxy, ErrBadStatus, resp.StatusCode)
		}
		return nil
	}
}
