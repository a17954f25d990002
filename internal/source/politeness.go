package source

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RobotsChecker gates outbound review scraping on robots.txt. Robots data
// is cached per host for the lifetime of the checker.
type RobotsChecker struct {
	mu         sync.RWMutex
	cache      map[string]*robotstxt.RobotsData
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a robots.txt checker with the given identity.
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &RobotsChecker{
		cache:      make(map[string]*robotstxt.RobotsData),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// CanFetch reports whether the URL may be fetched, plus any crawl delay
// the host requests. An unreachable robots.txt allows by default.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0
	}

	data, err := r.robotsData(ctx, parsed)
	if err != nil {
		zap.L().Debug("politeness: robots.txt unavailable, allowing",
			zap.String("host", parsed.Host), zap.Error(err))
		return true, 0
	}

	allowed := data.TestAgent(parsed.Path, r.userAgent)
	var delay time.Duration
	if group := data.FindGroup(r.userAgent); group != nil {
		delay = group.CrawlDelay
	}
	return allowed, delay
}

func (r *RobotsChecker) robotsData(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.cache[target.Host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "politeness: build robots request")
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "politeness: fetch robots.txt")
	}
	defer resp.Body.Close()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, eris.Wrap(err, "politeness: parse robots.txt")
	}

	r.mu.Lock()
	r.cache[target.Host] = data
	r.mu.Unlock()
	return data, nil
}

// HostLimiter hands out one rate limiter per host so concurrent
// enrichment runs share the same budget for a review site.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

// NewHostLimiter creates a limiter pool with the given per-host rate.
func NewHostLimiter(perHost rate.Limit, burst int) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  perHost,
		burst:    burst,
	}
}

// Wait blocks until the host's limiter allows another request.
func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return eris.Wrap(err, "politeness: parse url")
	}

	h.mu.Lock()
	limiter, ok := h.limiters[parsed.Hostname()]
	if !ok {
		limiter = rate.NewLimiter(h.perHost, h.burst)
		h.limiters[parsed.Hostname()] = limiter
	}
	h.mu.Unlock()

	return limiter.Wait(ctx)
}
