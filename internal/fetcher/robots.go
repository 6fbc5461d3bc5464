package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"consumidor-reports-parser/internal/observability"
)

type RobotsCache struct {
	cache  map[string]*robotsEntry
	ttl    time.Duration
	agent  string
	mu     sync.RWMutex
	logger *observability.Logger
}

type robotsEntry struct {
	data      *robotstxt.RobotsData
	expiresAt time.Time
}

func NewRobotsCache(ttl time.Duration, agent string, logger *observability.Logger) *RobotsCache {
	return &RobotsCache{
		cache:  make(map[string]*robotsEntry),
		ttl:    ttl,
		agent:  agent,
		logger: logger,
	}
}

// IsAllowed проверяет путь по robots.txt хоста.
// Если robots.txt недоступен, считаем, что разрешено.
func (rc *RobotsCache) IsAllowed(ctx context.Context, target *url.URL, client *http.Client) bool {
	host := target.Host

	rc.mu.RLock()
	cached, exists := rc.cache[host]
	rc.mu.RUnlock()

	if !exists || time.Now().After(cached.expiresAt) {
		data, ok := rc.fetch(ctx, target, client)
		if !ok {
			return true
		}
		cached = &robotsEntry{data: data, expiresAt: time.Now().Add(rc.ttl)}

		rc.mu.Lock()
		rc.cache[host] = cached
		rc.mu.Unlock()
	}

	return cached.data.TestAgent(target.EscapedPath(), rc.agent)
}

func (rc *RobotsCache) fetch(ctx context.Context, target *url.URL, client *http.Client) (*robotstxt.RobotsData, bool) {
	robotsURL := url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/robots.txt"}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, false
	}

	resp, err := client.Do(req)
	if err != nil {
		rc.logger.Debug("robots.txt unavailable", "host", target.Host, "error", err)
		return nil, false
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil, false
	}

	// 4xx: всё разрешено, 5xx: всё запрещено (правила robotstxt)
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		rc.logger.Warn("failed to parse robots.txt", "host", target.Host, "error", err)
		return nil, false
	}
	return data, true
}
