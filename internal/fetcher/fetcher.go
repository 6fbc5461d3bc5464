package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"

	"consumidor-reports-parser/internal/config"
	"consumidor-reports-parser/internal/crawl"
	"consumidor-reports-parser/internal/observability"
)

type Fetcher struct {
	client      *http.Client
	cfg         *config.Config
	logger      *observability.Logger
	robotsCache *RobotsCache
	rateLimiter *RateLimiter
	sleep       func(ctx context.Context, d time.Duration) error
}

type FetchResponse struct {
	StatusCode int
	Body       string // уже в UTF-8
	URL        string
	Headers    http.Header
}

func NewFetcher(cfg *config.Config, logger *observability.Logger) (*Fetcher, error) {
	// Cookie jar общий для прогрева и листинга: сессия сайта живёт в cookie
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: cfg.GetConnectTimeout(),
		}).DialContext,
		TLSHandshakeTimeout: cfg.GetConnectTimeout(),
		MaxIdleConns:        cfg.HTTP.MaxIdleConnections,
		MaxIdleConnsPerHost: cfg.HTTP.MaxIdleConnectionsPerHost,
		IdleConnTimeout:     cfg.GetIdleConnectionTimeout(),
	}
	if cfg.HTTP.CloudflareBypass {
		transport = cloudflarebp.AddCloudFlareByPass(transport)
	}

	client := &http.Client{
		Timeout:   cfg.GetTotalTimeout(),
		Transport: transport,
		Jar:       jar,
	}

	return &Fetcher{
		client:      client,
		cfg:         cfg,
		logger:      logger,
		robotsCache: NewRobotsCache(cfg.GetRobotsCacheTTL(), cfg.HTTP.UserAgent, logger),
		rateLimiter: NewRateLimiter(cfg.RateLimit.MaxConcurrentPerHost, cfg.RateLimit.RPM),
		sleep:       sleepCtx,
	}, nil
}

// Fetch выполняет запрос с ретраями на сетевые ошибки, 5xx и 429.
// Любой не-2xx ответ после всех попыток возвращается как *TransportError.
func (f *Fetcher) Fetch(ctx context.Context, req crawl.Request) (*FetchResponse, error) {
	parsedURL, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	if !f.cfg.HTTP.IgnoreRobots && !f.robotsCache.IsAllowed(ctx, parsedURL, f.client) {
		return nil, &RobotsDisallowedError{URL: req.URL}
	}

	var (
		lastErr    error
		lastStatus int
		attempts   int
	)
	for attempt := 0; attempt <= f.cfg.HTTP.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := f.sleep(ctx, f.calculateBackoff(attempt)); err != nil {
				return nil, err
			}
		}
		attempts++

		resp, err := f.fetchOnce(ctx, parsedURL.Host, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr, lastStatus = err, 0
			f.logger.Warn("fetch attempt failed", "url", req.URL, "attempt", attempts, "error", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		lastStatus = resp.StatusCode
		lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
		if !retryableStatus(resp.StatusCode) {
			break
		}
		f.logger.Warn("retryable status", "url", req.URL, "attempt", attempts, "status", resp.StatusCode)
	}

	return nil, &TransportError{URL: req.URL, StatusCode: lastStatus, Attempts: attempts, Err: lastErr}
}

func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

func (f *Fetcher) fetchOnce(ctx context.Context, host string, r crawl.Request) (*FetchResponse, error) {
	release, err := f.rateLimiter.Wait(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}
	defer release()

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if method == http.MethodPost && r.Form != nil {
		body = strings.NewReader(r.Form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.cfg.HTTP.UserAgent)
	req.Header.Set("Accept-Language", f.cfg.HTTP.AcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	}
	if f.cfg.Site.OriginURL != "" {
		req.Header.Set("Referer", f.cfg.Site.OriginURL)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Debug("failed to close response body", "error", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	out := &FetchResponse{
		StatusCode: resp.StatusCode,
		URL:        resp.Request.URL.String(),
		Headers:    resp.Header,
	}

	// Тело не-2xx ответа не нужно: решение о ретрае принимается по статусу
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, nil
	}

	if out.Body, err = decodeBody(data, resp.Header); err != nil {
		return nil, err
	}

	f.logger.Debug("response received",
		"url", r.URL,
		"method", method,
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"bytes", len(data),
	)

	return out, nil
}

// decodeBody распаковывает gzip и приводит тело к UTF-8 по Content-Type / meta.
// Пустое тело (например, листинг за последней страницей) не ошибка.
func decodeBody(data []byte, header http.Header) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	var reader io.Reader = bytes.NewReader(data)
	if header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(reader)
		if err != nil {
			return "", fmt.Errorf("failed to decode gzip body: %w", err)
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	}

	utf8Reader, err := charset.NewReader(reader, header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", fmt.Errorf("failed to decode body: %w", err)
	}

	decoded, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}
	return string(decoded), nil
}

// calculateBackoff: min * 2^(attempt-1), не больше max, ±jitter%
func (f *Fetcher) calculateBackoff(attempt int) time.Duration {
	minMS := f.cfg.Backoff.MinMS
	maxMS := f.cfg.Backoff.MaxMS
	jitterPct := f.cfg.Backoff.JitterPct

	exponential := minMS * (1 << uint(attempt-1))
	if exponential > maxMS || exponential <= 0 {
		exponential = maxMS
	}

	jitterRange := float64(exponential) * float64(jitterPct) / 100
	jitter := (rand.Float64() - 0.5) * 2 * jitterRange
	finalMS := float64(exponential) + jitter

	if finalMS < float64(minMS) {
		finalMS = float64(minMS)
	}

	return time.Duration(math.Max(finalMS, 0)) * time.Millisecond
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
