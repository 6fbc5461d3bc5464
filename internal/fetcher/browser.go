package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"consumidor-reports-parser/internal/crawl"
)

// Warmup открывает страницу-источник один раз перед листингом, чтобы сайт
// выдал сессионные cookie. С rod.enabled страница открывается в headless
// Chrome (сайт выставляет часть cookie из JS), cookie переносятся в jar клиента.
func (f *Fetcher) Warmup(ctx context.Context, req crawl.Request) error {
	if !f.cfg.Rod.Enabled {
		if _, err := f.Fetch(ctx, req); err != nil {
			return fmt.Errorf("warm-up request failed: %w", err)
		}
		return nil
	}

	cookies, err := f.browserCookies(ctx, req.URL)
	if err != nil {
		return fmt.Errorf("browser warm-up failed: %w", err)
	}

	target, err := url.Parse(req.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	f.client.Jar.SetCookies(target, cookies)

	f.logger.Info("browser warm-up done", "url", req.URL, "cookies", len(cookies))
	return nil
}

func (f *Fetcher) browserCookies(ctx context.Context, pageURL string) ([]*http.Cookie, error) {
	l := launcher.New().Headless(true)
	if f.cfg.Rod.ChromePath != "" {
		l = l.Bin(f.cfg.Rod.ChromePath)
	}
	defer l.Cleanup()

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Timeout(f.cfg.GetRodPageTimeout()).Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	if err := page.Timeout(f.cfg.GetRodWaitLoadTimeout()).WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	netCookies, err := page.Cookies([]string{pageURL})
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(netCookies))
	for _, c := range netCookies {
		cookies = append(cookies, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return cookies, nil
}
