package fetcher

import (
	"context"
	"sync"
	"time"
)

// RateLimiter ограничивает запросы к хосту: не больше maxConcurrent одновременно
// и не чаще одного запроса в minute/rpm
type RateLimiter struct {
	maxConcurrent int
	interval      time.Duration
	hosts         map[string]*hostLimiter
	mu            sync.Mutex
	now           func() time.Time
}

type hostLimiter struct {
	sem  chan struct{}
	next time.Time // ближайший разрешённый старт
	mu   sync.Mutex
}

func NewRateLimiter(maxConcurrent, rpm int) *RateLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	var interval time.Duration
	if rpm > 0 {
		interval = time.Minute / time.Duration(rpm)
	}
	return &RateLimiter{
		maxConcurrent: maxConcurrent,
		interval:      interval,
		hosts:         make(map[string]*hostLimiter),
		now:           time.Now,
	}
}

// Wait занимает слот хоста. release нужно вызвать после окончания запроса.
func (rl *RateLimiter) Wait(ctx context.Context, host string) (release func(), err error) {
	limiter := rl.host(host)

	select {
	case limiter.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	release = func() { <-limiter.sem }

	// Резервируем время старта, ждём уже без блокировки
	limiter.mu.Lock()
	now := rl.now()
	start := limiter.next
	if start.Before(now) {
		start = now
	}
	limiter.next = start.Add(rl.interval)
	limiter.mu.Unlock()

	if wait := start.Sub(now); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}

	return release, nil
}

func (rl *RateLimiter) host(host string) *hostLimiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.hosts[host]
	if !ok {
		limiter = &hostLimiter{sem: make(chan struct{}, rl.maxConcurrent)}
		rl.hosts[host] = limiter
	}
	return limiter
}
