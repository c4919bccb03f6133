package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter counts failures per key in process memory with the same fixed
// window as RedisLimiter: the window opens at the first failure and the key
// stays limited until Cooldown has passed since then. Only Fail creates
// entries; expired ones are swept at most once per Cooldown.
type LocalLimiter struct {
	config  Config
	windows map[string]*window
	mu      sync.RWMutex
	sweeps  *rate.Sometimes
	now     func() time.Time
}

type window struct {
	count   int
	expires time.Time
}

func NewLocalLimiter(cfg Config) *LocalLimiter {
	return &LocalLimiter{
		config:  cfg,
		windows: make(map[string]*window),
		sweeps:  &rate.Sometimes{Interval: cfg.Cooldown},
		now:     time.Now,
	}
}

func (l *LocalLimiter) Check(_ context.Context, key string) error {
	now := l.now()

	l.mu.RLock()
	w, ok := l.windows[key]
	limited := ok && now.Before(w.expires) && w.count >= l.config.MaxAttempts
	l.mu.RUnlock()

	if limited {
		return ErrRateLimited
	}
	return nil
}

func (l *LocalLimiter) Fail(_ context.Context, key string) error {
	now := l.now()
	l.sweeps.Do(func() { l.sweep(now) })

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.expires) {
		w = &window{expires: now.Add(l.config.Cooldown)}
		l.windows[key] = w
	}
	w.count++
	if w.count > l.config.MaxAttempts {
		return ErrRateLimited
	}
	return nil
}

func (l *LocalLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.windows, key)
	l.mu.Unlock()
	return nil
}

func (l *LocalLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, w := range l.windows {
		if !now.Before(w.expires) {
			delete(l.windows, k)
		}
	}
}

func (l *LocalLimiter) size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.windows)
}
