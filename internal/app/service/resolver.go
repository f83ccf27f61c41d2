package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/linkcut/linkcut/internal/cache"
	"github.com/linkcut/linkcut/internal/worker"
)

// Resolver turns short codes into destinations for the redirect path.
// It reads through the short: cache and hands click recording to the
// background worker so analytics never slow down or fail a redirect.
type Resolver struct {
	store  Store
	cache  cache.Cache
	logger *zap.Logger
	clicks chan<- worker.ClickTask
}

func NewResolver(store Store, c cache.Cache, logger *zap.Logger, clicks chan<- worker.ClickTask) *Resolver {
	return &Resolver{
		store:  store,
		cache:  c,
		logger: logger,
		clicks: clicks,
	}
}

// Resolve returns the destination for a code, or repository.ErrNotFound /
// ErrGone.
//
// A cache hit is served without re-checking the active flag or expiry: a
// record soft-deleted or expired after the entry was written keeps resolving
// until the 1-hour TTL runs out. That staleness window is a deliberate
// tradeoff of this cache design, not an oversight.
func (r *Resolver) Resolve(ctx context.Context, code, userAgent, referer string) (string, error) {
	key := cache.ShortKey(code)

	if dest, ok, err := r.cache.Get(ctx, key); err != nil {
		// Cache trouble degrades to a store lookup, never to a failure.
		r.logger.Warn("cache lookup failed, falling back to store", zap.String("code", code), zap.Error(err))
	} else if ok {
		r.recordClick(code, userAgent, referer)
		return dest, nil
	}

	rec, err := r.store.FindActiveByCode(ctx, code)
	if err != nil {
		return "", err
	}

	if rec.ExpiresAt != nil && rec.ExpiresAt.Before(time.Now()) {
		// Expired records must not repopulate the cache.
		return "", ErrGone
	}

	if err := r.cache.Set(ctx, key, rec.OriginalURL, cache.ShortTTL); err != nil {
		r.logger.Warn("cannot cache short url", zap.String("code", code), zap.Error(err))
	}

	r.recordClick(code, userAgent, referer)

	return rec.OriginalURL, nil
}

// recordClick enqueues the click for the background worker. A full queue
// drops the event with a log line; redirect success never depends on
// analytics durability.
func (r *Resolver) recordClick(code, userAgent, referer string) {
	task := worker.ClickTask{
		Code:      code,
		UserAgent: userAgent,
		Referer:   referer,
		At:        time.Now(),
	}

	select {
	case r.clicks <- task:
	default:
		r.logger.Warn("click queue full, dropping event", zap.String("code", code))
	}
}
