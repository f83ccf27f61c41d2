// Package worker records click events off the redirect path.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/linkcut/linkcut/internal/cache"
)

// Repo is the slice of the store the worker needs.
type Repo interface {
	IncrementClickAndLog(ctx context.Context, code, userAgent, referer string, at time.Time) error
}

// ClickTask is one redirect to account for.
type ClickTask struct {
	Code      string
	UserAgent string
	Referer   string
	At        time.Time
}

// ClickWorker drains a channel of click tasks, bumping the click counter and
// appending the click event, then invalidating the caches the counter feeds.
// Every failure is logged and swallowed; the redirect that produced the task
// has already been answered.
type ClickWorker struct {
	in     chan ClickTask
	logger *zap.Logger
	repo   Repo
	cache  cache.Cache
}

const clickQueueSize = 256

func NewClickWorker(logger *zap.Logger, repo Repo, c cache.Cache) *ClickWorker {
	return &ClickWorker{
		in:     make(chan ClickTask, clickQueueSize),
		logger: logger,
		repo:   repo,
		cache:  c,
	}
}

// GetInChannel hands out the send side of the queue.
func (w *ClickWorker) GetInChannel() chan<- ClickTask {
	return w.in
}

// Run processes tasks until the channel is closed.
func (w *ClickWorker) Run() {
	for task := range w.in {
		w.process(task)
	}
}

func (w *ClickWorker) process(task ClickTask) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := w.repo.IncrementClickAndLog(ctx, task.Code, task.UserAgent, task.Referer, task.At); err != nil {
		w.logger.Error("cannot record click", zap.String("code", task.Code), zap.Error(err))
		return
	}

	// The click counter feeds list pages and analytics summaries; drop both
	// so the next read rebuilds them.
	if err := w.cache.DelByPrefix(ctx, cache.ListPrefix); err != nil {
		w.logger.Warn("cannot invalidate url lists after click", zap.Error(err))
	}
	if err := w.cache.Del(ctx, cache.AnalyticsKey(task.Code)); err != nil {
		w.logger.Warn("cannot invalidate analytics after click", zap.String("code", task.Code), zap.Error(err))
	}

	w.logger.Debug("recorded click", zap.String("code", task.Code))
}
