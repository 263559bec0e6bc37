// Package refresh refetches a day's events on a cron schedule and hands the
// whole list to the grid, which replaces what it shows.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"aizily/backend/internal/timegrid"
)

const DefaultSchedule = "@every 1m"

type FetchFunc func(ctx context.Context) ([]timegrid.DisplayEvent, error)

type Refresher struct {
	cron    *cron.Cron
	fetch   FetchFunc
	deliver func([]timegrid.DisplayEvent)
	timeout time.Duration
	log     *slog.Logger

	mu      sync.Mutex
	lastErr error
}

// New schedules fetch on schedule, a standard five-field cron spec or a
// descriptor such as "@every 30s". deliver receives every successful result
// and is called from the scheduler's goroutine.
func New(schedule string, fetch FetchFunc, deliver func([]timegrid.DisplayEvent), log *slog.Logger) (*Refresher, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "refresh"))

	r := &Refresher{
		fetch:   fetch,
		deliver: deliver,
		timeout: 15 * time.Second,
		log:     log,
	}
	cl := cronLogger{log: log}
	r.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := r.cron.AddFunc(schedule, r.tick); err != nil {
		return nil, fmt.Errorf("refresh schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running fetch to finish or ctx to end.
func (r *Refresher) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow fetches once outside the schedule.
func (r *Refresher) RunNow(ctx context.Context) error {
	events, err := r.fetch(ctx)
	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.deliver(events)
	return nil
}

// LastError reports the outcome of the most recent fetch.
func (r *Refresher) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Refresher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.RunNow(ctx); err != nil {
		r.log.Warn("refresh failed", slog.Any("err", err))
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append([]any{slog.Any("err", err)}, keysAndValues...)...)
}
