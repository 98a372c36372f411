// Package daemon wires the long-running matcherctl daemon process:
// the periodic PENDING-decision sweep, grounded on the teacher's
// reconciliation loop (internal/daemon/reconciler.go), built on top of
// internal/timer.Ticker's generic ctx-cancellable loop rather than
// reimplementing it.
package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/windlayer/matcher/internal/matcher"
	"github.com/windlayer/matcher/internal/timer"
)

// TickerConfig holds the PENDING-sweep ticker's tunables. Interval should
// be well under SETTLE_IDLE_TIMEOUT so idle-based PENDING decisions (§4.5)
// aren't delayed by more than one tick.
type TickerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Ticker drives Dispatcher.Tick() on a fixed interval and forwards every
// non-empty Result to the onResult callback passed to NewTicker (Tick
// returns its Result instead of calling the dispatcher's Config.OnResult,
// which only the settle-timer path uses, so the ticker owns that delivery).
type Ticker struct {
	logger   *slog.Logger
	disp     *matcher.Dispatcher
	onResult func(matcher.Result)
	inner    *timer.Ticker
}

// NewTicker builds a Ticker bound to a dispatcher. A non-positive
// interval defaults to 200ms (the PENDING tick period, §6).
func NewTicker(cfg TickerConfig, disp *matcher.Dispatcher, onResult func(matcher.Result)) *Ticker {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	t := &Ticker{logger: logger, disp: disp, onResult: onResult}
	t.inner = timer.NewTicker(interval, t.tick)
	return t
}

// Run blocks, ticking until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	t.logger.Info("pending-decision ticker started")
	t.inner.Run(ctx)
	t.logger.Info("pending-decision ticker stopped")
}

func (t *Ticker) tick() {
	defer func() {
		if err := recover(); err != nil {
			t.logger.Error("pending-decision tick panic recovered", "error", err)
		}
	}()

	res := t.disp.Tick()
	if len(res.Operations) > 0 || len(res.Events) > 0 {
		t.onResult(res)
	}
}
