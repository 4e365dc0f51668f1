// Package timer counts the seconds spent on the open puzzle and persists every
// tick into the single active timer slot.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quotedojo/internal/telemetry"
)

// Persister is the timer slot of the progress store.
type Persister interface {
	PersistTick(ctx context.Context, seconds int) error
	ClearTick(ctx context.Context) error
}

type Options struct {
	Interval time.Duration
	Store    Persister
	Logger   telemetry.Logger
	// OnTick runs on the ticking goroutine after the tick was persisted. It
	// must not call back into the Service.
	OnTick func(seconds int)
}

type Service struct {
	interval time.Duration
	store    Persister
	logger   telemetry.Logger
	onTick   func(int)

	// tickMu is held for the whole of a tick so Stop and Reset wait for an
	// in-flight write instead of racing it.
	tickMu sync.Mutex

	mu      sync.Mutex
	seconds int
	running bool
	epoch   uint64
	stop    chan struct{}
}

func New(opts Options) *Service {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = telemetry.Nop()
	}
	return &Service{
		interval: opts.Interval,
		store:    opts.Store,
		logger:   opts.Logger,
		onTick:   opts.OnTick,
	}
}

// Start begins counting from the current value. Starting a running timer is
// a no-op. The timer also stops when ctx is done.
func (t *Service) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.epoch++
	t.stop = make(chan struct{})
	go t.loop(ctx, t.epoch, t.stop)
}

func (t *Service) loop(ctx context.Context, epoch uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-stop:
			return
		case <-ticker.C:
			t.tick(ctx, epoch)
		}
	}
}

func (t *Service) tick(ctx context.Context, epoch uint64) {
	t.tickMu.Lock()
	defer t.tickMu.Unlock()

	t.mu.Lock()
	if !t.running || t.epoch != epoch {
		t.mu.Unlock()
		return
	}
	t.seconds++
	seconds := t.seconds
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.PersistTick(ctx, seconds); err != nil {
			t.logger.Error("timer.persist_failed", map[string]any{"seconds": seconds, "error": err.Error()})
		}
	}
	if t.onTick != nil {
		t.onTick(seconds)
	}
}

// Stop halts counting. It returns once any in-flight tick has finished.
func (t *Service) Stop() {
	t.tickMu.Lock()
	defer t.tickMu.Unlock()
	t.halt()
}

func (t *Service) halt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	t.epoch++
	close(t.stop)
	t.stop = nil
}

// Reset stops the timer, zeroes it and clears the persisted tick.
func (t *Service) Reset(ctx context.Context) {
	t.tickMu.Lock()
	defer t.tickMu.Unlock()
	t.halt()

	t.mu.Lock()
	t.seconds = 0
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.ClearTick(ctx); err != nil {
			t.logger.Error("timer.clear_failed", map[string]any{"error": err.Error()})
		}
	}
}

// Restore seeds the counter from a resumed save. Ignored while running.
func (t *Service) Restore(seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.seconds = max(0, seconds)
}

func (t *Service) Seconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seconds
}

func (t *Service) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// FormatClock renders seconds as MM:SS. Minutes are not wrapped into hours.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
