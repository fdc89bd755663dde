package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// tickInterval is the countdown resolution.
	tickInterval = time.Second
	// defaultExpireDelay defers the expiry callback slightly so state
	// mutations from the tick that reached zero settle first.
	defaultExpireDelay = 100 * time.Millisecond
)

// Timer drives the per-question countdown of a session store. Each tick
// decrements the remaining time by one second while the countdown is active
// and the exam is neither paused nor finished. When a countdown reaches zero
// the expiry callback fires exactly once; the latch re-arms only when the
// remaining time increases again (a new countdown started).
type Timer struct {
	store    *Store
	log      zerolog.Logger
	onExpire func()

	// ExpireDelay is the deferral before the expiry callback runs.
	// Exposed for tests; defaults to defaultExpireDelay.
	ExpireDelay time.Duration

	mu            sync.Mutex
	latched       bool
	lastRemaining int
}

// NewTimer creates a timer bound to the given store. onExpire may be nil.
func NewTimer(store *Store, log zerolog.Logger, onExpire func()) *Timer {
	return &Timer{
		store:       store,
		log:         log.With().Str("component", "timer").Logger(),
		onExpire:    onExpire,
		ExpireDelay: defaultExpireDelay,
	}
}

// Run ticks at one-second resolution until the context is cancelled.
// Call in a goroutine.
func (t *Timer) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}

// Tick advances the countdown by one second. Exposed so tests can drive the
// timer deterministically.
func (t *Timer) Tick() {
	remaining := t.store.Remaining()

	t.mu.Lock()
	if remaining > t.lastRemaining {
		// A new countdown started; re-arm the expiry latch.
		t.latched = false
	}
	t.lastRemaining = remaining
	t.mu.Unlock()

	if t.store.Finished() || t.store.Paused() || !t.store.TimerActive() {
		return
	}

	if remaining <= 0 {
		// Active timer with nothing left: an out-of-order update reached
		// zero without passing through a tick. Fire (latched at most once).
		t.fire()
		return
	}

	remaining--
	t.store.UpdateRemainingTime(remaining)

	t.mu.Lock()
	t.lastRemaining = remaining
	t.mu.Unlock()

	if remaining == 0 {
		t.fire()
	}
}

// fire schedules the expiry callback unless it already fired for this
// countdown cycle.
func (t *Timer) fire() {
	t.mu.Lock()
	if t.latched {
		t.mu.Unlock()
		return
	}
	t.latched = true
	t.mu.Unlock()

	t.log.Debug().Msg("Countdown expired")

	if t.onExpire == nil {
		return
	}
	if t.ExpireDelay <= 0 {
		t.onExpire()
		return
	}
	time.AfterFunc(t.ExpireDelay, t.onExpire)
}

// Latched reports whether the expiry callback has fired for the current
// countdown cycle.
func (t *Timer) Latched() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latched
}
