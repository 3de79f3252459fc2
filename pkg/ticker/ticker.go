// Package ticker provides a repeating scheduler whose callbacks keep firing at
// their declared interval regardless of the state of the browser tab being
// automated.
//
// Interval bookkeeping runs in one goroutine per subscription. Those
// goroutines only post "tick" messages carrying the subscription handle onto
// a shared queue; Run drains the queue and invokes callbacks one at a time.
// Callbacks therefore never run concurrently with each other.
package ticker

import (
	"context"
	"sync"
	"time"
)

// Handle identifies one repeating subscription.
type Handle uint64

// MinInterval is the smallest interval a subscription may use.
const MinInterval = time.Millisecond

// Scheduler schedules repeating callbacks.
type Scheduler interface {
	// Start schedules fn to be called every interval until the handle is cancelled.
	Start(fn func(), interval time.Duration) Handle

	// Cancel stops a subscription. It does not wait; once Cancel returns no
	// further queued tick for h will invoke its callback.
	Cancel(h Handle)
}

// PanicHandler receives the value recovered from a panicking callback.
type PanicHandler func(h Handle, recovered interface{})

type subscription struct {
	fn   func()
	stop chan struct{}
	once sync.Once
}

func (s *subscription) halt() {
	s.once.Do(func() { close(s.stop) })
}

// Ticker is the default Scheduler.
type Ticker struct {
	mu       sync.Mutex
	nextID   Handle
	subs     map[Handle]*subscription
	queue    chan Handle
	done     chan struct{}
	doneOnce sync.Once
	onPanic  PanicHandler
}

// Option configures a Ticker.
type Option func(*Ticker)

// WithQueueSize sets the capacity of the tick message queue.
func WithQueueSize(n int) Option {
	return func(t *Ticker) {
		if n > 0 {
			t.queue = make(chan Handle, n)
		}
	}
}

// WithPanicHandler installs a handler for panicking callbacks.
func WithPanicHandler(h PanicHandler) Option {
	return func(t *Ticker) {
		t.onPanic = h
	}
}

// New creates a Ticker. Callbacks are only invoked while Run is active.
func New(opts ...Option) *Ticker {
	t := &Ticker{
		subs:  make(map[Handle]*subscription),
		queue: make(chan Handle, 64),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start implements Scheduler.
func (t *Ticker) Start(fn func(), interval time.Duration) Handle {
	if interval < MinInterval {
		interval = MinInterval
	}

	t.mu.Lock()
	t.nextID++
	h := t.nextID
	sub := &subscription{fn: fn, stop: make(chan struct{})}
	t.subs[h] = sub
	t.mu.Unlock()

	go t.generate(h, sub, interval)
	return h
}

// Cancel implements Scheduler.
func (t *Ticker) Cancel(h Handle) {
	t.mu.Lock()
	sub, ok := t.subs[h]
	delete(t.subs, h)
	t.mu.Unlock()

	if ok {
		sub.halt()
	}
}

// Active returns the number of live subscriptions.
func (t *Ticker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// generate posts a tick message for h every interval until stopped.
func (t *Ticker) generate(h Handle, sub *subscription, interval time.Duration) {
	tk := time.NewTicker(interval)
	defer tk.Stop()

	for {
		select {
		case <-sub.stop:
			return
		case <-t.done:
			return
		case <-tk.C:
			select {
			case t.queue <- h:
			case <-sub.stop:
				return
			case <-t.done:
				return
			}
		}
	}
}

// Run dispatches queued ticks until ctx is cancelled. On return every
// subscription is halted.
func (t *Ticker) Run(ctx context.Context) error {
	defer t.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case h := <-t.queue:
			t.dispatch(h)
		}
	}
}

func (t *Ticker) dispatch(h Handle) {
	t.mu.Lock()
	sub, ok := t.subs[h]
	t.mu.Unlock()

	// Cancelled after the tick was queued.
	if !ok {
		return
	}

	defer func() {
		if r := recover(); r != nil && t.onPanic != nil {
			t.onPanic(h, r)
		}
	}()
	sub.fn()
}

func (t *Ticker) shutdown() {
	t.doneOnce.Do(func() { close(t.done) })

	t.mu.Lock()
	defer t.mu.Unlock()
	for h, sub := range t.subs {
		sub.halt()
		delete(t.subs, h)
	}
}
