package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const defaultWorkers = 4

// Loop runs callbacks one at a time on a single goroutine. Blocking work is
// handed to a bounded worker pool through Go; its continuation is posted back
// so that state owned by the loop is only ever touched from Run's goroutine.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	running bool
	ctx     context.Context

	wake   chan struct{}
	sem    *semaphore.Weighted
	logger *zap.Logger
}

// New builds a Loop whose worker pool runs at most workers jobs at a time.
func New(workers int, logger *zap.Logger) *Loop {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		ctx:    context.Background(),
		wake:   make(chan struct{}, 1),
		sem:    semaphore.NewWeighted(int64(workers)),
		logger: logger.With(zap.String("component", "loop")),
	}
}

// Post queues fn to run on the loop. It never blocks, including when called
// from the loop itself.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// After posts fn to the loop once d has elapsed. The returned func cancels
// the timer and reports whether it was still pending.
func (l *Loop) After(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, func() { l.Post(fn) })
	return t.Stop
}

// Go runs job on the worker pool. A non-nil continuation returned by job is
// posted to the loop. Jobs receive the context Run was started with and are
// dropped without running if that context ends while they wait for a worker.
func (l *Loop) Go(job func(ctx context.Context) func()) {
	ctx := l.context()
	go func() {
		if err := l.sem.Acquire(ctx, 1); err != nil {
			return
		}
		next := job(ctx)
		l.sem.Release(1)
		if next != nil {
			l.Post(next)
		}
	}()
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes queued callbacks until ctx is cancelled. A Loop can be run
// only once.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return errors.New("loop already running")
	}
	l.running = true
	l.ctx = ctx
	l.mu.Unlock()

	l.logger.Debug("loop started")
	defer l.logger.Debug("loop stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
		for {
			fn := l.next()
			if fn == nil {
				break
			}
			l.invoke(fn)
			if ctx.Err() != nil {
				return nil
			}
		}
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("callback panicked", zap.Error(fmt.Errorf("%v", r)))
		}
	}()
	fn()
}

func (l *Loop) context() context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ctx
}
