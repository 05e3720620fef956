package loop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func startLoop(t *testing.T, workers int) *Loop {
	t.Helper()
	l := New(workers, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return l
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestLoop_PostRunsInOrder(t *testing.T) {
	l := startLoop(t, 1)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	if err := l.Do(waitCtx(t), func() {}); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}

	var snapshot []int
	_ = l.Do(waitCtx(t), func() { snapshot = append(snapshot, got...) })
	for i, v := range snapshot {
		if v != i {
			t.Fatalf("callbacks ran as %v, want 0..4 in order", snapshot)
		}
	}
	if len(snapshot) != 5 {
		t.Fatalf("ran %d callbacks, want 5", len(snapshot))
	}
}

func TestLoop_PostFromLoopDoesNotBlock(t *testing.T) {
	l := startLoop(t, 1)

	done := make(chan struct{})
	l.Post(func() {
		for i := 0; i < 1000; i++ {
			l.Post(func() {})
		}
		l.Post(func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("nested posts did not drain")
	}
}

func TestLoop_AfterFiresAndCanBeStopped(t *testing.T) {
	l := startLoop(t, 1)

	fired := make(chan struct{})
	l.After(10*time.Millisecond, func() { close(fired) })

	stop := l.After(time.Hour, func() { t.Errorf("stopped timer fired") })
	if !stop() {
		t.Fatalf("stop() = false, want true for pending timer")
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer did not fire")
	}
}

func TestLoop_GoBoundsWorkersAndPostsContinuation(t *testing.T) {
	const workers = 2
	l := startLoop(t, workers)

	var active, peak atomic.Int32
	results := make(chan int, 6)
	release := make(chan struct{})

	for i := 0; i < 6; i++ {
		i := i
		l.Go(func(ctx context.Context) func() {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			active.Add(-1)
			return func() { results <- i }
		})
	}

	time.Sleep(50 * time.Millisecond)
	close(release)

	for i := 0; i < 6; i++ {
		select {
		case <-results:
		case <-time.After(2 * time.Second):
			t.Fatalf("continuation %d never ran", i)
		}
	}
	if got := peak.Load(); got > workers {
		t.Fatalf("peak concurrency = %d, want <= %d", got, workers)
	}
}

func TestLoop_RunTwiceFails(t *testing.T) {
	l := startLoop(t, 1)
	// Make sure the first Run has claimed the loop.
	_ = l.Do(waitCtx(t), func() {})

	if err := l.Run(context.Background()); err == nil {
		t.Fatalf("second Run returned nil error, want error")
	}
}

func TestLoop_PanicDoesNotStopLoop(t *testing.T) {
	l := startLoop(t, 1)
	l.Post(func() { panic("boom") })

	if err := l.Do(waitCtx(t), func() {}); err != nil {
		t.Fatalf("Do after panic returned error: %v", err)
	}
}
