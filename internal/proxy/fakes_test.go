package proxy

import (
	"context"
	"fmt"
	"time"

	"github.com/five82/railcab/internal/railroad"
)

// manualScheduler runs everything on the test goroutine. Time only moves on
// advance and network jobs only run on complete.
type manualScheduler struct {
	now    time.Duration
	queue  []func()
	timers []*manualTimer
	jobs   []func(ctx context.Context) func()
}

type manualTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (s *manualScheduler) Post(fn func()) { s.queue = append(s.queue, fn) }

func (s *manualScheduler) After(d time.Duration, fn func()) func() bool {
	t := &manualTimer{at: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return func() bool {
		if t.stopped || t.fired {
			return false
		}
		t.stopped = true
		return true
	}
}

func (s *manualScheduler) Go(job func(ctx context.Context) func()) {
	s.jobs = append(s.jobs, job)
}

func (s *manualScheduler) drain() {
	for len(s.queue) > 0 {
		fn := s.queue[0]
		s.queue = s.queue[1:]
		fn()
	}
}

// advance moves the clock and fires due timers in order.
func (s *manualScheduler) advance(d time.Duration) {
	target := s.now + d
	for {
		idx := -1
		for i, t := range s.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if idx < 0 || t.at < s.timers[idx].at {
				idx = i
			}
		}
		if idx < 0 {
			break
		}
		t := s.timers[idx]
		t.fired = true
		s.now = t.at
		t.fn()
		s.drain()
	}
	s.now = target
	s.prune()
}

// complete runs pending network jobs and their continuations until none are
// left.
func (s *manualScheduler) complete() {
	for len(s.jobs) > 0 {
		jobs := s.jobs
		s.jobs = nil
		for _, job := range jobs {
			if next := job(context.Background()); next != nil {
				s.Post(next)
			}
		}
		s.drain()
	}
}

func (s *manualScheduler) pendingTimers() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (s *manualScheduler) prune() {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	s.timers = live
}

type errRecorder struct {
	sources []string
	errs    []error
}

func (r *errRecorder) handle(source string, err error) {
	r.sources = append(r.sources, source)
	r.errs = append(r.errs, err)
}

func (r *errRecorder) last() error {
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

// versioned is a fake resource store with optional ETag support.
type versioned[T any] struct {
	remote     T
	etags      bool
	rev        int
	fetchErrs  []error
	patchErrs  []error
	afterFetch func()

	fetches int
	patches int
	patched []T
	ifMatch []railroad.Revision
}

func (v *versioned[T]) revision() railroad.Revision {
	if !v.etags {
		return ""
	}
	return railroad.Revision(fmt.Sprintf(`"%d"`, v.rev))
}

func (v *versioned[T]) fetch() (T, railroad.Revision, error) {
	v.fetches++
	if len(v.fetchErrs) > 0 {
		err := v.fetchErrs[0]
		v.fetchErrs = v.fetchErrs[1:]
		if err != nil {
			var zero T
			return zero, "", err
		}
	}
	out, rev := v.remote, v.revision()
	if hook := v.afterFetch; hook != nil {
		v.afterFetch = nil
		hook()
	}
	return out, rev, nil
}

func (v *versioned[T]) patch(value T, rev railroad.Revision) error {
	v.patches++
	v.patched = append(v.patched, value)
	v.ifMatch = append(v.ifMatch, rev)
	if len(v.patchErrs) > 0 {
		err := v.patchErrs[0]
		v.patchErrs = v.patchErrs[1:]
		if err != nil {
			return err
		}
	}
	if v.etags && rev != v.revision() {
		return fmt.Errorf("api PATCH: %w", railroad.ErrConflict)
	}
	v.remote = value
	v.rev++
	return nil
}

type fakeLocomotiveAPI struct {
	versioned[railroad.Locomotive]
}

func (f *fakeLocomotiveAPI) FetchLocomotive(_ context.Context, _ string) (railroad.Locomotive, railroad.Revision, error) {
	return f.fetch()
}

func (f *fakeLocomotiveAPI) PatchLocomotive(_ context.Context, _ string, l railroad.Locomotive, rev railroad.Revision) error {
	return f.patch(l, rev)
}

type fakeSwitchAPI struct {
	versioned[railroad.SwitchGroup]
}

func (f *fakeSwitchAPI) FetchSwitchGroup(_ context.Context, _ string) (railroad.SwitchGroup, railroad.Revision, error) {
	return f.fetch()
}

func (f *fakeSwitchAPI) PatchSwitchGroup(_ context.Context, _ string, g railroad.SwitchGroup, rev railroad.Revision) error {
	return f.patch(g, rev)
}

type fakeDirectoryAPI struct {
	batches [][]railroad.Server
	errs    []error
	calls   int
}

func (f *fakeDirectoryAPI) FetchServers(_ context.Context, _ string) ([]railroad.Server, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.batches) {
		return f.batches[len(f.batches)-1], nil
	}
	return f.batches[i], nil
}

var (
	serverA = railroad.Server{ID: "a", RestURL: "http://host/a"}
	serverB = railroad.Server{ID: "b", RestURL: "http://host/b"}
	serverC = railroad.Server{ID: "c", RestURL: "http://host/c"}
	serverD = railroad.Server{ID: "d", RestURL: "http://host/d"}
)
