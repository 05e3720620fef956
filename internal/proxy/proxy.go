package proxy

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler is the event loop a proxy lives on. Post and After callbacks and
// the continuations returned by Go jobs must all run on the same goroutine.
// *loop.Loop satisfies it.
type Scheduler interface {
	Post(fn func())
	After(d time.Duration, fn func()) func() bool
	Go(job func(ctx context.Context) func())
}

// ErrorHandler receives every failed poll, propagation or directory refresh.
// source names the component that failed. It is called on the loop.
type ErrorHandler func(source string, err error)

// SuccessHandler is told about every poll, propagation or directory refresh
// the server answered. Local applies do not count. It is called on the loop.
type SuccessHandler func(source string)

// PollState tells whether a proxy's poll ticks reach the network.
type PollState int

const (
	// Idle means no server is selected and ticks do nothing.
	Idle PollState = iota
	// Polling means each tick fetches the selected server's state.
	Polling
)

func (s PollState) String() string {
	if s == Polling {
		return "polling"
	}
	return "idle"
}

const (
	// DefaultPollInterval is the resource poll cadence.
	DefaultPollInterval = 2 * time.Second
	// DefaultDirectoryInterval is the directory refresh cadence.
	DefaultDirectoryInterval = 10 * time.Second
)

// Options configure proxies and directories.
type Options struct {
	// Interval between poll ticks. Zero uses the component default.
	Interval time.Duration
	// ConflictRetries is how many extra GET-merge-PATCH rounds a change gets
	// after a conditional write is rejected.
	ConflictRetries int
	OnError         ErrorHandler
	OnSuccess       SuccessHandler
	Logger          *zap.Logger
}

func (o Options) interval(fallback time.Duration) time.Duration {
	if o.Interval > 0 {
		return o.Interval
	}
	return fallback
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) errorHandler() ErrorHandler {
	if o.OnError == nil {
		return func(string, error) {}
	}
	return o.OnError
}

func (o Options) successHandler() SuccessHandler {
	if o.OnSuccess == nil {
		return func(string) {}
	}
	return o.OnSuccess
}
