package proxy

import (
	"testing"
	"time"
)

func newSessionFixture(t *testing.T) (locoFixture, *Session, *int) {
	t.Helper()
	f := newLocoFixture(t, Options{Interval: time.Hour})
	f.connect()
	f.proxy.SetSpeed(40)
	f.sched.complete()

	expired := 0
	s := NewSession(f.sched, f.proxy, func() { expired++ })
	base := time.Unix(0, 0)
	s.now = func() time.Time { return base.Add(f.sched.now) }
	return f, s, &expired
}

func TestSession_ExpiryStopsLocomotiveOnce(t *testing.T) {
	f, s, expired := newSessionFixture(t)

	s.Start(30 * time.Second)
	f.sched.advance(29 * time.Second)
	if !s.Active() || f.proxy.Speed() != 40 {
		t.Fatalf("active=%v speed=%d, want running session at speed 40", s.Active(), f.proxy.Speed())
	}
	if got := s.Remaining(); got != time.Second {
		t.Fatalf("Remaining = %v, want 1s", got)
	}

	f.sched.advance(time.Second)
	if f.proxy.Speed() != 0 {
		t.Fatalf("Speed = %d, want 0 on expiry", f.proxy.Speed())
	}
	if *expired != 1 || s.Active() || s.Remaining() != 0 {
		t.Fatalf("expired=%d active=%v remaining=%v, want one expiry and idle session", *expired, s.Active(), s.Remaining())
	}

	f.sched.complete()
	if f.api.remote.Speed != 0 {
		t.Fatalf("server speed = %d, want 0 propagated", f.api.remote.Speed)
	}

	f.sched.advance(time.Minute)
	if *expired != 1 {
		t.Fatalf("expired = %d, want 1", *expired)
	}
}

func TestSession_RestartReplacesCountdown(t *testing.T) {
	f, s, expired := newSessionFixture(t)

	s.Start(30 * time.Second)
	f.sched.advance(20 * time.Second)
	s.Start(30 * time.Second)
	f.sched.advance(20 * time.Second)
	if *expired != 0 {
		t.Fatalf("expired = %d, want 0 after restart", *expired)
	}
	f.sched.advance(10 * time.Second)
	if *expired != 1 {
		t.Fatalf("expired = %d, want 1", *expired)
	}
}

func TestSession_StopLeavesSpeed(t *testing.T) {
	f, s, expired := newSessionFixture(t)

	s.Start(10 * time.Second)
	s.Stop()
	f.sched.advance(time.Minute)
	if *expired != 0 || f.proxy.Speed() != 40 {
		t.Fatalf("expired=%d speed=%d, want no expiry and speed 40", *expired, f.proxy.Speed())
	}

	s.Start(0)
	if s.Active() {
		t.Fatalf("Start(0) armed the session")
	}
}
