package proxy

import "time"

// Session is a countdown granting control over a locomotive. When it runs
// out the locomotive is stopped. Methods must be called on the loop.
type Session struct {
	sched    Scheduler
	loco     *LocomotiveProxy
	onExpire func()
	now      func() time.Time

	deadline time.Time
	stop     func() bool
	gen      int
}

// NewSession builds an idle session for loco. onExpire may be nil.
func NewSession(sched Scheduler, loco *LocomotiveProxy, onExpire func()) *Session {
	return &Session{sched: sched, loco: loco, onExpire: onExpire, now: time.Now}
}

// Start arms the countdown, replacing any running one.
func (s *Session) Start(d time.Duration) {
	s.Stop()
	if d <= 0 {
		return
	}
	gen := s.gen
	s.deadline = s.now().Add(d)
	s.stop = s.sched.After(d, func() {
		if gen != s.gen {
			return
		}
		s.expire()
	})
}

// Stop disarms the countdown without touching the locomotive.
func (s *Session) Stop() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	s.gen++
	s.deadline = time.Time{}
}

// Active reports whether a countdown is running.
func (s *Session) Active() bool {
	return !s.deadline.IsZero()
}

// Remaining is the time left, zero when inactive.
func (s *Session) Remaining() time.Duration {
	if !s.Active() {
		return 0
	}
	left := s.deadline.Sub(s.now())
	if left < 0 {
		return 0
	}
	return left
}

func (s *Session) expire() {
	s.stop = nil
	s.gen++
	s.deadline = time.Time{}
	s.loco.SetSpeed(0)
	if s.onExpire != nil {
		s.onExpire()
	}
}
