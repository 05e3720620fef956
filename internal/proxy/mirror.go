package proxy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/railcab/internal/railroad"
)

// resourceAPI adapts a typed client to the generic mirror.
type resourceAPI[T any] struct {
	fetch func(ctx context.Context, restURL string) (T, railroad.Revision, error)
	patch func(ctx context.Context, restURL string, v T, rev railroad.Revision) error
	id    func(T) string
}

// mirror keeps a local copy of one remote resource. All fields are owned by
// the scheduler's loop.
type mirror[T any] struct {
	source   string
	sched    Scheduler
	api      resourceAPI[T]
	interval time.Duration
	retries   int
	onError   ErrorHandler
	onSuccess SuccessHandler
	logger    *zap.Logger

	server  *railroad.Server
	state   T
	hub     *hub[T]
	started bool
}

func newMirror[T any](source string, sched Scheduler, api resourceAPI[T], opts Options) *mirror[T] {
	retries := opts.ConflictRetries
	if retries < 0 {
		retries = 0
	}
	return &mirror[T]{
		source:    source,
		sched:     sched,
		api:       api,
		interval:  opts.interval(DefaultPollInterval),
		retries:   retries,
		onError:   opts.errorHandler(),
		onSuccess: opts.successHandler(),
		logger:    opts.logger().With(zap.String("component", source)),
		hub:       newHub[T](sched),
	}
}

// start posts the first poll tick. Later calls do nothing.
func (m *mirror[T]) start() {
	m.sched.Post(func() {
		if m.started {
			return
		}
		m.started = true
		m.tick()
	})
}

// tick reschedules itself before fetching so that a request whose callback
// never arrives cannot stall polling.
func (m *mirror[T]) tick() {
	m.sched.After(m.interval, m.tick)
	if m.server == nil {
		return
	}
	m.poll(*m.server)
}

func (m *mirror[T]) poll(server railroad.Server) {
	m.sched.Go(func(ctx context.Context) func() {
		v, _, err := m.api.fetch(ctx, server.RestURL)
		return func() {
			if err != nil {
				m.fail(fmt.Errorf("poll %s: %w", server.ID, err))
				return
			}
			m.onSuccess(m.source)
			if !m.isSelected(server) {
				m.logger.Debug("drop poll of unselected server", zap.String("server", server.ID))
				return
			}
			m.state = v
			m.hub.publish(m.state)
		}
	})
}

func (m *mirror[T]) selectServer(server *railroad.Server) {
	if server == nil {
		if m.server != nil {
			m.logger.Info("server deselected", zap.String("server", m.server.ID))
		}
		m.server = nil
		return
	}
	selected := *server
	m.server = &selected
	m.logger.Info("server selected",
		zap.String("server", selected.ID),
		zap.String("url", selected.RestURL))
	m.poll(selected)
}

func (m *mirror[T]) selected() (railroad.Server, bool) {
	if m.server == nil {
		return railroad.Server{}, false
	}
	return *m.server, true
}

// isSelected reports whether server is still the one being polled.
func (m *mirror[T]) isSelected(server railroad.Server) bool {
	return m.server != nil && m.server.ID == server.ID
}

func (m *mirror[T]) pollState() PollState {
	if m.server == nil {
		return Idle
	}
	return Polling
}

// change applies a single-field mutation locally and propagates it. A
// successful propagation replaces the whole mirror with the merged snapshot,
// so other fields whose own propagation is still in flight show the server
// value until their PATCH lands or the next poll arrives. Results for a
// server that is no longer selected are dropped.
func (m *mirror[T]) change(field string, mutate func(*T)) {
	mutate(&m.state)
	m.hub.publish(m.state)

	if m.server == nil {
		m.logger.Debug("no server selected, change kept local", zap.String("field", field))
		return
	}
	server := *m.server
	m.sched.Go(func(ctx context.Context) func() {
		ctx, requestID := railroad.WithRequestID(ctx)
		merged, err := m.exchange(ctx, server, requestID, mutate)
		return func() {
			if err != nil {
				m.fail(fmt.Errorf("propagate %s to %s: %w", field, server.ID, err))
				return
			}
			m.onSuccess(m.source)
			if !m.isSelected(server) {
				return
			}
			m.state = merged
			m.hub.publish(m.state)
		}
	})
}

// exchange reads the latest remote state, applies mutate to it and writes it
// back. It runs on a worker and must not touch mirror state. When the server
// supports revisions a rejected write is re-merged up to m.retries times.
// Without revisions the last PATCH to arrive wins.
func (m *mirror[T]) exchange(ctx context.Context, server railroad.Server, requestID string, mutate func(*T)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		remote, rev, err := m.api.fetch(ctx, server.RestURL)
		if err != nil {
			return zero, err
		}
		if m.api.id(remote) == "" {
			return zero, railroad.ErrUnassigned
		}
		mutate(&remote)

		err = m.api.patch(ctx, server.RestURL, remote, rev)
		if err == nil {
			return remote, nil
		}
		if !errors.Is(err, railroad.ErrConflict) || rev == "" || attempt >= m.retries {
			return zero, err
		}
		m.logger.Info("write conflict, merging again",
			zap.String("server", server.ID),
			zap.String("request_id", requestID),
			zap.Int("attempt", attempt+1))
	}
}

func (m *mirror[T]) subscribe() (<-chan T, func()) {
	return m.hub.subscribe(func() T { return m.state })
}

func (m *mirror[T]) fail(err error) {
	m.logger.Warn("sync failed", zap.Error(err))
	m.onError(m.source, err)
}
