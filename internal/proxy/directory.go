package proxy

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/railcab/internal/railroad"
)

// Directory keeps the list of servers a directory endpoint currently
// announces. Its state is owned by the scheduler's loop; Start and Subscribe
// may be called from any goroutine.
type Directory struct {
	source   string
	url      string
	sched    Scheduler
	api      railroad.DirectoryAPI
	interval  time.Duration
	onError   ErrorHandler
	onSuccess SuccessHandler
	logger    *zap.Logger

	servers []railroad.Server
	hub     *hub[[]railroad.Server]
	started bool
}

// NewDirectory builds a directory adapter for directoryURL. source labels
// errors and log lines, e.g. "locomotive-directory".
func NewDirectory(source string, sched Scheduler, api railroad.DirectoryAPI, directoryURL string, opts Options) *Directory {
	return &Directory{
		source:    source,
		url:       directoryURL,
		sched:     sched,
		api:       api,
		interval:  opts.interval(DefaultDirectoryInterval),
		onError:   opts.errorHandler(),
		onSuccess: opts.successHandler(),
		logger: opts.logger().With(
			zap.String("component", source),
			zap.String("directory", directoryURL)),
		hub: newHub[[]railroad.Server](sched),
	}
}

// Start begins periodic refreshes, the first one immediately.
func (d *Directory) Start() {
	d.sched.Post(func() {
		if d.started {
			return
		}
		d.started = true
		d.tick()
	})
}

func (d *Directory) tick() {
	d.sched.After(d.interval, d.tick)
	d.sched.Go(func(ctx context.Context) func() {
		batch, err := d.api.FetchServers(ctx, d.url)
		return func() {
			if err != nil {
				err = fmt.Errorf("refresh %s: %w", d.url, err)
				d.logger.Warn("directory refresh failed", zap.Error(err))
				d.onError(d.source, err)
				return
			}
			d.onSuccess(d.source)
			d.apply(batch)
		}
	})
}

func (d *Directory) apply(batch []railroad.Server) {
	next := Converge(d.servers, batch)
	if len(next) != len(d.servers) {
		d.logger.Debug("directory changed", zap.Int("servers", len(next)))
	}
	d.servers = next
	d.hub.publish(d.Servers())
}

// Servers returns a copy of the current list. Call it on the loop.
func (d *Directory) Servers() []railroad.Server {
	out := make([]railroad.Server, len(d.servers))
	copy(out, d.servers)
	return out
}

// Lookup finds a listed server by id. Call it on the loop.
func (d *Directory) Lookup(id string) (railroad.Server, bool) {
	if i := indexOf(d.servers, id); i >= 0 {
		return d.servers[i], true
	}
	return railroad.Server{}, false
}

// Subscribe returns a channel carrying the list after every refresh.
// Receivers must not modify the slices they receive.
func (d *Directory) Subscribe() (<-chan []railroad.Server, func()) {
	return d.hub.subscribe(d.Servers)
}

// Converge returns the list that follows prev after a refresh returned batch:
// entries of prev still present in batch keep their order, entries new in
// batch are appended in batch order. Identity is the server id; a retained
// entry keeps its previous value.
func Converge(prev, batch []railroad.Server) []railroad.Server {
	out := make([]railroad.Server, 0, len(batch))
	for _, s := range prev {
		if indexOf(batch, s.ID) >= 0 && indexOf(out, s.ID) < 0 {
			out = append(out, s)
		}
	}
	for _, s := range batch {
		if indexOf(out, s.ID) < 0 {
			out = append(out, s)
		}
	}
	return out
}

func indexOf(servers []railroad.Server, id string) int {
	for i, s := range servers {
		if s.ID == id {
			return i
		}
	}
	return -1
}
