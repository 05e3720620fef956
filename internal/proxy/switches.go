package proxy

import (
	"fmt"

	"github.com/five82/railcab/internal/railroad"
)

// SwitchProxy presents a group of four track switches owned by a remote
// server. It follows the same rules as LocomotiveProxy.
type SwitchProxy struct {
	m *mirror[railroad.SwitchGroup]
}

// NewSwitchProxy builds a proxy polling through api.
func NewSwitchProxy(sched Scheduler, api railroad.SwitchAPI, opts Options) *SwitchProxy {
	return &SwitchProxy{m: newMirror("switch", sched, resourceAPI[railroad.SwitchGroup]{
		fetch: api.FetchSwitchGroup,
		patch: api.PatchSwitchGroup,
		id:    func(g railroad.SwitchGroup) string { return g.ID },
	}, opts)}
}

// Start begins the poll loop.
func (p *SwitchProxy) Start() { p.m.start() }

// Select points the proxy at server, or stops polling when server is nil.
func (p *SwitchProxy) Select(server *railroad.Server) { p.m.selectServer(server) }

// Selected returns the current server.
func (p *SwitchProxy) Selected() (railroad.Server, bool) { return p.m.selected() }

// State reports whether poll ticks reach the network.
func (p *SwitchProxy) State() PollState { return p.m.pollState() }

// Subscribe returns a channel carrying the mirror after every update.
func (p *SwitchProxy) Subscribe() (<-chan railroad.SwitchGroup, func()) { return p.m.subscribe() }

// Snapshot returns a copy of the mirror.
func (p *SwitchProxy) Snapshot() railroad.SwitchGroup { return p.m.state }

// ID is assigned by the server and only changes through polling.
func (p *SwitchProxy) ID() string { return p.m.state.ID }

// Track returns the local position of switch n (1-based).
func (p *SwitchProxy) Track(n int) (railroad.SwitchPosition, error) {
	return p.m.state.Track(n)
}

// SetTrack moves switch n (1-based).
func (p *SwitchProxy) SetTrack(n int, pos railroad.SwitchPosition) error {
	current, err := p.m.state.Track(n)
	if err != nil {
		return err
	}
	if current == pos {
		return nil
	}
	p.m.change(fmt.Sprintf("switchTrack%d", n), func(g *railroad.SwitchGroup) {
		_ = g.SetTrack(n, pos)
	})
	return nil
}

// ToggleTrack flips switch n between straight and diverging.
func (p *SwitchProxy) ToggleTrack(n int) error {
	current, err := p.m.state.Track(n)
	if err != nil {
		return err
	}
	return p.SetTrack(n, current.Toggle())
}
