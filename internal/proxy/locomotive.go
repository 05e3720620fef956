package proxy

import (
	"github.com/five82/railcab/internal/railroad"
)

// LocomotiveProxy presents a locomotive owned by a remote server. Getters read
// the local mirror. Setters apply locally and then write the single changed
// field on top of a freshly fetched remote snapshot.
//
// Except for Start and Subscribe, methods must be called on the scheduler's
// loop.
type LocomotiveProxy struct {
	m *mirror[railroad.Locomotive]
}

// NewLocomotiveProxy builds a proxy polling through api. Call Start to begin
// polling.
func NewLocomotiveProxy(sched Scheduler, api railroad.LocomotiveAPI, opts Options) *LocomotiveProxy {
	return &LocomotiveProxy{m: newMirror("locomotive", sched, resourceAPI[railroad.Locomotive]{
		fetch: api.FetchLocomotive,
		patch: api.PatchLocomotive,
		id:    func(l railroad.Locomotive) string { return l.ID },
	}, opts)}
}

// Start begins the poll loop.
func (p *LocomotiveProxy) Start() { p.m.start() }

// Select points the proxy at server, or stops polling when server is nil.
func (p *LocomotiveProxy) Select(server *railroad.Server) { p.m.selectServer(server) }

// Selected returns the current server.
func (p *LocomotiveProxy) Selected() (railroad.Server, bool) { return p.m.selected() }

// State reports whether poll ticks reach the network.
func (p *LocomotiveProxy) State() PollState { return p.m.pollState() }

// Subscribe returns a channel carrying the mirror after every update.
func (p *LocomotiveProxy) Subscribe() (<-chan railroad.Locomotive, func()) {
	return p.m.subscribe()
}

// Snapshot returns a copy of the mirror.
func (p *LocomotiveProxy) Snapshot() railroad.Locomotive { return p.m.state }

// ID is assigned by the server and only changes through polling.
func (p *LocomotiveProxy) ID() string { return p.m.state.ID }

// Name returns the local locomotive name.
func (p *LocomotiveProxy) Name() string { return p.m.state.Name }

// SetName renames the locomotive.
func (p *LocomotiveProxy) SetName(name string) {
	if p.m.state.Name == name {
		return
	}
	p.m.change("name", func(l *railroad.Locomotive) { l.Name = name })
}

// Number returns the local running number.
func (p *LocomotiveProxy) Number() string { return p.m.state.Number }

// SetNumber changes the running number.
func (p *LocomotiveProxy) SetNumber(number string) {
	if p.m.state.Number == number {
		return
	}
	p.m.change("number", func(l *railroad.Locomotive) { l.Number = number })
}

// Speed returns the local speed.
func (p *LocomotiveProxy) Speed() int { return p.m.state.Speed }

// SetSpeed changes the speed. Its sign carries no meaning.
func (p *LocomotiveProxy) SetSpeed(speed int) {
	if p.m.state.Speed == speed {
		return
	}
	p.m.change("speed", func(l *railroad.Locomotive) { l.Speed = speed })
}

// Direction returns the local travel direction.
func (p *LocomotiveProxy) Direction() railroad.Direction { return p.m.state.Direction }

// SetDirection changes the travel direction. The locomotive server decides
// how a running motor reverses.
func (p *LocomotiveProxy) SetDirection(direction railroad.Direction) {
	if p.m.state.Direction == direction {
		return
	}
	p.m.change("direction", func(l *railroad.Locomotive) { l.Direction = direction })
}

// HeadLight reports whether the head light is on.
func (p *LocomotiveProxy) HeadLight() bool { return p.m.state.HeadLight }

// SetHeadLight switches the head light.
func (p *LocomotiveProxy) SetHeadLight(on bool) {
	if p.m.state.HeadLight == on {
		return
	}
	p.m.change("headLight", func(l *railroad.Locomotive) { l.HeadLight = on })
}

// CabineLighting reports whether the cabin light is on.
func (p *LocomotiveProxy) CabineLighting() bool { return p.m.state.CabineLighting }

// SetCabineLighting switches the cabin light.
func (p *LocomotiveProxy) SetCabineLighting(on bool) {
	if p.m.state.CabineLighting == on {
		return
	}
	p.m.change("cabineLighting", func(l *railroad.Locomotive) { l.CabineLighting = on })
}

// HornSound reports whether the horn sounds.
func (p *LocomotiveProxy) HornSound() bool { return p.m.state.HornSound }

// SetHornSound switches the horn.
func (p *LocomotiveProxy) SetHornSound(on bool) {
	if p.m.state.HornSound == on {
		return
	}
	p.m.change("hornSound", func(l *railroad.Locomotive) { l.HornSound = on })
}

// DrivingSound reports whether the driving sound plays.
func (p *LocomotiveProxy) DrivingSound() bool { return p.m.state.DrivingSound }

// SetDrivingSound switches the driving sound.
func (p *LocomotiveProxy) SetDrivingSound(on bool) {
	if p.m.state.DrivingSound == on {
		return
	}
	p.m.change("drivingSound", func(l *railroad.Locomotive) { l.DrivingSound = on })
}
