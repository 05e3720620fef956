package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/railcab/internal/loop"
	"github.com/five82/railcab/internal/proxy"
	"github.com/five82/railcab/internal/railroad"
	"github.com/five82/railcab/internal/state"
)

// MaxSpeed caps ChangeSpeed.
const MaxSpeed = 100

// API is everything the controller needs from the railroad servers.
// *railroad.Client satisfies it.
type API interface {
	railroad.LocomotiveAPI
	railroad.SwitchAPI
	railroad.DirectoryAPI
}

// ControllerConfig sizes and times the controller.
type ControllerConfig struct {
	LocomotiveDirectory string
	SwitchDirectory     string
	PollInterval        time.Duration
	DirectoryInterval   time.Duration
	Workers             int
	ConflictRetries     int
	Session             time.Duration
}

// Controller owns the event loop and every component living on it. Its
// exported actions may be called from any goroutine; they are posted to the
// loop. The store reflects the loop state for readers such as the console.
type Controller struct {
	loop    *loop.Loop
	store   *state.Store
	logger  *zap.Logger
	session time.Duration

	loco        *proxy.LocomotiveProxy
	switches    *proxy.SwitchProxy
	locoDir     *proxy.Directory
	switchDir   *proxy.Directory
	countdown   *proxy.Session
	sessionTime func() time.Time
}

// NewController wires proxies, directories and the session to a fresh loop.
func NewController(cfg ControllerConfig, api API, store *state.Store, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		loop:        loop.New(cfg.Workers, logger),
		store:       store,
		logger:      logger.With(zap.String("component", "controller")),
		session:     cfg.Session,
		sessionTime: time.Now,
	}

	onError := func(source string, err error) {
		c.store.RecordError(source, err)
	}
	resource := proxy.Options{
		Interval:        cfg.PollInterval,
		ConflictRetries: cfg.ConflictRetries,
		OnError:         onError,
		OnSuccess:       c.store.RecordSuccess,
		Logger:          logger,
	}
	directory := proxy.Options{
		Interval:  cfg.DirectoryInterval,
		OnError:   onError,
		OnSuccess: c.store.RecordSuccess,
		Logger:    logger,
	}

	c.loco = proxy.NewLocomotiveProxy(c.loop, api, resource)
	c.switches = proxy.NewSwitchProxy(c.loop, api, resource)
	c.locoDir = proxy.NewDirectory(state.SourceLocomotiveDirectory, c.loop, api, cfg.LocomotiveDirectory, directory)
	c.switchDir = proxy.NewDirectory(state.SourceSwitchDirectory, c.loop, api, cfg.SwitchDirectory, directory)
	c.countdown = proxy.NewSession(c.loop, c.loco, c.sessionExpired)
	return c
}

// Run starts polling and processes the loop until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	c.loco.Start()
	c.switches.Start()
	c.locoDir.Start()
	c.switchDir.Start()

	locos, cancelLocos := c.loco.Subscribe()
	groups, cancelGroups := c.switches.Subscribe()
	locoServers, cancelLocoServers := c.locoDir.Subscribe()
	switchServers, cancelSwitchServers := c.switchDir.Subscribe()

	go forward(ctx, locos, cancelLocos, c.store.UpdateLocomotive)
	go forward(ctx, groups, cancelGroups, c.store.UpdateSwitches)
	go forward(ctx, locoServers, cancelLocoServers, func(list []railroad.Server) {
		c.store.UpdateServers(state.SourceLocomotiveDirectory, list)
		c.loop.Post(c.pruneLocomotive)
	})
	go forward(ctx, switchServers, cancelSwitchServers, func(list []railroad.Server) {
		c.store.UpdateServers(state.SourceSwitchDirectory, list)
		c.loop.Post(c.pruneSwitches)
	})

	c.logger.Info("controller started")
	return c.loop.Run(ctx)
}

// forward copies every value from ch into apply until ctx ends or ch closes.
func forward[T any](ctx context.Context, ch <-chan T, cancel func(), apply func(T)) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-ch:
			if !ok {
				return
			}
			apply(v)
		}
	}
}

// SelectLocomotive points the locomotive proxy at the listed server id and
// arms the control session when one is configured.
func (c *Controller) SelectLocomotive(id string) {
	c.loop.Post(func() {
		server, ok := c.locoDir.Lookup(id)
		if !ok {
			c.logger.Warn("locomotive server not listed", zap.String("server", id))
			return
		}
		c.loco.Select(&server)
		c.store.SetSelection(state.SourceLocomotive, server.ID)
		if c.session > 0 {
			c.countdown.Start(c.session)
			c.store.SetSessionDeadline(c.sessionTime().Add(c.session))
		}
	})
}

// DeselectLocomotive stops polling the locomotive server.
func (c *Controller) DeselectLocomotive() {
	c.loop.Post(c.deselectLocomotive)
}

// SelectSwitches points the switch proxy at the listed server id.
func (c *Controller) SelectSwitches(id string) {
	c.loop.Post(func() {
		server, ok := c.switchDir.Lookup(id)
		if !ok {
			c.logger.Warn("switch server not listed", zap.String("server", id))
			return
		}
		c.switches.Select(&server)
		c.store.SetSelection(state.SourceSwitch, server.ID)
	})
}

// DeselectSwitches stops polling the switch server.
func (c *Controller) DeselectSwitches() {
	c.loop.Post(c.deselectSwitches)
}

// ChangeSpeed adds delta to the current speed, clamped to 0..MaxSpeed.
func (c *Controller) ChangeSpeed(delta int) {
	c.loop.Post(func() {
		speed := c.loco.Speed() + delta
		if speed < 0 {
			speed = 0
		}
		if speed > MaxSpeed {
			speed = MaxSpeed
		}
		c.loco.SetSpeed(speed)
	})
}

// Stop sets the speed to zero.
func (c *Controller) Stop() {
	c.loop.Post(func() { c.loco.SetSpeed(0) })
}

// SetDirection changes the travel direction.
func (c *Controller) SetDirection(d railroad.Direction) {
	c.loop.Post(func() { c.loco.SetDirection(d) })
}

// ToggleHeadLight switches the head light.
func (c *Controller) ToggleHeadLight() {
	c.loop.Post(func() { c.loco.SetHeadLight(!c.loco.HeadLight()) })
}

// ToggleCabineLighting switches the cabin light.
func (c *Controller) ToggleCabineLighting() {
	c.loop.Post(func() { c.loco.SetCabineLighting(!c.loco.CabineLighting()) })
}

// ToggleHornSound switches the horn.
func (c *Controller) ToggleHornSound() {
	c.loop.Post(func() { c.loco.SetHornSound(!c.loco.HornSound()) })
}

// ToggleDrivingSound switches the driving sound.
func (c *Controller) ToggleDrivingSound() {
	c.loop.Post(func() { c.loco.SetDrivingSound(!c.loco.DrivingSound()) })
}

// ToggleTrack flips switch n (1-based) of the selected switch group.
func (c *Controller) ToggleTrack(n int) {
	c.loop.Post(func() {
		if err := c.switches.ToggleTrack(n); err != nil {
			c.logger.Warn("toggle track", zap.Int("track", n), zap.Error(err))
		}
	})
}

func (c *Controller) deselectLocomotive() {
	c.loco.Select(nil)
	c.countdown.Stop()
	c.store.SetSelection(state.SourceLocomotive, "")
	c.store.SetSessionDeadline(time.Time{})
}

func (c *Controller) deselectSwitches() {
	c.switches.Select(nil)
	c.store.SetSelection(state.SourceSwitch, "")
}

// pruneLocomotive drops the selection once the directory stops listing it.
func (c *Controller) pruneLocomotive() {
	selected, ok := c.loco.Selected()
	if !ok {
		return
	}
	if _, listed := c.locoDir.Lookup(selected.ID); !listed {
		c.logger.Info("selected locomotive left the directory", zap.String("server", selected.ID))
		c.deselectLocomotive()
	}
}

func (c *Controller) pruneSwitches() {
	selected, ok := c.switches.Selected()
	if !ok {
		return
	}
	if _, listed := c.switchDir.Lookup(selected.ID); !listed {
		c.logger.Info("selected switch group left the directory", zap.String("server", selected.ID))
		c.deselectSwitches()
	}
}

// sessionExpired runs after the countdown stopped the locomotive. Control
// is withdrawn until a locomotive is selected again.
func (c *Controller) sessionExpired() {
	c.logger.Info("control session expired")
	c.deselectLocomotive()
}
