package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/railcab/internal/config"
	"github.com/five82/railcab/internal/railroad"
	"github.com/five82/railcab/internal/state"
	"github.com/five82/railcab/internal/ui"
)

// Options configure the railcab application.
type Options struct {
	ConfigPath string
	PollEvery  int           // seconds; zero uses the config value
	Session    time.Duration // zero uses the config value
}

// Run boots the railcab console until the context is cancelled or the user
// quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load railcab config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}
	if opts.Session > 0 {
		cfg.Session = opts.Session
	}

	logger, err := newLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := railroad.NewClient(cfg.RequestTimeout, logger)
	if err != nil {
		return fmt.Errorf("init railroad client: %w", err)
	}

	store := &state.Store{}
	controller := NewController(controllerConfig(cfg), client, store, logger)

	logger.Info("railcab starting",
		zap.String("locomotive_directory", cfg.LocomotiveDirectory),
		zap.String("switch_directory", cfg.SwitchDirectory),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Duration("session", cfg.Session))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return controller.Run(ctx)
	})
	g.Go(func() error {
		// Quitting the console ends the loop as well.
		defer cancel()
		return ui.Run(ui.Options{
			Context:  ctx,
			Store:    store,
			Actions:  controller,
			PollTick: time.Second,
			LogFile:  cfg.LogFile,
		})
	})

	err = g.Wait()
	logger.Info("railcab stopped", zap.Error(err))
	return err
}

func controllerConfig(cfg config.Config) ControllerConfig {
	return ControllerConfig{
		LocomotiveDirectory: cfg.LocomotiveDirectory,
		SwitchDirectory:     cfg.SwitchDirectory,
		PollInterval:        cfg.PollInterval,
		DirectoryInterval:   cfg.DirectoryInterval,
		Workers:             cfg.Workers,
		ConflictRetries:     cfg.ConflictRetries,
		Session:             cfg.Session,
	}
}
