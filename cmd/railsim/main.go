package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/five82/railcab/internal/simulator"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", ":8095", "listen address")
	locomotives := flag.Int("locomotives", 2, "number of simulated locomotives")
	switches := flag.Int("switches", 1, "number of simulated switch groups")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "railsim: init logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sim := simulator.New(simulator.Options{
		Locomotives: *locomotives,
		Switches:    *switches,
		Logger:      logger,
	})
	if err := sim.ListenAndServe(ctx, *addr); err != nil {
		logger.Error("simulator failed", zap.Error(err))
		return 1
	}
	logger.Info("simulator stopped")
	return 0
}
