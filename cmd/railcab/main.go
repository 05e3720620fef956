package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/railcab/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override railcab config path (optional)")
	pollSeconds := flag.Int("poll", 0, "poll interval in seconds (optional, defaults to 2s)")
	session := flag.Duration("session", 0, "control session length, e.g. 5m (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{ConfigPath: *configPath}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}
	if *session > 0 {
		opts.Session = *session
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "railcab: %v\n", err)
		return 1
	}
	return 0
}
