package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"trophyroom/logging"
	"trophyroom/metrics"
	"trophyroom/updater"
)

const defaultMetricsPort = 9187

func handleWatchCommand(ctx context.Context, args []string) {
	port := defaultMetricsPort
	for i := 0; i < len(args); i++ {
		if args[i] == "--port" && i+1 < len(args) {
			p, err := strconv.Atoi(args[i+1])
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Error: bad port %q\n", args[i+1])
				os.Exit(1)
			}
			port = p
			i++
		}
	}

	a := openApp(ctx)
	defer a.Close()

	if !cfg.PeriodicUpdates {
		logging.Warn("periodic updates are disabled in config; watch will idle")
	}

	u := updater.New(a.orchestrator, a.cache, cfg.PeriodicUpdates, cfg.GetPeriodicUpdateHours())
	u.Start()

	metrics.Serve(port)
	PrintInfo("watching; metrics on :%d, update interval %dh\n", port, cfg.GetPeriodicUpdateHours())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logging.Info("shutting down")
	u.Stop()
}
