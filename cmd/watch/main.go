// Package main is a CLI that polls the public status endpoint and prints
// transitions, the same loop the site's player runs in the browser.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pulsecast/backend/pkg/statuswatch"
)

func main() {
	url := flag.String("url", "http://localhost:8080/stream/status", "status endpoint URL")
	interval := flag.Duration("interval", statuswatch.DefaultInterval, "poll interval")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	w, err := statuswatch.New(statuswatch.Config{
		URL:      *url,
		Interval: *interval,
		Logger:   logger,
		OnChange: func(prev, cur *statuswatch.Status) {
			from := "(none)"
			if prev != nil {
				from = prev.Status
			}
			fmt.Printf("%s  %s -> %s\n", time.Now().Format(time.RFC3339), from, cur.Status)
		},
		OnLive: func(cur *statuswatch.Status) {
			fmt.Printf("%s  LIVE: %s (playback %s)\n", time.Now().Format(time.RFC3339), cur.Title, cur.PlaybackID)
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()

	w.Run(ctx)
}
