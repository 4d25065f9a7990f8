package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/handiism/xchina-downloader/internal/app"
	"github.com/handiism/xchina-downloader/internal/config"
	"github.com/handiism/xchina-downloader/internal/logger"
	"github.com/handiism/xchina-downloader/internal/tui"
)

// logCapacity is how many log entries the TUI keeps for its log pane.
const logCapacity = 200

func main() {
	configFlag := flag.String("config", "", "Path to config file")
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, hook := logger.NewCaptured(settings, logCapacity)
	a, err := app.New(ctx, settings, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := tui.Run(settings, a.Manager, hook); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		a.Close()
		os.Exit(1)
	}
}
