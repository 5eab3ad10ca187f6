// Package tickerapp launches the ticker application which writes out all sighting reports to
// stdout, so they can be piped into other programs and processed further.
// This is in contrast to the TUI app, which works more like htop.
package tickerapp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/micutio/sondespottr/internal"
)

// SummaryInterval determines how often the list of known payloads is printed.
const SummaryInterval = 1 * time.Hour

func Run(appName string, cfg internal.Config) {
	logParams := internal.LogParams{
		ConsoleOut: os.Stdout,
		ErrorOut:   os.Stderr,
		Verbose:    cfg.Verbose,
	}
	logger := logParams.NewLogger()

	if cfg.Listener != nil {
		fmt.Printf("%s launching at Lat: %.3f, Lon: %.3f\n", appName, cfg.Listener.Latitude, cfg.Listener.Longitude)
	} else {
		fmt.Printf("%s launching\n", appName)
	}

	formatter := internal.ReportFormatter{Origin: cfg.Listener}
	notify := internal.NewNotify(appName, logParams.ConsoleOut, formatter, cfg.Desktop)
	notifiers := internal.MultiNotifier{notify}
	if cfg.DiscordWebhook != "" {
		notifiers = append(notifiers, internal.NewDiscordSender(cfg.DiscordWebhook, formatter))
	}

	store := internal.NewFileStore(cfg.DatabaseFile, logger)
	tracker := internal.NewTracker(internal.TrackerConfig{
		ReportThreshold: cfg.ReportThreshold,
		FlushThreshold:  cfg.FlushThreshold,
		Now:             nil,
	}, store, notifiers, logger)

	source, sourceErr := internal.NewEventSource(cfg, logger)
	if sourceErr != nil {
		logger.Error("unable to create event source, exiting", slog.Any("error", sourceErr))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := tracker.Attach(ctx, source); err != nil {
		logger.Error("unable to subscribe to telemetry, exiting", slog.Any("error", err))
		tracker.Shutdown()
		os.Exit(1) //nolint:gocritic // tracker is shut down explicitly
	}

	// Create a summary ticker that fires in a given interval
	summaryTicker := time.NewTicker(SummaryInterval)
	defer summaryTicker.Stop()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	runLoop(tracker, notify, summaryTicker.C, sigc, logger)
}

// summaryPrinter lists the known payloads on the console.
type summaryPrinter interface {
	PrintSummary(records []internal.SightingRecord, now time.Time)
}

// runLoop prints a summary on every tick until a shutdown signal arrives, then shuts the
// tracker down.
func runLoop(
	tracker *internal.Tracker,
	printer summaryPrinter,
	summaries <-chan time.Time,
	stop <-chan os.Signal,
	logger *slog.Logger,
) {
	for {
		select {
		case now := <-summaries:
			printer.PrintSummary(tracker.Snapshot(), now)
		case <-stop:
			logger.Info("Shutdown signal received, stopping...")
			tracker.Shutdown()
			return
		}
	}
}
