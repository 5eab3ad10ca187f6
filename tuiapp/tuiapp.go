// Package tuiapp provides the TUI app which displays the sighting tracker, updates continuously
// and can be interacted with.
// Layout idea:
// +-------------------------------------------------+
// | sondespottr                                     |
// | last update time: 00:00:00                      |
// | Payloads: ... Frames: ... Reports: ... Writes:  |
// | [Payloads]  Reports                             |
// |  _____________________________________________  |
// | | payload table or report table               | |
// | | entry 0                                     | |
// | | ...                                         | |
// | | entry N                                     | |
// |  ---------------------------------------------  |
// +-------------------------------------------------+
// .
package tuiapp

import (
	"context"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/micutio/sondespottr/internal"
)

type Theme struct {
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Green     lipgloss.AdaptiveColor
	Red       lipgloss.AdaptiveColor
}

var Color = Theme{ //nolint:gochecknoglobals // color palette
	Primary:   lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"},
	Secondary: lipgloss.AdaptiveColor{Light: "#969B86", Dark: "#696969"},
	Highlight: lipgloss.AdaptiveColor{Light: "#8b2def", Dark: "#8b2def"},
	Border:    lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"},
	Green:     lipgloss.AdaptiveColor{Light: "#00FF00", Dark: "#00FF00"},
	Red:       lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF0000"},
}

// Run owns the terminal until the user quits. Structured logs go to the log file instead.
func Run(appName string, cfg internal.Config) {
	var logOut io.Writer = io.Discard
	logFile, logFileErr := internal.OpenLogFile(cfg.LogFile)
	if logFileErr == nil {
		defer logFile.Close()
		logOut = logFile
	}

	logParams := internal.LogParams{
		ConsoleOut: io.Discard,
		ErrorOut:   logOut,
		Verbose:    cfg.Verbose,
	}
	logger := logParams.NewLogger()
	if logFileErr != nil {
		// Nothing else can write to the terminal once the TUI runs.
		slog.Error("unable to open log file, logging disabled", slog.Any("error", logFileErr))
	}

	formatter := internal.ReportFormatter{Origin: cfg.Listener}
	notifiers := internal.MultiNotifier{
		internal.NewNotify(appName, logParams.ConsoleOut, formatter, cfg.Desktop),
	}
	if cfg.DiscordWebhook != "" {
		notifiers = append(notifiers, internal.NewDiscordSender(cfg.DiscordWebhook, formatter))
	}

	// The program is created before the tracker so that reports can be forwarded to it. They are
	// only delivered once it runs.
	var program *tea.Program
	forward := internal.NotifierFunc(func(report internal.SightingReport) error {
		return reportNotifier(program).Report(report)
	})
	notifiers = append(notifiers, forward)

	store := internal.NewFileStore(cfg.DatabaseFile, logger)
	tracker := internal.NewTracker(internal.TrackerConfig{
		ReportThreshold: cfg.ReportThreshold,
		FlushThreshold:  cfg.FlushThreshold,
		Now:             nil,
	}, store, notifiers, logger)

	m := newModel(appName, tracker, formatter, logger)
	// Create a new Bubble Tea program with the model and enable alternate screen
	program = tea.NewProgram(m, tea.WithAltScreen())

	source, sourceErr := internal.NewEventSource(cfg, logger)
	if sourceErr != nil {
		logger.Error("unable to create event source, exiting", slog.Any("error", sourceErr))
		slog.Error("unable to create event source", slog.Any("error", sourceErr))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := tracker.Attach(ctx, source); err != nil {
		logger.Error("unable to subscribe to telemetry, exiting", slog.Any("error", err))
		slog.Error("unable to subscribe to telemetry", slog.Any("error", err))
		tracker.Shutdown()
		return
	}

	// Run the program and handle any errors
	if _, err := program.Run(); err != nil {
		logger.Error("error running program", slog.Any("error", err))
	}

	tracker.Shutdown()
}
