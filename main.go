// Package main provides the payload sighting tracker application
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/micutio/sondespottr/internal"
	"github.com/micutio/sondespottr/tickerapp"
	"github.com/micutio/sondespottr/tuiapp"
	"github.com/spf13/pflag"
)

const (
	// thisAppName is the name of this application as shown on notifications.
	thisAppName = "sondespottr"
	latLonLen   = 2
)

type cliArgs struct {
	isUseTicker     bool
	configPath      string
	databaseFile    string
	reportThreshold string
	flushThreshold  string
	source          string
	pollURL         string
	pollInterval    string
	natsURL         string
	natsSubject     string
	websocketURL    string
	discordWebhook  string
	desktop         bool
	latLon          []float32
	verbose         bool
	logFile         string
}

func main() {
	var args cliArgs

	setupCommandLineFlags(pflag.CommandLine, &args)

	// Parse all arguments provided to the program on launch.
	pflag.Parse()

	cfg, err := buildConfig(&args, pflag.CommandLine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", thisAppName, err)
		os.Exit(1)
	}

	if args.isUseTicker {
		tickerapp.Run(thisAppName, cfg)
	} else {
		tuiapp.Run(thisAppName, cfg)
	}
}

func setupCommandLineFlags(flags *pflag.FlagSet, args *cliArgs) {
	defaults := internal.DefaultConfig()

	// Whether to launch the Ticker or TUI app.
	flags.BoolVarP(
		&args.isUseTicker,
		"ticker",
		"t",
		false,
		"print sighting reports on the command line without TUI")
	flags.Lookup("ticker").NoOptDefVal = "true"

	flags.StringVarP(&args.configPath, "config", "c", "", "YAML config file, flags take precedence")
	flags.StringVar(&args.databaseFile, "db", defaults.DatabaseFile, "file to keep the last sighting of every payload in")
	flags.StringVar(&args.reportThreshold, "report-threshold", defaults.ReportThreshold.String(),
		"report a payload again after it has not been seen for this long")
	flags.StringVar(&args.flushThreshold, "flush-threshold", defaults.FlushThreshold.String(),
		"write the database when a payload shows up after being quiet for this long")
	flags.StringVarP(&args.source, "source", "s", defaults.Source,
		fmt.Sprintf("telemetry source, one of %s, %s, %s",
			internal.SourcePoll, internal.SourceNATS, internal.SourceWebsocket))
	flags.StringVar(&args.pollURL, "poll-url", defaults.PollURL, "telemetry API polled by the poll source")
	flags.StringVar(&args.pollInterval, "poll-interval", defaults.PollInterval.String(), "how often to poll")
	flags.StringVar(&args.natsURL, "nats-url", defaults.NATSURL, "NATS server of the nats source")
	flags.StringVar(&args.natsSubject, "nats-subject", defaults.NATSSubject, "NATS subject carrying telemetry")
	flags.StringVar(&args.websocketURL, "ws-url", defaults.WebsocketURL, "telemetry stream of the websocket source")
	flags.StringVar(&args.discordWebhook, "discord-webhook", defaults.DiscordWebhook,
		"post reports to this Discord webhook")
	flags.BoolVar(&args.desktop, "desktop", defaults.Desktop, "raise a desktop notification for every report")

	// Location of the listener, provided as lat,lon coordinates
	flags.Float32SliceVarP(
		&args.latLon,
		"latlon",
		"l",
		[]float32{},
		"listener location, adds distance and direction to reports")

	flags.BoolVarP(&args.verbose, "verbose", "v", defaults.Verbose, "enable debug logging")
	flags.StringVar(&args.logFile, "log-file", defaults.LogFile, "log file used while the TUI is running")
}

// buildConfig layers defaults, the config file, explicitly set flags and the environment.
func buildConfig(args *cliArgs, flags *pflag.FlagSet) (internal.Config, error) {
	cfg := internal.DefaultConfig()

	if args.configPath != "" {
		if err := internal.LoadConfigFile(args.configPath, &cfg); err != nil {
			return cfg, err
		}
	}

	var errs []error
	setDuration := func(name, value string, dest *time.Duration) {
		if !flags.Changed(name) {
			return
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("--%s: %w", name, err))
			return
		}
		*dest = parsed
	}
	setString := func(name, value string, dest *string) {
		if flags.Changed(name) {
			*dest = value
		}
	}

	setString("db", args.databaseFile, &cfg.DatabaseFile)
	setDuration("report-threshold", args.reportThreshold, &cfg.ReportThreshold)
	setDuration("flush-threshold", args.flushThreshold, &cfg.FlushThreshold)
	setString("source", args.source, &cfg.Source)
	setString("poll-url", args.pollURL, &cfg.PollURL)
	setDuration("poll-interval", args.pollInterval, &cfg.PollInterval)
	setString("nats-url", args.natsURL, &cfg.NATSURL)
	setString("nats-subject", args.natsSubject, &cfg.NATSSubject)
	setString("ws-url", args.websocketURL, &cfg.WebsocketURL)
	setString("discord-webhook", args.discordWebhook, &cfg.DiscordWebhook)
	setString("log-file", args.logFile, &cfg.LogFile)

	if flags.Changed("desktop") {
		cfg.Desktop = args.desktop
	}
	if flags.Changed("verbose") {
		cfg.Verbose = args.verbose
	}
	if flags.Changed("latlon") {
		if len(args.latLon) != latLonLen {
			errs = append(errs, fmt.Errorf("--latlon: %w: expected lat,lon", internal.ErrInvalidConfig))
		} else {
			listener := internal.NewCoordinates(float64(args.latLon[0]), float64(args.latLon[1]))
			cfg.Listener = &listener
		}
	}

	if err := errors.Join(errs...); err != nil {
		return cfg, err
	}

	cfg.ApplyEnvOverrides()

	return cfg, cfg.Validate()
}
