package internal

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	// DefaultLogFile receives structured logs while the TUI owns the terminal.
	DefaultLogFile = "sondespottr.log"
	// envDiscordWebhook keeps the webhook secret out of config files and shell history.
	envDiscordWebhook = "SONDESPOTTR_DISCORD_WEBHOOK"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrReadConfig    = errors.New("failed to read config file")
)

// Config holds everything needed to run the tracker and its collaborators.
type Config struct {
	DatabaseFile    string
	ReportThreshold time.Duration
	FlushThreshold  time.Duration
	Source          string
	PollURL         string
	PollInterval    time.Duration
	NATSURL         string
	NATSSubject     string
	WebsocketURL    string
	DiscordWebhook  string
	Desktop         bool
	Listener        *Coordinates
	Verbose         bool
	LogFile         string
}

// fileConfig mirrors the YAML config file. Unset fields keep their defaults.
type fileConfig struct {
	DatabaseFile    string `yaml:"database_file"`
	ReportThreshold string `yaml:"report_threshold"`
	FlushThreshold  string `yaml:"flush_threshold"`
	Source          string `yaml:"source"`
	Poll            struct {
		URL      string `yaml:"url"`
		Interval string `yaml:"interval"`
	} `yaml:"poll"`
	NATS struct {
		URL     string `yaml:"url"`
		Subject string `yaml:"subject"`
	} `yaml:"nats"`
	Websocket struct {
		URL string `yaml:"url"`
	} `yaml:"websocket"`
	DiscordWebhook string `yaml:"discord_webhook"`
	Desktop        *bool  `yaml:"desktop"`
	Listener       *struct {
		Lat float64 `yaml:"lat"`
		Lon float64 `yaml:"lon"`
	} `yaml:"listener"`
	Verbose *bool  `yaml:"verbose"`
	LogFile string `yaml:"log_file"`
}

// DefaultConfig returns the configuration used when nothing else is given.
func DefaultConfig() Config {
	return Config{
		DatabaseFile:    DefaultDatabaseFile,
		ReportThreshold: DefaultReportThreshold,
		FlushThreshold:  DefaultFlushThreshold,
		Source:          SourcePoll,
		PollURL:         DefaultPollURL,
		PollInterval:    DefaultPollInterval,
		NATSURL:         DefaultNATSURL,
		NATSSubject:     DefaultNATSSubject,
		WebsocketURL:    "",
		DiscordWebhook:  "",
		Desktop:         false,
		Listener:        nil,
		Verbose:         false,
		LogFile:         DefaultLogFile,
	}
}

// LoadConfigFile overlays the YAML file at path onto cfg.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("loadConfigFile: %w: %w", ErrReadConfig, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("loadConfigFile: %w: %w", ErrReadConfig, err)
	}

	return file.apply(cfg)
}

func (f *fileConfig) apply(cfg *Config) error {
	setString(&cfg.DatabaseFile, f.DatabaseFile)
	setString(&cfg.Source, f.Source)
	setString(&cfg.PollURL, f.Poll.URL)
	setString(&cfg.NATSURL, f.NATS.URL)
	setString(&cfg.NATSSubject, f.NATS.Subject)
	setString(&cfg.WebsocketURL, f.Websocket.URL)
	setString(&cfg.DiscordWebhook, f.DiscordWebhook)
	setString(&cfg.LogFile, f.LogFile)

	durations := []struct {
		name  string
		value string
		dest  *time.Duration
	}{
		{"report_threshold", f.ReportThreshold, &cfg.ReportThreshold},
		{"flush_threshold", f.FlushThreshold, &cfg.FlushThreshold},
		{"poll.interval", f.Poll.Interval, &cfg.PollInterval},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("apply: %w: %s: %w", ErrInvalidConfig, d.name, err)
		}
		*d.dest = parsed
	}

	if f.Desktop != nil {
		cfg.Desktop = *f.Desktop
	}
	if f.Verbose != nil {
		cfg.Verbose = *f.Verbose
	}
	if f.Listener != nil {
		listener := NewCoordinates(f.Listener.Lat, f.Listener.Lon)
		cfg.Listener = &listener
	}

	return nil
}

func setString(dest *string, value string) {
	if value != "" {
		*dest = value
	}
}

// ApplyEnvOverrides reads settings which are better kept out of files.
func (c *Config) ApplyEnvOverrides() {
	if webhook := os.Getenv(envDiscordWebhook); webhook != "" {
		c.DiscordWebhook = webhook
	}
}

// Validate checks the configuration for values the tracker can't work with.
func (c *Config) Validate() error {
	if c.DatabaseFile == "" {
		return fmt.Errorf("validate: %w: database file must be set", ErrInvalidConfig)
	}
	if c.ReportThreshold <= 0 {
		return fmt.Errorf("validate: %w: report threshold must be positive, got %s", ErrInvalidConfig, c.ReportThreshold)
	}
	if c.FlushThreshold <= 0 {
		return fmt.Errorf("validate: %w: flush threshold must be positive, got %s", ErrInvalidConfig, c.FlushThreshold)
	}

	switch c.Source {
	case SourcePoll:
		if c.PollInterval <= 0 {
			return fmt.Errorf("validate: %w: poll interval must be positive", ErrInvalidConfig)
		}
	case SourceNATS:
		if c.NATSSubject == "" {
			return fmt.Errorf("validate: %w: nats subject must be set", ErrInvalidConfig)
		}
	case SourceWebsocket:
		if c.WebsocketURL == "" {
			return fmt.Errorf("validate: %w: %w", ErrInvalidConfig, ErrNoWebsocketURL)
		}
	default:
		return fmt.Errorf("validate: %w: %w %q", ErrInvalidConfig, ErrUnknownSource, c.Source)
	}

	if c.Listener != nil {
		if c.Listener.Latitude < -90 || c.Listener.Latitude > 90 ||
			c.Listener.Longitude < -180 || c.Listener.Longitude > 180 {
			return fmt.Errorf("validate: %w: listener location out of range", ErrInvalidConfig)
		}
	}

	return nil
}
