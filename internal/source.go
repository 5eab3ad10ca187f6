package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

const (
	SourcePoll      = "poll"
	SourceNATS      = "nats"
	SourceWebsocket = "websocket"
)

var (
	ErrUnknownSource = errors.New("unknown event source")
	ErrSourceStarted = errors.New("event source already started")
)

// EventHandler is invoked once per received telemetry frame.
type EventHandler func(event TelemetryEvent)

// EventSource pushes telemetry frames to a single handler until closed.
type EventSource interface {
	// Start subscribes to the feed. An error means no subscription could be
	// established at all.
	Start(ctx context.Context, handler EventHandler) error
	// Close ends the subscription. Callers treat failures as best effort.
	Close() error
}

// NewEventSource builds the event source selected in cfg.
func NewEventSource(cfg Config, logger *slog.Logger) (EventSource, error) {
	switch cfg.Source {
	case SourcePoll:
		return NewPollSource(cfg.PollURL, cfg.PollInterval, logger), nil
	case SourceNATS:
		return NewNATSSource(cfg.NATSURL, cfg.NATSSubject, logger), nil
	case SourceWebsocket:
		return NewWebsocketSource(cfg.WebsocketURL, logger), nil
	default:
		return nil, fmt.Errorf("newEventSource: %w %q", ErrUnknownSource, cfg.Source)
	}
}
