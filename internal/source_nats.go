package internal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	DefaultNATSURL     = nats.DefaultURL
	DefaultNATSSubject = "sondehub.amateur.telemetry"
	natsReconnectWait  = 2 * time.Second
)

// NATSSource receives telemetry frames, one JSON object or array per message,
// from a NATS subject.
type NATSSource struct {
	url     string
	subject string
	logger  *slog.Logger

	mu   sync.Mutex
	nc   *nats.Conn
	sub  *nats.Subscription
	stop context.CancelFunc
}

func NewNATSSource(url, subject string, logger *slog.Logger) *NATSSource {
	if url == "" {
		url = DefaultNATSURL
	}
	if subject == "" {
		subject = DefaultNATSSubject
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &NATSSource{url: url, subject: subject, logger: logger}
}

func (s *NATSSource) Start(ctx context.Context, handler EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nc != nil {
		return ErrSourceStarted
	}

	nc, err := nats.Connect(s.url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			s.logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			s.logger.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("natsSource: connect to %s: %w", s.url, err)
	}

	// Messages of one subscription are delivered sequentially on a single
	// goroutine, so the handler never runs concurrently with itself.
	sub, err := nc.Subscribe(s.subject, func(msg *nats.Msg) {
		s.handleMessage(msg.Data, handler)
	})
	if err != nil {
		nc.Close()
		return fmt.Errorf("natsSource: subscribe to %s: %w", s.subject, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	s.nc = nc
	s.sub = sub
	s.stop = cancel

	s.logger.Info("subscribed to telemetry", "url", s.url, "subject", s.subject)
	return nil
}

func (s *NATSSource) handleMessage(data []byte, handler EventHandler) {
	events, err := ParseTelemetryBatch(data)
	if err != nil {
		s.logger.Warn("skipping telemetry message", "subject", s.subject, "error", err)
	}

	for _, event := range events {
		handler(event)
	}
}

// Close unsubscribes and drains the connection, so a message being handled
// right now is finished first.
func (s *NATSSource) Close() error {
	s.mu.Lock()
	nc, sub, stop := s.nc, s.sub, s.stop
	s.nc, s.sub, s.stop = nil, nil, nil
	s.mu.Unlock()

	if nc == nil {
		return nil
	}
	stop()

	var unsubErr error
	if sub != nil {
		unsubErr = sub.Unsubscribe()
	}

	if err := nc.Drain(); err != nil {
		nc.Close()
		return fmt.Errorf("natsSource: drain: %w", err)
	}

	if unsubErr != nil {
		return fmt.Errorf("natsSource: unsubscribe: %w", unsubErr)
	}
	return nil
}
