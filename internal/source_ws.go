package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsReconnectDelay = 5 * time.Second

var ErrNoWebsocketURL = errors.New("no websocket URL configured")

// WebsocketSource reads telemetry frames from a WebSocket stream. Every text
// message carries one JSON frame or an array of frames. The connection is
// re-established after a delay whenever it drops.
type WebsocketSource struct {
	url            string
	reconnectDelay time.Duration
	dialer         *websocket.Dialer
	logger         *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWebsocketSource(url string, logger *slog.Logger) *WebsocketSource {
	if logger == nil {
		logger = slog.Default()
	}

	return &WebsocketSource{
		url:            url,
		reconnectDelay: wsReconnectDelay,
		dialer:         websocket.DefaultDialer,
		logger:         logger,
	}
}

func (s *WebsocketSource) Start(ctx context.Context, handler EventHandler) error {
	if s.url == "" {
		return ErrNoWebsocketURL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrSourceStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, handler)
	}()

	return nil
}

func (s *WebsocketSource) run(ctx context.Context, handler EventHandler) {
	for {
		err := s.connectAndConsume(ctx, handler)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.logger.Error("telemetry websocket disconnected", "error", err, "url", s.url)
		}

		s.logger.Info("reconnecting to telemetry websocket", "in", s.reconnectDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *WebsocketSource) connectAndConsume(ctx context.Context, handler EventHandler) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("websocketSource: dial: %w", err)
	}
	defer conn.Close()

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
	}()

	// ReadMessage doesn't watch ctx. Closing the connection unblocks it, also
	// when Close ran before conn was published.
	stopWatch := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stopWatch()

	s.logger.Info("connected to telemetry websocket", "url", s.url)

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("websocketSource: read: %w", err)
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		events, err := ParseTelemetryBatch(msg)
		if err != nil {
			s.logger.Warn("skipping telemetry message", "error", err)
		}

		for _, event := range events {
			handler(event)
		}
	}
}

// Close stops the reconnect loop and closes the current connection.
func (s *WebsocketSource) Close() error {
	s.mu.Lock()
	cancel, conn := s.cancel, s.conn
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	if conn != nil {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}

	s.wg.Wait()
	return nil
}
