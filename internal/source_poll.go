package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultPollURL returns all amateur telemetry of the last few minutes.
	DefaultPollURL = "https://api.v2.sondehub.org/amateur/telemetry?duration=3m"
	// DefaultPollInterval determines how often the telemetry API is queried.
	DefaultPollInterval = 30 * time.Second
	pollTimeout         = 20 * time.Second
)

var (
	ErrNonOkResponse     = errors.New("non-OK response")
	ErrEmptyResponseBody = errors.New("empty response body")
	ErrNonJSONContent    = errors.New("non-JSON content type")
)

// PollSource periodically queries the SondeHub telemetry API and emits the
// newest frame of every payload contained in the response.
type PollSource struct {
	url      string
	interval time.Duration
	client   *http.Client
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPollSource(url string, interval time.Duration, logger *slog.Logger) *PollSource {
	if url == "" {
		url = DefaultPollURL
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PollSource{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: pollTimeout},
		logger:   logger,
	}
}

func (p *PollSource) Start(ctx context.Context, handler EventHandler) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return ErrSourceStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx, handler)
	}()

	p.logger.Info("polling telemetry", "url", p.url, "interval", p.interval)
	return nil
}

func (p *PollSource) run(ctx context.Context, handler EventHandler) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Run once in the beginning.
	p.pollOnce(ctx, handler)

	for {
		select {
		case <-ticker.C:
			p.pollOnce(ctx, handler)
		case <-ctx.Done():
			p.logger.Debug("stopping telemetry poll routine")
			return
		}
	}
}

func (p *PollSource) pollOnce(ctx context.Context, handler EventHandler) {
	body, err := p.sendRequest(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("telemetry poll failed", "error", err)
		}
		return
	}

	events, err := parsePollResponse(body)
	if err != nil {
		p.logger.Warn("telemetry poll returned bad frames", "error", err)
	}

	for _, event := range events {
		if ctx.Err() != nil {
			return
		}
		handler(event)
	}
}

// sendRequest sends an HTTP GET request and returns a valid byte slice of the response body.
func (p *PollSource) sendRequest(ctx context.Context) ([]byte, error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if reqErr != nil {
		return nil, fmt.Errorf("sendRequest: invalid request error: %s : %w", p.url, reqErr)
	}

	resp, respErr := p.client.Do(req)
	if respErr != nil {
		return nil, fmt.Errorf("sendRequest: failed to send GET request: %s: %w", p.url, respErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sendRequest: %w %s", ErrNonOkResponse, resp.Status)
	}

	body, bodyErr := io.ReadAll(resp.Body)
	if bodyErr != nil {
		return nil, fmt.Errorf("sendRequest: failed to read response body: %w", bodyErr)
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("sendRequest: %w", ErrEmptyResponseBody)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return nil, fmt.Errorf("sendRequest: %w, %s", ErrNonJSONContent, contentType)
	}

	return body, nil
}

// parsePollResponse reads the API's {callsign: {datetime: frame}} layout and
// keeps only the newest frame per callsign, ordered by callsign.
func parsePollResponse(body []byte) ([]TelemetryEvent, error) {
	var byCallsign map[string]map[string]map[string]any
	if err := json.Unmarshal(body, &byCallsign); err != nil {
		return nil, fmt.Errorf("parsePollResponse: %w: %w", ErrMalformedTelemetry, err)
	}

	callsigns := make([]string, 0, len(byCallsign))
	for callsign := range byCallsign {
		callsigns = append(callsigns, callsign)
	}
	sort.Strings(callsigns)

	events := make([]TelemetryEvent, 0, len(callsigns))
	var errs []error
	for _, callsign := range callsigns {
		frames := byCallsign[callsign]

		newest := ""
		for datetime := range frames {
			if datetime > newest {
				newest = datetime
			}
		}

		frame := frames[newest]
		if frame == nil {
			continue
		}
		if _, ok := frame[fieldCallsign]; !ok {
			frame[fieldCallsign] = callsign
		}

		event, err := NewTelemetryEvent(frame)
		if err != nil {
			errs = append(errs, fmt.Errorf("parsePollResponse: %s: %w", callsign, err))
			continue
		}
		events = append(events, event)
	}

	return events, errors.Join(errs...)
}

// Close stops polling and waits for an ongoing poll to finish.
func (p *PollSource) Close() error {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	p.wg.Wait()
	return nil
}
