package internal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

const pollResponse = `{
	"VK5ARG-1": {
		"2024-01-01T00:00:00.000000Z": {"payload_callsign": "VK5ARG-1", "alt": 100},
		"2024-01-01T00:00:10.000000Z": {"payload_callsign": "VK5ARG-1", "alt": 200}
	},
	"HORUS-V2": {
		"2024-01-01T00:00:05.000000Z": {"alt": 300}
	}
}`

func TestParsePollResponse(t *testing.T) {
	events, err := parsePollResponse([]byte(pollResponse))
	if err != nil {
		t.Fatalf("parsePollResponse() error = %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].PayloadCallsign != "HORUS-V2" || events[1].PayloadCallsign != "VK5ARG-1" {
		t.Errorf("callsigns = %q, %q; want sorted", events[0].PayloadCallsign, events[1].PayloadCallsign)
	}
	if alt, _ := events[1].Altitude(); alt != 200 {
		t.Errorf("VK5ARG-1 altitude = %v, want the newest frame", alt)
	}
}

func TestParsePollResponse_Malformed(t *testing.T) {
	if _, err := parsePollResponse([]byte(`["not", "a", "map"]`)); !errors.Is(err, ErrMalformedTelemetry) {
		t.Errorf("parsePollResponse() error = %v, want %v", err, ErrMalformedTelemetry)
	}
}

func TestPollSource_SendRequest(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantErr     error
	}{
		{"ok", http.StatusOK, "application/json", pollResponse, nil},
		{"server error", http.StatusInternalServerError, "application/json", "{}", ErrNonOkResponse},
		{"html", http.StatusOK, "text/html", "<html></html>", ErrNonJSONContent},
		{"empty", http.StatusOK, "application/json", "", ErrEmptyResponseBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			source := NewPollSource(server.URL, time.Minute, discardLogger())
			body, err := source.sendRequest(context.Background())

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("sendRequest() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || string(body) != tt.body {
				t.Errorf("sendRequest() = %q, %v", body, err)
			}
		})
	}
}

func TestPollSource_StartDeliversAndCloses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(pollResponse))
	}))
	defer server.Close()

	var (
		mu       sync.Mutex
		received []string
	)
	done := make(chan struct{})

	source := NewPollSource(server.URL, time.Hour, discardLogger())
	err := source.Start(context.Background(), func(event TelemetryEvent) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event.PayloadCallsign)
		if len(received) == 2 {
			close(done)
		}
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := source.Start(context.Background(), func(TelemetryEvent) {}); !errors.Is(err, ErrSourceStarted) {
		t.Errorf("second Start() error = %v, want %v", err, ErrSourceStarted)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the initial poll")
	}

	if err := source.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Errorf("received %v, want exactly one poll", received)
	}
}

func TestPollSource_CloseBeforeStart(t *testing.T) {
	if err := NewPollSource("", 0, nil).Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
