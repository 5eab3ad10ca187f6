package internal

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseTelemetry(t *testing.T) {
	event, err := ParseTelemetry([]byte(`{
		"payload_callsign": " VK5ARG-1 ",
		"alt": 11234.7,
		"lat": -34.9,
		"lon": "138.6",
		"frequency": 434.2,
		"uploader_callsign": "VK5QI",
		"datetime": "2024-01-01T00:00:00.000000Z"
	}`))
	if err != nil {
		t.Fatalf("ParseTelemetry() error = %v", err)
	}

	if event.PayloadCallsign != "VK5ARG-1" {
		t.Errorf("PayloadCallsign = %q", event.PayloadCallsign)
	}
	if got := event.GetAltitudeAsStr(); got != "11235" {
		t.Errorf("GetAltitudeAsStr() = %q", got)
	}
	if got := event.GetFrequencyAsStr(); got != "434.200 MHz" {
		t.Errorf("GetFrequencyAsStr() = %q", got)
	}
	if event.Uploader() != "VK5QI" {
		t.Errorf("Uploader() = %q", event.Uploader())
	}
	if event.Datetime() != "2024-01-01T00:00:00.000000Z" {
		t.Errorf("Datetime() = %q", event.Datetime())
	}

	pos, ok := event.Position()
	if !ok {
		t.Fatal("Position() not available")
	}
	if pos.Latitude != -34.9 || pos.Longitude != 138.6 {
		t.Errorf("Position() = %+v", pos)
	}
}

func TestParseTelemetry_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"not json", `payload`, ErrMalformedTelemetry},
		{"array", `[1, 2]`, ErrMalformedTelemetry},
		{"no callsign", `{"alt": 100}`, ErrMissingCallsign},
		{"blank callsign", `{"payload_callsign": "  "}`, ErrMissingCallsign},
		{"callsign not a string", `{"payload_callsign": 42}`, ErrMissingCallsign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTelemetry([]byte(tt.data)); !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseTelemetry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseTelemetryBatch(t *testing.T) {
	events, err := ParseTelemetryBatch([]byte(`[
		{"payload_callsign": "A"},
		{"alt": 5},
		{"payload_callsign": "B"}
	]`))
	if !errors.Is(err, ErrMissingCallsign) {
		t.Errorf("ParseTelemetryBatch() error = %v, want %v", err, ErrMissingCallsign)
	}
	if len(events) != 2 || events[0].PayloadCallsign != "A" || events[1].PayloadCallsign != "B" {
		t.Errorf("ParseTelemetryBatch() = %+v, want A and B", events)
	}

	single, err := ParseTelemetryBatch([]byte(` {"payload_callsign": "C"}`))
	if err != nil || len(single) != 1 || single[0].PayloadCallsign != "C" {
		t.Errorf("ParseTelemetryBatch(single) = %+v, %v", single, err)
	}

	if _, err := ParseTelemetryBatch([]byte(`[{"payload_callsign": `)); !errors.Is(err, ErrMalformedTelemetry) {
		t.Errorf("ParseTelemetryBatch(truncated) error = %v, want %v", err, ErrMalformedTelemetry)
	}
}

func TestTelemetryEvent_Float(t *testing.T) {
	event := TelemetryEvent{Fields: map[string]any{
		"f":      1.5,
		"i":      3,
		"n":      json.Number("2.25"),
		"s":      " 7.5 ",
		"bad":    "7.5km",
		"bool":   true,
		"absent": nil,
	}}

	tests := []struct {
		key    string
		want   float64
		wantOk bool
	}{
		{"f", 1.5, true},
		{"i", 3, true},
		{"n", 2.25, true},
		{"s", 7.5, true},
		{"bad", 0, false},
		{"bool", 0, false},
		{"absent", 0, false},
		{"unknown", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := event.Float(tt.key)
			if got != tt.want || ok != tt.wantOk {
				t.Errorf("Float(%q) = %v, %v; want %v, %v", tt.key, got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestTelemetryEvent_MissingFields(t *testing.T) {
	event, err := NewTelemetryEvent(map[string]any{"payload_callsign": "X", "lat": 1.0})
	if err != nil {
		t.Fatalf("NewTelemetryEvent() error = %v", err)
	}

	if got := event.GetAltitudeAsStr(); got != altitudeUnknown {
		t.Errorf("GetAltitudeAsStr() = %q, want %q", got, altitudeUnknown)
	}
	if got := event.GetFrequencyAsStr(); got != "" {
		t.Errorf("GetFrequencyAsStr() = %q, want empty", got)
	}
	if _, ok := event.Position(); ok {
		t.Error("Position() available without longitude")
	}
}
