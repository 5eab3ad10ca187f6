package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// See https://github.com/projecthorus/sondehub-infra/wiki/Amateur-Telemetry-Format
// for a description of the fields.

const (
	// fieldCallsign is the only field a telemetry frame must carry.
	fieldCallsign  = "payload_callsign"
	fieldAltitude  = "alt"
	fieldLatitude  = "lat"
	fieldLongitude = "lon"
	fieldDatetime  = "datetime"
	fieldUploader  = "uploader_callsign"
	fieldFrequency = "frequency"
	// altitudeUnknown is what we show for frames without an altitude.
	altitudeUnknown = "  n/a"
)

var (
	ErrMissingCallsign    = errors.New("telemetry has no payload callsign")
	ErrMalformedTelemetry = errors.New("malformed telemetry")
)

// TelemetryEvent is a single telemetry frame received for a payload.
// Only the callsign is interpreted by the tracker, everything else is passed
// through to the notifiers untouched.
type TelemetryEvent struct {
	PayloadCallsign string
	Fields          map[string]any
}

// NewTelemetryEvent wraps an already decoded frame.
func NewTelemetryEvent(fields map[string]any) (TelemetryEvent, error) {
	callsign, _ := fields[fieldCallsign].(string)
	callsign = strings.TrimSpace(callsign)
	if callsign == "" {
		return TelemetryEvent{}, ErrMissingCallsign
	}

	return TelemetryEvent{PayloadCallsign: callsign, Fields: fields}, nil
}

// ParseTelemetry decodes one JSON telemetry frame.
func ParseTelemetry(data []byte) (TelemetryEvent, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return TelemetryEvent{}, fmt.Errorf("parseTelemetry: %w: %w", ErrMalformedTelemetry, err)
	}

	event, err := NewTelemetryEvent(fields)
	if err != nil {
		return TelemetryEvent{}, fmt.Errorf("parseTelemetry: %w", err)
	}

	return event, nil
}

// ParseTelemetryBatch decodes either a single frame or a JSON array of frames.
// Frames without a callsign are skipped and reported through the returned error,
// the valid ones are still returned.
func ParseTelemetryBatch(data []byte) ([]TelemetryEvent, error) {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "[") {
		event, err := ParseTelemetry(data)
		if err != nil {
			return nil, err
		}
		return []TelemetryEvent{event}, nil
	}

	var frames []map[string]any
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("parseTelemetryBatch: %w: %w", ErrMalformedTelemetry, err)
	}

	events := make([]TelemetryEvent, 0, len(frames))
	skipped := 0
	for _, frame := range frames {
		event, err := NewTelemetryEvent(frame)
		if err != nil {
			skipped++
			continue
		}
		events = append(events, event)
	}

	if skipped > 0 {
		return events, fmt.Errorf("parseTelemetryBatch: %d frames: %w", skipped, ErrMissingCallsign)
	}

	return events, nil
}

// Float returns a numeric field. SondeHub uploaders are not consistent, so
// numbers encoded as strings are accepted as well.
func (e TelemetryEvent) Float(key string) (float64, bool) {
	switch value := e.Fields[key].(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case json.Number:
		f, err := value.Float64()
		return f, err == nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f, true
		}
	}

	return 0, false
}

// String returns a string field or the empty string.
func (e TelemetryEvent) String(key string) string {
	value, _ := e.Fields[key].(string)
	return value
}

// Altitude returns the altitude in [m], if the frame carries one.
func (e TelemetryEvent) Altitude() (float64, bool) {
	return e.Float(fieldAltitude)
}

// Position returns the payload position in [decimal degrees].
func (e TelemetryEvent) Position() (Coordinates, bool) {
	lat, latOk := e.Float(fieldLatitude)
	lon, lonOk := e.Float(fieldLongitude)
	if !latOk || !lonOk {
		return Coordinates{}, false
	}

	return newCoordinates(lat, lon), true
}

// Datetime is the time of the frame as reported by the payload.
func (e TelemetryEvent) Datetime() string {
	return e.String(fieldDatetime)
}

// Uploader is the callsign of the station which received the frame.
func (e TelemetryEvent) Uploader() string {
	return e.String(fieldUploader)
}

// GetAltitudeAsStr formats the altitude without decimal places, or returns a
// placeholder if the frame has none.
func (e TelemetryEvent) GetAltitudeAsStr() string {
	if alt, ok := e.Altitude(); ok {
		return fmt.Sprintf("%5.0f", alt)
	}

	return altitudeUnknown
}

// GetFrequencyAsStr returns the receive frequency in MHz, if known.
func (e TelemetryEvent) GetFrequencyAsStr() string {
	if freq, ok := e.Float(fieldFrequency); ok {
		return fmt.Sprintf("%.3f MHz", freq)
	}

	return ""
}
