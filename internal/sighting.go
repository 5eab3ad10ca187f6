// Package internal provides the sighting tracker, its state store, event sources and notifiers.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultReportThreshold is how long a payload has to be quiet before its
	// reappearance is reported again.
	DefaultReportThreshold = 12 * time.Hour
	// DefaultFlushThreshold is how stale a known payload has to be before seeing
	// it again forces the database to be written out.
	DefaultFlushThreshold = 1 * time.Hour
	// AgeUnknown marks the report for a payload that has never been seen before.
	AgeUnknown time.Duration = -1
	// ageFirstSighting is the label shown instead of an age for new payloads.
	ageFirstSighting = "first sighting"
	// trackerURL is where the payload can be followed on a map.
	trackerURL = "https://amateur.sondehub.org/"
	day        = 24 * time.Hour
)

// SightingReport is emitted for every sighting that is worth a notification.
type SightingReport struct {
	Callsign string
	Age      time.Duration // Age is AgeUnknown for a first sighting.
	AgeLabel string
	Event    TelemetryEvent
	URL      string
	SeenAt   time.Time
}

// IsFirstSighting is true if the payload was not known before.
func (r SightingReport) IsFirstSighting() bool {
	return r.Age == AgeUnknown
}

// SightingRecord is the last known sighting of a payload.
type SightingRecord struct {
	Callsign string
	LastSeen time.Time
}

// TrackerConfig is fixed at construction time.
type TrackerConfig struct {
	ReportThreshold time.Duration
	FlushThreshold  time.Duration
	// Now returns the current time, defaults to time.Now.
	Now func() time.Time
}

// TrackerStats counts what the tracker has done since start.
type TrackerStats struct {
	Ingested      int
	Reported      int
	Flushes       int
	FailedFlushes int
	Malformed     int
}

// Tracker decides for every incoming telemetry frame whether the payload is
// new, reappearing after a quiet period or was seen recently.
// It is the sole owner of the sighting database.
type Tracker struct {
	mu       sync.Mutex
	config   TrackerConfig
	store    StateStore
	db       *SightingDatabase
	notifier Notifier
	source   EventSource
	stats    TrackerStats
	closed   bool
	logger   *slog.Logger
}

// NewTracker loads the database from store. A nil notifier disables reporting.
func NewTracker(config TrackerConfig, store StateStore, notifier Notifier, logger *slog.Logger) *Tracker {
	if config.ReportThreshold <= 0 {
		config.ReportThreshold = DefaultReportThreshold
	}
	if config.FlushThreshold <= 0 {
		config.FlushThreshold = DefaultFlushThreshold
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Tracker{
		config:   config,
		store:    store,
		db:       store.Load(),
		notifier: notifier,
		logger:   logger,
	}
}

// Attach starts source with Ingest as its handler. The source is closed again
// by Shutdown.
func (tr *Tracker) Attach(ctx context.Context, source EventSource) error {
	if err := source.Start(ctx, tr.Ingest); err != nil {
		return fmt.Errorf("attach: %w", err)
	}

	tr.mu.Lock()
	tr.source = source
	tr.mu.Unlock()

	return nil
}

// Ingest processes a single telemetry frame.
func (tr *Tracker) Ingest(event TelemetryEvent) {
	report, ok := tr.update(event)
	if ok {
		tr.report(report)
	}
}

// update applies the frame to the database and decides on flushing under the
// lock. The returned report, if any, is delivered by the caller.
func (tr *Tracker) update(event TelemetryEvent) (SightingReport, bool) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if tr.closed {
		tr.logger.Debug("tracker shut down, dropping telemetry", "callsign", event.PayloadCallsign)
		return SightingReport{}, false
	}

	if event.PayloadCallsign == "" {
		tr.stats.Malformed++
		tr.logger.Warn("skipping telemetry", "error", ErrMissingCallsign)
		return SightingReport{}, false
	}

	callsign := event.PayloadCallsign
	now := tr.config.Now()
	tr.stats.Ingested++

	lastSeen, known := tr.db.Payloads[callsign]
	tr.db.Payloads[callsign] = now

	if !known {
		tr.logger.Info("new payload", "callsign", callsign)
		tr.flush()
		return tr.newReport(event, AgeUnknown, now), true
	}

	age := now.Sub(lastSeen)
	tr.logger.Debug("payload seen", "callsign", callsign, "age", age)

	// Inclusive boundary: a sighting exactly FlushThreshold after the previous
	// one already flushes, so a payload back after 1h is written at t=3600.
	// Reports stay exclusive, see below.
	if age >= tr.config.FlushThreshold {
		tr.flush()
	}

	// Exclusive boundary: a payload back after exactly ReportThreshold is not reported.
	if age > tr.config.ReportThreshold {
		tr.logger.Info("payload reappeared", "callsign", callsign, "age", age)
		return tr.newReport(event, age, now), true
	}

	return SightingReport{}, false
}

func (tr *Tracker) newReport(event TelemetryEvent, age time.Duration, now time.Time) SightingReport {
	label := ageFirstSighting
	if age != AgeUnknown {
		label = HumanizeAge(age)
	}

	tr.stats.Reported++

	return SightingReport{
		Callsign: event.PayloadCallsign,
		Age:      age,
		AgeLabel: label,
		Event:    event,
		URL:      trackerURL + event.PayloadCallsign,
		SeenAt:   now,
	}
}

// flush writes the whole database. Failures are logged only, the next
// flush-eligible sighting writes everything again. Requires tr.mu.
func (tr *Tracker) flush() {
	if err := tr.store.Save(tr.db); err != nil {
		tr.stats.FailedFlushes++
		tr.logger.Error("could not write payload database", "error", err)
		return
	}

	tr.stats.Flushes++
}

// report hands the report to the notifier. Nothing the notifier does, not
// even a panic, reaches the tracker.
func (tr *Tracker) report(report SightingReport) {
	if tr.notifier == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			tr.logger.Error("notifier panicked", "callsign", report.Callsign, "panic", r)
		}
	}()

	if err := tr.notifier.Report(report); err != nil {
		tr.logger.Error("could not deliver report", "callsign", report.Callsign, "error", err)
	}
}

// Shutdown writes the database one last time and closes the attached event
// source. It is safe to call more than once.
func (tr *Tracker) Shutdown() {
	tr.mu.Lock()
	if tr.closed {
		tr.mu.Unlock()
		return
	}
	tr.closed = true

	tr.logger.Info("writing payload database out to file")
	tr.flush()
	source := tr.source
	tr.mu.Unlock()

	// The source may wait for a handler blocked on tr.mu, so close it unlocked.
	if source != nil {
		if err := source.Close(); err != nil {
			tr.logger.Debug("closing event source", "error", err)
		}
	}
}

// Snapshot returns all known payloads, most recently seen first.
func (tr *Tracker) Snapshot() []SightingRecord {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	records := make([]SightingRecord, 0, len(tr.db.Payloads))
	for callsign, lastSeen := range tr.db.Payloads {
		records = append(records, SightingRecord{Callsign: callsign, LastSeen: lastSeen})
	}

	SortByLastSeen(records)
	return records
}

// LastSeen returns when callsign was last seen.
func (tr *Tracker) LastSeen(callsign string) (time.Time, bool) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	lastSeen, ok := tr.db.Payloads[callsign]
	return lastSeen, ok
}

// Stats returns a copy of the counters.
func (tr *Tracker) Stats() TrackerStats {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	return tr.stats
}

// HumanizeAge turns the time since the last sighting into a short phrase.
func HumanizeAge(age time.Duration) string {
	switch {
	case age >= day:
		return fmt.Sprintf("%d days ago", int(age/day))
	case age >= time.Hour:
		return fmt.Sprintf("%d hours ago", int(age/time.Hour))
	default:
		return "recently"
	}
}
