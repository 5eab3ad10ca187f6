package tuiapp

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/micutio/sondespottr/internal"
)

type fakeTracker struct {
	records []internal.SightingRecord
	stats   internal.TrackerStats
}

func (f *fakeTracker) Snapshot() []internal.SightingRecord { return f.records }
func (f *fakeTracker) Stats() internal.TrackerStats        { return f.stats }

type fakeProgram struct {
	msgs []tea.Msg
}

func (p *fakeProgram) Send(msg tea.Msg) { p.msgs = append(p.msgs, msg) }

func newTestModel(tracker payloadTracker) *model {
	return newModel("sondespottr", tracker, internal.ReportFormatter{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sightingReport(callsign string) internal.SightingReport {
	return internal.SightingReport{
		Callsign: callsign,
		Age:      internal.AgeUnknown,
		AgeLabel: "first sighting",
		Event:    internal.TelemetryEvent{PayloadCallsign: callsign, Fields: map[string]any{"alt": 1500.0}},
		URL:      "https://amateur.sondehub.org/" + callsign,
		SeenAt:   time.Now(),
	}
}

func TestModelRefreshOnTick(t *testing.T) {
	now := time.Now()
	tracker := &fakeTracker{}
	m := newTestModel(tracker)

	if rows := m.payloadTbl.table.Rows(); len(rows) != 0 {
		t.Fatalf("expected empty payload table, got %d rows", len(rows))
	}

	tracker.records = []internal.SightingRecord{
		{Callsign: "A", LastSeen: now.Add(-time.Minute)},
		{Callsign: "B", LastSeen: now.Add(-26 * time.Hour)},
	}
	tracker.stats = internal.TrackerStats{Ingested: 5, Reported: 2, Flushes: 2}

	_, cmd := m.Update(UpdateTickMsg(now))
	if cmd == nil {
		t.Error("tick did not schedule the next tick")
	}

	rows := m.payloadTbl.table.Rows()
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0][0] != "A" || rows[0][1] != "recently" {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[1][0] != "B" || rows[1][1] != "1 days ago" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if m.stats.Ingested != 5 || m.payloads != 2 {
		t.Errorf("header counters = %+v, %d payloads", m.stats, m.payloads)
	}
}

func TestModelReportsNewestFirst(t *testing.T) {
	m := newTestModel(&fakeTracker{})

	m.Update(ReportMsg(sightingReport("FIRST")))
	m.Update(ReportMsg(sightingReport("SECOND")))

	rows := m.reportTbl.table.Rows()
	if len(rows) != 2 {
		t.Fatalf("got %d report rows, want 2", len(rows))
	}
	if rows[0][1] != "SECOND" || rows[1][1] != "FIRST" {
		t.Errorf("report rows = %v", rows)
	}
	if strings.TrimSpace(rows[0][3]) != "1500" {
		t.Errorf("altitude column = %q", rows[0][3])
	}
}

func TestModelReportsAreCapped(t *testing.T) {
	m := newTestModel(&fakeTracker{})

	for i := 0; i < maxReports+10; i++ {
		m.Update(ReportMsg(sightingReport("X")))
	}

	if len(m.reports) != maxReports || len(m.reportTbl.table.Rows()) != maxReports {
		t.Errorf("kept %d reports, want %d", len(m.reports), maxReports)
	}
}

func TestModelKeys(t *testing.T) {
	m := newTestModel(&fakeTracker{})

	if !m.payloadTbl.table.Focused() {
		t.Fatal("payload table should be focused on start")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.state != reportPage {
		t.Errorf("state after tab = %v, want %v", m.state, reportPage)
	}
	if m.payloadTbl.table.Focused() || !m.reportTbl.table.Focused() {
		t.Error("focus did not move to the report table")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.reportTbl.table.Focused() {
		t.Error("esc did not blur the report table")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.state != payloadPage || m.payloadTbl.table.Focused() {
		t.Error("tab from an unfocused table should keep the focus off")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q did not return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestModelWindowResize(t *testing.T) {
	m := newTestModel(&fakeTracker{})

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	if m.payloadTbl.table.Width() != 100 || m.reportTbl.table.Width() != 100 {
		t.Errorf("table widths = %d, %d; want 100", m.payloadTbl.table.Width(), m.reportTbl.table.Width())
	}
	if view := m.View(); !strings.Contains(view, "sondespottr") {
		t.Error("view is missing the app name")
	}
}

func TestReportNotifier(t *testing.T) {
	program := &fakeProgram{}
	notifier := reportNotifier(program)

	if err := notifier.Report(sightingReport("A")); err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if len(program.msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(program.msgs))
	}
	msg, ok := program.msgs[0].(ReportMsg)
	if !ok || msg.Callsign != "A" {
		t.Errorf("sent %#v", program.msgs[0])
	}
}
