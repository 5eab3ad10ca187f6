package internal

import (
	"errors"
	"fmt"
	"io"
	"log" //nolint:depguard // plain console output, structured logs go through slog
	"strings"
	"time"

	"github.com/gen2brain/beeep"
)

const (
	// appIconPath is the file path to the icon png for this application.
	appIconPath = "./assets/icon.png"
)

// Notifier delivers sighting reports to the outside world.
type Notifier interface {
	Report(report SightingReport) error
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(report SightingReport) error

func (f NotifierFunc) Report(report SightingReport) error {
	return f(report)
}

// MultiNotifier hands every report to all of its notifiers, even if some of
// them fail.
type MultiNotifier []Notifier

func (m MultiNotifier) Report(report SightingReport) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Report(report); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// ReportFormatter renders reports as one-liners. If Origin is set the
// distance and direction from there to the payload are included.
type ReportFormatter struct {
	Origin *Coordinates
}

// Format generates a one-liner consisting of the most relevant information
// about the sighting, e.g.
// "Callsign VK5ARG-1 last seen 2 days ago, 11234 m altitude. https://amateur.sondehub.org/VK5ARG-1".
func (f ReportFormatter) Format(report SightingReport) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Callsign %s last seen %s", report.Callsign, report.AgeLabel)

	if alt, ok := report.Event.Altitude(); ok {
		fmt.Fprintf(&sb, ", %d m altitude", int(alt))
	}

	if where := f.Where(report.Event); where != "" {
		fmt.Fprintf(&sb, ", %s", where)
	}

	fmt.Fprintf(&sb, ". %s", report.URL)

	return sb.String()
}

// Title is a short headline for notifications.
func (f ReportFormatter) Title(report SightingReport) string {
	if report.IsFirstSighting() {
		return "New Payload: " + report.Callsign
	}

	return "Payload Back: " + report.Callsign
}

// Where describes distance and direction from Origin to the payload, if both are known.
func (f ReportFormatter) Where(event TelemetryEvent) string {
	if f.Origin == nil {
		return ""
	}

	pos, ok := event.Position()
	if !ok {
		return ""
	}

	dist := Distance(*f.Origin, pos).Kilometers()
	dir := Direction(Bearing(*f.Origin, pos))

	return fmt.Sprintf("%.0f km to the %s", dist, dir)
}

// Notify prints reports to the console and optionally raises a desktop
// notification for each.
type Notify struct {
	Stdout    *log.Logger
	formatter ReportFormatter
	desktop   bool
}

func NewNotify(appName string, consoleOut io.Writer, formatter ReportFormatter, desktop bool) *Notify {
	beeep.AppName = appName //nolint:reassign // This is the only way to set app name in beeep.
	return &Notify{
		Stdout:    log.New(consoleOut, "", log.LstdFlags),
		formatter: formatter,
		desktop:   desktop,
	}
}

func (notify *Notify) Report(report SightingReport) error {
	line := notify.formatter.Format(report)
	notify.Stdout.Println(line)

	if !notify.desktop {
		return nil
	}

	return notifyDesktop(notify.formatter.Title(report), line)
}

// PrintSummary lists all known payloads, most recently seen first.
func (notify *Notify) PrintSummary(records []SightingRecord, now time.Time) {
	notify.Stdout.Println("=== Summary ===")
	notify.Stdout.Printf("%d payloads known\n", len(records))
	for _, record := range records {
		notify.Stdout.Printf("%-16s %s\n", record.Callsign, HumanizeAge(now.Sub(record.LastSeen)))
	}
	notify.Stdout.Println("=== End Summary ===")
}

func notifyDesktop(title, body string) error {
	if err := beeep.Notify(title, body, appIconPath); err != nil {
		return fmt.Errorf("notifyDesktop: %w", err)
	}

	return nil
}
