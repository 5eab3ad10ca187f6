package tuiapp

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/micutio/sondespottr/internal"
)

type UpdateTickMsg time.Time

func updateTick() tea.Cmd {
	return tea.Every(
		time.Second,
		func(t time.Time) tea.Msg {
			return UpdateTickMsg(t)
		},
	)
}

// ReportMsg carries a sighting report from the tracker into the UI loop.
type ReportMsg internal.SightingReport

// msgSender is the part of tea.Program the report notifier needs.
type msgSender interface {
	Send(msg tea.Msg)
}

// reportNotifier forwards every report to the running program.
func reportNotifier(program msgSender) internal.Notifier {
	return internal.NotifierFunc(func(report internal.SightingReport) error {
		program.Send(ReportMsg(report))
		return nil
	})
}
