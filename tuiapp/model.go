package tuiapp

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/micutio/sondespottr/internal"
)

const (
	// maxReports is how many reports the report page keeps.
	maxReports = 100
	// headerHeight is the number of lines taken up by everything above the tables.
	headerHeight = 7
)

// payloadTracker is the read-only view of the tracker the UI needs.
type payloadTracker interface {
	Snapshot() []internal.SightingRecord
	Stats() internal.TrackerStats
}

// Model implements the bubbletea.Model interface, which requires three methods:
// - Init() Cmd
// - Update(Msg) (Model, Cmd)
// - View() string
// This forms the base for the TUI app.
type model struct {
	appName    string
	width      int
	height     int
	baseStyle  lipgloss.Style
	viewStyle  lipgloss.Style
	theme      Theme
	state      uiState
	payloadTbl autoFormatTable
	reportTbl  autoFormatTable
	tableStyle table.Styles
	tracker    payloadTracker
	formatter  internal.ReportFormatter
	reports    []internal.SightingReport // newest first
	payloads   int
	stats      internal.TrackerStats
	lastUpdate time.Time
	logger     *slog.Logger
}

func newModel(
	appName string,
	tracker payloadTracker,
	formatter internal.ReportFormatter,
	logger *slog.Logger,
) *model {
	tableStyle := table.DefaultStyles()
	tableStyle.Selected = lipgloss.NewStyle().Background(Color.Highlight)

	m := &model{
		appName:    appName,
		baseStyle:  lipgloss.NewStyle(),
		viewStyle:  lipgloss.NewStyle(),
		theme:      Color,
		state:      payloadPage,
		payloadTbl: newPayloadTable(tableStyle),
		reportTbl:  newReportTable(tableStyle),
		tableStyle: tableStyle,
		tracker:    tracker,
		formatter:  formatter,
		logger:     logger,
	}
	m.refresh(time.Now())

	return m
}

// Init starts the ticks which keep the payload table up to date.
func (m *model) Init() tea.Cmd {
	return updateTick()
}

// Update takes a tea.Msg as input and uses a type switch to handle different types of messages.
// Each case in the switch statement corresponds to a specific message type.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint:ireturn // required by interface
	switch thisMsg := msg.(type) {
	// message is sent when the window size changes
	// save to reflect the new dimensions of the terminal window.
	case tea.WindowSizeMsg:
		m.height = thisMsg.Height
		m.width = thisMsg.Width
		m.resizeTables()

	// message is sent when a key is pressed.
	case tea.KeyMsg:
		tbl := m.activeTable()
		switch thisMsg.String() {
		// Toggles the focus state of the visible table
		case "esc":
			if tbl.Focused() {
				m.tableStyle.Selected = m.baseStyle
				tbl.SetStyles(m.tableStyle)
				tbl.Blur()
			} else {
				m.tableStyle.Selected = m.tableStyle.Selected.Background(m.theme.Highlight)
				tbl.SetStyles(m.tableStyle)
				tbl.Focus()
			}
		// Switches between payload and report page, the focus moves along.
		case "tab":
			focused := tbl.Focused()
			tbl.Blur()
			m.state = m.state.next()
			if focused {
				m.activeTable().Focus()
			}
		case "up", "k":
			if tbl.Focused() {
				tbl.MoveUp(1)
			}
		case "down", "j":
			if tbl.Focused() {
				tbl.MoveDown(1)
			}
		// Quits the program by returning the tea.Quit command.
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case UpdateTickMsg:
		m.refresh(time.Time(thisMsg))
		return m, updateTick()

	case ReportMsg:
		m.addReport(internal.SightingReport(thisMsg))
	}

	// If the message type does not match any of the handled cases, the model is returned unchanged,
	// and no new command is issued.
	return m, nil
}

func (m *model) activeTable() *table.Model {
	if m.state == reportPage {
		return &m.reportTbl.table
	}

	return &m.payloadTbl.table
}

// refresh reloads the payload table and counters from the tracker.
func (m *model) refresh(now time.Time) {
	records := m.tracker.Snapshot()
	rows := make([]table.Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, recordToRow(record, now))
	}

	m.payloadTbl.table.SetRows(rows)
	m.payloads = len(records)
	m.stats = m.tracker.Stats()
	m.lastUpdate = now
}

func (m *model) addReport(report internal.SightingReport) {
	m.reports = append([]internal.SightingReport{report}, m.reports...)
	if len(m.reports) > maxReports {
		m.reports = m.reports[:maxReports]
	}

	rows := make([]table.Row, 0, len(m.reports))
	for _, r := range m.reports {
		rows = append(rows, reportToRow(r, m.formatter))
	}
	m.reportTbl.table.SetRows(rows)
}

func (m *model) resizeTables() {
	tableHeight := max(m.height-headerHeight, 1)

	for _, aft := range []*autoFormatTable{&m.payloadTbl, &m.reportTbl} {
		if err := aft.resize(m.width); err != nil {
			m.logger.Error("unable to resize table", slog.Any("error", err))
		}
		aft.SetHeight(tableHeight)
	}
}

func (m *model) View() string {
	// Sets the width of the column to the width of the terminal (m.width) and adds padding of 1 unit
	// on the top.
	column := m.baseStyle.Width(m.width).Padding(1, 0, 0, 0).Render
	// Set the content to match the terminal dimensions (m.width and m.height).
	content := m.baseStyle.
		Width(m.width).
		Height(m.height).
		Render(
			// Vertically join multiple elements aligned to the left.
			lipgloss.JoinVertical(lipgloss.Left,
				column(m.viewHeader()),
				column(m.viewTable()),
			),
		)

	return content
}

// viewHeader shows the counters of the tracker and which page is visible.
func (m *model) viewHeader() string {
	listHeader := m.baseStyle.Bold(true).Render
	secondary := m.baseStyle.Foreground(m.theme.Secondary).Render

	listItem := func(key string, value int) string {
		return fmt.Sprintf("%s %s", m.baseStyle.Render(key+":"), m.baseStyle.Foreground(m.theme.Green).Render(fmt.Sprint(value)))
	}

	tab := func(state uiState) string {
		if state == m.state {
			return m.baseStyle.Bold(true).Foreground(m.theme.Highlight).Render("[" + state.String() + "]")
		}
		return secondary(" " + state.String() + " ")
	}

	failed := listItem("Failed writes", m.stats.FailedFlushes)
	if m.stats.FailedFlushes > 0 {
		failed = fmt.Sprintf("%s %s", m.baseStyle.Render("Failed writes:"),
			m.baseStyle.Foreground(m.theme.Red).Render(fmt.Sprint(m.stats.FailedFlushes)))
	}

	return m.viewStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			listHeader(m.appName),
			secondary("Last update: "+m.lastUpdate.Local().Format(time.TimeOnly)),
			lipgloss.JoinHorizontal(lipgloss.Left,
				listItem("Payloads", m.payloads), "  ",
				listItem("Frames", m.stats.Ingested), "  ",
				listItem("Reports", m.stats.Reported), "  ",
				listItem("Writes", m.stats.Flushes), "  ",
				failed,
			),
			lipgloss.JoinHorizontal(lipgloss.Left, tab(payloadPage), " ", tab(reportPage)),
		),
	)
}

func (m *model) viewTable() string {
	help := m.baseStyle.Foreground(m.theme.Secondary).Render("tab: switch page, esc: focus, q: quit")

	return m.viewStyle.Render(lipgloss.JoinVertical(lipgloss.Left, m.activeTable().View(), help))
}
