package tuiapp

type uiState int

const (
	payloadPage uiState = iota // first page on startup, showing all known payloads
	reportPage                 // second page, showing the most recent reports
)

func (s uiState) next() uiState {
	if s == payloadPage {
		return reportPage
	}

	return payloadPage
}

func (s uiState) String() string {
	switch s {
	case payloadPage:
		return "Payloads"
	case reportPage:
		return "Reports"
	default:
		return "unknown"
	}
}
