package tuiapp

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/micutio/sondespottr/internal"
)

// Error types

var errColumnMismatch = errors.New("number of columns does not match number of format columns")

// Automated Table Formatting

type tableColumnSizingOption int

const (
	// fixed column width, regardless of table width.
	fixed tableColumnSizingOption = iota
	// relative column with, given as percentage of the total table width.
	relative
	// fill columns receive any remaining table space, evenly distributed.
	fill
)

// cellPadding is the horizontal padding bubbles adds to every cell.
const cellPadding = 2

type columnFormat struct {
	option tableColumnSizingOption
	value  float32
}

type tableFormat struct {
	columnSizes        []columnFormat
	fixedWidth         int     // fixedWidth is the total space taken up by all fixed-width columns.
	fillWidthCount     int     // fillWidthCount indicates how many columns have fill width.
	totalRelativeWidth float32 // how much width is taken by relative columns.
}

func newTableFormat(items ...columnFormat) tableFormat {
	var totalRelativeWidth float32
	fixedWidth := 0
	fillWidthCount := 0

	for _, item := range items {
		switch item.option {
		case relative:
			totalRelativeWidth += item.value
		case fixed:
			fixedWidth += int(item.value)
		case fill:
			fillWidthCount++
		}
	}

	return tableFormat{
		columnSizes:        items,
		fixedWidth:         fixedWidth,
		fillWidthCount:     fillWidthCount,
		totalRelativeWidth: totalRelativeWidth,
	}
}

// Integrated Formatted Table Type

type autoFormatTable struct {
	table  table.Model
	format tableFormat
}

// resize distributes newWidth over the columns according to the table format.
func (aft *autoFormatTable) resize(newWidth int) error {
	columns := aft.table.Columns()
	columnCount := len(columns)
	if columnCount != len(aft.format.columnSizes) {
		return fmt.Errorf(
			"table.resize: %w -> %d in table, %d in tableFormat",
			errColumnMismatch,
			columnCount,
			len(aft.format.columnSizes))
	}

	contentWidth := max(newWidth-cellPadding*columnCount, 0)
	relativeWidth := int(float32(contentWidth) * aft.format.totalRelativeWidth)
	fillPerColumn := 0
	if aft.format.fillWidthCount > 0 {
		totalFillWidth := max(contentWidth-relativeWidth-aft.format.fixedWidth, 0)
		fillPerColumn = totalFillWidth / aft.format.fillWidthCount
	}

	resized := make([]table.Column, columnCount)
	for idx, column := range columns {
		format := aft.format.columnSizes[idx]
		switch format.option {
		case fixed:
			column.Width = int(format.value)
		case relative:
			column.Width = int(format.value * float32(contentWidth))
		case fill:
			column.Width = fillPerColumn
		}
		resized[idx] = column
	}

	aft.table.SetColumns(resized)
	aft.table.SetWidth(newWidth)

	return nil
}

func (aft *autoFormatTable) SetHeight(height int) {
	aft.table.SetHeight(height)
}

func newPayloadTable(tableStyle table.Styles) autoFormatTable {
	callsignLen := 16
	seenLen := 14
	timeLen := 8
	initialTableHeight := 5
	format := newTableFormat(
		columnFormat{fill, 0.0},
		columnFormat{fixed, float32(seenLen)},
		columnFormat{fixed, float32(timeLen)},
	)

	payloadTbl := table.New(
		// table header
		table.WithColumns(
			[]table.Column{
				{Title: "Callsign", Width: callsignLen},
				{Title: "Last Seen", Width: seenLen},
				{Title: "At", Width: timeLen},
			},
		),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(initialTableHeight),
		table.WithStyles(tableStyle),
	)

	return autoFormatTable{
		table:  payloadTbl,
		format: format,
	}
}

func newReportTable(tableStyle table.Styles) autoFormatTable {
	timeLen := 8
	callsignLen := 16
	ageLen := 14
	altLen := 7
	initialTableHeight := 5
	format := newTableFormat(
		columnFormat{fixed, float32(timeLen)},
		columnFormat{relative, 0.25}, //nolint:mnd // a quarter of the width for the callsign
		columnFormat{fixed, float32(ageLen)},
		columnFormat{fixed, float32(altLen)},
		columnFormat{fill, 0.0},
	)

	// Create a new table with specified columns and initial empty rows.
	reportTbl := table.New(
		// table header
		table.WithColumns(
			[]table.Column{
				{Title: "Time", Width: timeLen},
				{Title: "Callsign", Width: callsignLen},
				{Title: "Last Seen", Width: ageLen},
				{Title: "ALT", Width: altLen},
				{Title: "Where", Width: 0},
			},
		),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
		table.WithHeight(initialTableHeight),
		table.WithStyles(tableStyle),
	)

	return autoFormatTable{
		table:  reportTbl,
		format: format,
	}
}

func recordToRow(record internal.SightingRecord, now time.Time) table.Row {
	return table.Row{
		record.Callsign,
		internal.HumanizeAge(now.Sub(record.LastSeen)),
		record.LastSeen.Local().Format(time.TimeOnly),
	}
}

func reportToRow(report internal.SightingReport, formatter internal.ReportFormatter) table.Row {
	return table.Row{
		report.SeenAt.Local().Format(time.TimeOnly),
		report.Callsign,
		report.AgeLabel,
		report.Event.GetAltitudeAsStr(),
		formatter.Where(report.Event),
	}
}
