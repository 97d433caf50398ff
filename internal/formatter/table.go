// Package formatter renders slides and fetch attempts as aligned text tables.
package formatter

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"kiosk/internal/models"
	"kiosk/internal/tabular"
	"kiosk/pkg/utils"
)

// DefaultCellWidth caps the display width of a cell.
const DefaultCellWidth = 40

// Formatter renders pipe tables whose columns are aligned by display width,
// so wide characters and emoji line up in a terminal.
type Formatter struct {
	text         *utils.StringHelper
	maxCellWidth int
}

// New creates a formatter that truncates cells wider than maxCellWidth.
// Zero or less disables truncation.
func New(maxCellWidth int) *Formatter {
	return &Formatter{text: utils.NewStringHelper(), maxCellWidth: maxCellWidth}
}

// Table renders header and rows. Short rows are padded with empty cells.
func (f *Formatter) Table(header []string, rows [][]string) string {
	table := make([][]string, 0, len(rows)+1)
	table = append(table, f.clip(header))

	for _, row := range rows {
		table = append(table, f.clip(row))
	}

	colCount := 0
	for _, row := range table {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	if colCount == 0 {
		return ""
	}

	// Calculate max widths (using display width)
	colWidths := make([]int, colCount)

	for _, row := range table {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	// Ensure min width for separator
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	lines := make([]string, 0, len(table)+1)
	lines = append(lines, renderRow(table[0], colWidths))
	lines = append(lines, renderSeparator(colWidths))

	for _, row := range table[1:] {
		lines = append(lines, renderRow(row, colWidths))
	}

	return strings.Join(lines, "\n") + "\n"
}

// Slides renders the slide list the display is showing.
func (f *Formatter) Slides(slides []models.Slide) string {
	rows := make([][]string, len(slides))
	for i, s := range slides {
		rows[i] = []string{fmt.Sprint(i + 1), s.Title, s.Description, s.Campus, s.ImageURL}
	}

	return f.Table([]string{"#", "Title", "Description", "Campus", "Image"}, rows)
}

// Attempts renders fetch attempts in the order given.
func (f *Formatter) Attempts(attempts []models.FetchAttempt) string {
	rows := make([][]string, len(attempts))

	for i, a := range attempts {
		status := "✅"
		if !a.Success {
			status = "❌"
		}

		code := ""
		if a.StatusCode != 0 {
			code = fmt.Sprint(a.StatusCode)
		}

		rows[i] = []string{
			a.At.Format("2006-01-02 15:04:05"),
			a.Strategy,
			status,
			code,
			fmt.Sprint(a.Rows),
			fmt.Sprintf("%.2fs", a.Duration.Seconds()),
			a.Error,
		}
	}

	return f.Table([]string{"At", "Strategy", "OK", "HTTP", "Rows", "Took", "Error"}, rows)
}

// CSV renders a CSV export as a table using the kiosk's CSV tokenizer.
func (f *Formatter) CSV(text string) string {
	lines := tabular.CSVLines(text)
	if len(lines) == 0 {
		return ""
	}

	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, tabular.SplitCSVLine(strings.TrimRight(line, "\r")))
	}

	return f.Table(tabular.SplitCSVLine(strings.TrimRight(lines[0], "\r")), rows)
}

func (f *Formatter) clip(row []string) []string {
	out := make([]string, len(row))

	for i, cell := range row {
		cell = f.text.NormalizeWhitespace(cell)
		cell = strings.ReplaceAll(cell, "|", "/")

		if f.maxCellWidth > 0 {
			cell = runewidth.Truncate(cell, f.maxCellWidth, "…")
		}

		out[i] = cell
	}

	return out
}

func renderRow(row []string, widths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for i, width := range widths {
		content := ""
		if i < len(row) {
			content = row[i]
		}

		sb.WriteString(" ")
		sb.WriteString(runewidth.FillRight(content, width))
		sb.WriteString(" |")
	}

	return sb.String()
}

func renderSeparator(widths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for _, width := range widths {
		sb.WriteString(" ")
		sb.WriteString(strings.Repeat("-", width))
		sb.WriteString(" |")
	}

	return sb.String()
}
