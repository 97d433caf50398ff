package tabular

import (
	"strings"

	"kiosk/internal/models"
)

// TitleKey is the column every surviving row must carry.
const TitleKey = "title"

// SplitCSVLine tokenizes one CSV line. A '"' toggles quoting and is dropped,
// commas inside quotes are kept, and each field is trimmed. Doubled quotes are
// not collapsed into a literal quote.
func SplitCSVLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	return append(fields, strings.TrimSpace(current.String()))
}

// CSVLines splits text into its non-blank lines.
func CSVLines(text string) []string {
	var lines []string

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		lines = append(lines, line)
	}

	return lines
}

// CSVHeaders returns the tokenized header line of text, or nil when text is blank.
func CSVHeaders(text string) []string {
	lines := CSVLines(text)
	if len(lines) == 0 {
		return nil
	}

	return SplitCSVLine(lines[0])
}

// ParseCSV parses a CSV export into rows keyed by HeaderKey. Rows without a
// title are dropped. ok is false when there is no data line or no row survives.
func ParseCSV(text string) (rows []models.TabularRow, ok bool) {
	lines := CSVLines(text)
	if len(lines) < 2 {
		return nil, false
	}

	headers := SplitCSVLine(lines[0])

	for _, line := range lines[1:] {
		row := buildRow(headers, SplitCSVLine(line), HeaderKey)

		if strings.TrimSpace(row[TitleKey]) == "" {
			continue
		}

		rows = append(rows, row)
	}

	return rows, len(rows) > 0
}
