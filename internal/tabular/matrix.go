package tabular

import (
	"encoding/json"
	"strconv"
	"strings"

	"kiosk/internal/models"
)

// ParseValues maps a row-major string matrix, header first, into rows keyed by
// HeaderKey. Short rows are padded with empty values. No rows are filtered.
func ParseValues(values [][]string) []models.TabularRow {
	if len(values) < 2 {
		return nil
	}

	headers := values[0]
	rows := make([]models.TabularRow, 0, len(values)-1)

	for _, cells := range values[1:] {
		rows = append(rows, buildRow(headers, cells, HeaderKey))
	}

	return rows
}

// Cell is one cell of a visualization-query table.
type Cell struct {
	V any    `json:"v"`
	F string `json:"f,omitempty"`
}

// Row holds the cells of one table row. Missing cells are null.
type Row struct {
	C []*Cell `json:"c"`
}

// Column describes a table column.
type Column struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Table is the cell-matrix structure returned by the visualization query endpoint.
type Table struct {
	Cols []Column `json:"cols"`
	Rows []Row    `json:"rows"`
}

// Value renders the cell value as text. Numbers lose trailing zeros; nil cells are empty.
func (c *Cell) Value() string {
	if c == nil || c.V == nil {
		return ""
	}

	switch v := c.V.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	default:
		if c.F != "" {
			return c.F
		}

		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(b)
	}
}

// ParseCellMatrix maps a table whose first row holds headers into rows keyed
// by UnderscoreKey. Rows missing any of the required keys are dropped.
func ParseCellMatrix(table Table, required ...string) []models.TabularRow {
	if len(table.Rows) < 2 {
		return nil
	}

	headers := make([]string, len(table.Rows[0].C))
	for i, cell := range table.Rows[0].C {
		headers[i] = cell.Value()
	}

	var rows []models.TabularRow

	for _, r := range table.Rows[1:] {
		cells := make([]string, len(r.C))
		for i, cell := range r.C {
			cells[i] = cell.Value()
		}

		row := buildRow(headers, cells, UnderscoreKey)

		if !hasAll(row, required) {
			continue
		}

		rows = append(rows, row)
	}

	return rows
}

// buildRow keys cells by their header. Blank headers are skipped and the last
// duplicate key wins.
func buildRow(headers, cells []string, key KeyFunc) models.TabularRow {
	row := make(models.TabularRow, len(headers))

	for i, header := range headers {
		k := key(header)
		if k == "" {
			continue
		}

		if i < len(cells) {
			row[k] = cells[i]
		} else {
			row[k] = ""
		}
	}

	return row
}

func hasAll(row models.TabularRow, keys []string) bool {
	for _, k := range keys {
		if strings.TrimSpace(row[k]) == "" {
			return false
		}
	}

	return true
}
