package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"kiosk/internal/tabular"
)

// ValueRange is the body of a values API call.
type ValueRange struct {
	Range          string  `json:"range"`
	MajorDimension string  `json:"majorDimension"`
	Values         [][]any `json:"values"`
}

// Strings returns the value matrix as text, row-major.
func (v *ValueRange) Strings() [][]string {
	out := make([][]string, len(v.Values))

	for i, row := range v.Values {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			out[i][j] = (&tabular.Cell{V: cell}).Value()
		}
	}

	return out
}

// SpreadsheetMetadata is the subset of the spreadsheet resource the kiosk reads.
type SpreadsheetMetadata struct {
	SpreadsheetID string `json:"spreadsheetId"`
	Properties    struct {
		Title string `json:"title"`
	} `json:"properties"`
	Sheets []Sheet `json:"sheets"`
}

// Sheet is one tab of a spreadsheet.
type Sheet struct {
	Properties SheetProperties `json:"properties"`
}

// SheetProperties identifies a tab.
type SheetProperties struct {
	Title   string `json:"title"`
	SheetID int64  `json:"sheetId"`
	Index   int    `json:"index"`
}

// FindSheet returns the tab whose title equals title, ignoring case.
func (m *SpreadsheetMetadata) FindSheet(title string) (SheetProperties, bool) {
	for _, s := range m.Sheets {
		if strings.EqualFold(s.Properties.Title, title) {
			return s.Properties, true
		}
	}

	return SheetProperties{}, false
}

// Endpoints lists the addresses the client calls, without credentials.
type Endpoints struct {
	Values   string `json:"values"`
	Metadata string `json:"metadata"`
	Export   string `json:"export"`
	Gviz     string `json:"gviz"`
	Edit     string `json:"edit"`
}

// Endpoints returns the configured endpoint addresses.
func (c *SheetsClient) Endpoints() Endpoints {
	return Endpoints{
		Values:   c.valuesURL(),
		Metadata: c.metadataURL(),
		Export:   c.exportURL(),
		Gviz:     c.gvizURL(),
		Edit:     c.spreadsheetPath(c.source.ExportBaseURL) + "/edit",
	}
}

func (c *SheetsClient) spreadsheetPath(base string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(c.source.SpreadsheetID)
}

func (c *SheetsClient) valuesURL() string {
	return c.spreadsheetPath(c.source.SheetsBaseURL) + "/values/" + url.PathEscape(c.source.SheetName)
}

func (c *SheetsClient) metadataURL() string {
	return c.spreadsheetPath(c.source.SheetsBaseURL)
}

func (c *SheetsClient) exportURL() string {
	return c.spreadsheetPath(c.source.ExportBaseURL) + "/export"
}

func (c *SheetsClient) gvizURL() string {
	return c.spreadsheetPath(c.source.ExportBaseURL) + "/gviz/tq"
}

func (c *SheetsClient) keyQuery() map[string]string {
	if c.source.APIKey == "" {
		return nil
	}

	return map[string]string{"key": c.source.APIKey}
}

// GetValues fetches the configured sheet through the authenticated values API.
func (c *SheetsClient) GetValues(ctx context.Context) (*ValueRange, error) {
	endpoint := c.valuesURL()

	body, err := c.fetch(ctx, "values", endpoint, c.keyQuery())
	if err != nil {
		return nil, err
	}

	var vr ValueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, &FetchError{Op: "values", URL: endpoint, Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err)}
	}

	return &vr, nil
}

// GetMetadata fetches the spreadsheet resource listing its tabs.
func (c *SheetsClient) GetMetadata(ctx context.Context) (*SpreadsheetMetadata, error) {
	endpoint := c.metadataURL()

	body, err := c.fetch(ctx, "metadata", endpoint, c.keyQuery())
	if err != nil {
		return nil, err
	}

	var meta SpreadsheetMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, &FetchError{Op: "metadata", URL: endpoint, Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err)}
	}

	return &meta, nil
}

// FindSheetID looks up the numeric id of the configured sheet.
func (c *SheetsClient) FindSheetID(ctx context.Context) (int64, error) {
	meta, err := c.GetMetadata(ctx)
	if err != nil {
		return 0, err
	}

	sheet, ok := meta.FindSheet(c.source.SheetName)
	if !ok {
		return 0, &FetchError{Op: "metadata", URL: c.metadataURL(), Err: fmt.Errorf("%w: %q", ErrSheetNotFound, c.source.SheetName)}
	}

	return sheet.SheetID, nil
}

// ExportCSV downloads the sheet with numeric id gid as CSV text.
func (c *SheetsClient) ExportCSV(ctx context.Context, gid int64) (string, error) {
	body, err := c.fetch(ctx, "csv export", c.exportURL(), map[string]string{
		"format": "csv",
		"gid":    strconv.FormatInt(gid, 10),
	})
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// GetGviz fetches the sheet through the public visualization query endpoint.
func (c *SheetsClient) GetGviz(ctx context.Context) (*tabular.Table, error) {
	endpoint := c.gvizURL()

	body, err := c.fetch(ctx, "gviz", endpoint, map[string]string{
		"tqx":   "out:json",
		"sheet": c.source.SheetName,
	})
	if err != nil {
		return nil, err
	}

	table, err := ParseGvizResponse(string(body))
	if err != nil {
		return nil, &FetchError{Op: "gviz", URL: endpoint, Err: err}
	}

	return table, nil
}
