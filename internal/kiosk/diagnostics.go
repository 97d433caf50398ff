package kiosk

import (
	"context"
	"errors"
	"strings"

	"kiosk/internal/crawler"
	"kiosk/internal/imageurl"
	"kiosk/internal/models"
	"kiosk/internal/validator"
	"kiosk/pkg/utils"
)

// ErrNoSlides is returned by image checks when nothing is loaded.
var ErrNoSlides = errors.New("no slides loaded, refresh first")

// ValuesReader is the part of the sheets client diagnostics needs.
type ValuesReader interface {
	GetValues(ctx context.Context) (*crawler.ValueRange, error)
	Endpoints() crawler.Endpoints
}

// ImageChecker checks whether an address serves an image.
type ImageChecker interface {
	Check(ctx context.Context, address string) crawler.ImageCheck
}

// Diagnostics exposes operator troubleshooting operations.
type Diagnostics struct {
	svc      *Service
	client   ValuesReader
	checker  ImageChecker
	images   *imageurl.Normalizer
	schema   *validator.SchemaValidator
	hasKey   bool
	sheet    string
	sampleSz int
}

// NewDiagnostics creates the diagnostics surface. checker may be nil to skip
// network checks of image addresses.
func NewDiagnostics(svc *Service, client ValuesReader, checker ImageChecker, images *imageurl.Normalizer, sheetName string, hasAPIKey bool) *Diagnostics {
	if images == nil {
		images = imageurl.New()
	}

	return &Diagnostics{
		svc:      svc,
		client:   client,
		checker:  checker,
		images:   images,
		schema:   validator.NewSchemaValidator(),
		hasKey:   hasAPIKey,
		sheet:    sheetName,
		sampleSz: 3,
	}
}

// ValuesCheck is the outcome of reading the sheet through the values API.
type ValuesCheck struct {
	Headers    []string                    `json:"headers,omitempty"`
	Sample     [][]string                  `json:"sample,omitempty"`
	Schema     *validator.ValidationResult `json:"schema,omitempty"`
	Error      string                      `json:"error,omitempty"`
	TotalRows  int                         `json:"totalRows"`
	StatusCode int                         `json:"statusCode,omitempty"`
	OK         bool                        `json:"ok"`
}

// RefreshCheck is the outcome of a forced refresh.
type RefreshCheck struct {
	Slides []models.Slide `json:"slides,omitempty"`
	Error  string         `json:"error,omitempty"`
	OK     bool           `json:"ok"`
}

// ConnectionReport summarizes TestConnection.
type ConnectionReport struct {
	Endpoints      crawler.Endpoints `json:"endpoints"`
	SpreadsheetURL string            `json:"spreadsheetUrl"`
	Checklist      []string          `json:"checklist"`
	Values         ValuesCheck       `json:"values"`
	Refresh        RefreshCheck      `json:"refresh"`
	APIKeyProvided bool              `json:"apiKeyProvided"`
}

// Checklist is the troubleshooting list shown to operators.
var Checklist = []string{
	"Spreadsheet is shared publicly (Anyone with the link can view)",
	`Sheet name is "Main"`,
	"Headers: " + strings.Join(validator.ExpectedHeaders, " | "),
	"API key is valid",
	"Try a manual refresh",
}

// TestConnection reads the sheet directly, then forces a full refresh.
func (d *Diagnostics) TestConnection(ctx context.Context) ConnectionReport {
	endpoints := d.client.Endpoints()

	report := ConnectionReport{
		Endpoints:      endpoints,
		SpreadsheetURL: endpoints.Edit,
		APIKeyProvided: d.hasKey,
		Checklist:      Checklist,
		Values:         d.checkValues(ctx),
	}

	if err := d.svc.Refresh(ctx); err != nil {
		report.Refresh.Error = err.Error()
	} else {
		report.Refresh.OK = true
	}

	report.Refresh.Slides = d.svc.Slides()

	return report
}

// RefreshData forces a refresh.
func (d *Diagnostics) RefreshData(ctx context.Context) error {
	return d.svc.Refresh(ctx)
}

// CurrentSlides returns the slides on display.
func (d *Diagnostics) CurrentSlides() []models.Slide {
	return d.svc.Slides()
}

// FormatReport describes the sheet layout the kiosk expects, and optionally
// how the live sheet compares.
type FormatReport struct {
	Live           *ValuesCheck `json:"live,omitempty"`
	SheetName      string       `json:"sheetName"`
	SpreadsheetURL string       `json:"spreadsheetUrl"`
	Headers        []string     `json:"headers"`
	ExampleRow     []string     `json:"exampleRow"`
}

// CheckSpreadsheetFormat returns the expected format. When live is true the
// sheet's header row is read and validated against it.
func (d *Diagnostics) CheckSpreadsheetFormat(ctx context.Context, live bool) FormatReport {
	report := FormatReport{
		SheetName:      d.sheet,
		SpreadsheetURL: d.client.Endpoints().Edit,
		Headers:        validator.ExpectedHeaders,
		ExampleRow:     []string{"https://drive.google.com/...", "Event description", "Event Title", "001"},
	}

	if live {
		check := d.checkValues(ctx)
		report.Live = &check
	}

	return report
}

// ImageTest is the outcome of converting, and optionally loading, one image address.
type ImageTest struct {
	Check *crawler.ImageCheck `json:"check,omitempty"`
	imageurl.Result
	Title   string `json:"title,omitempty"`
	IsValid bool   `json:"isValid"`
}

// TestImageURL converts raw and, with a checker configured, tries to load the result.
func (d *Diagnostics) TestImageURL(ctx context.Context, raw string) ImageTest {
	res := d.images.Explain(raw)

	test := ImageTest{
		Result:  res,
		IsValid: res.IsDirect,
	}

	if d.checker != nil && utils.NewHTTPHelper().IsValidURL(res.Converted) {
		check := d.checker.Check(ctx, res.Converted)
		test.Check = &check
	}

	return test
}

// TestAllImages runs TestImageURL for every slide with an image.
func (d *Diagnostics) TestAllImages(ctx context.Context) ([]ImageTest, error) {
	slides := d.svc.Slides()
	if len(slides) == 0 {
		return nil, ErrNoSlides
	}

	tests := make([]ImageTest, 0, len(slides))

	for _, s := range slides {
		if strings.TrimSpace(s.RawImageURL) == "" {
			tests = append(tests, ImageTest{Title: s.Title, Result: imageurl.Result{Converted: s.ImageURL, Rule: "no image"}})

			continue
		}

		test := d.TestImageURL(ctx, s.RawImageURL)
		test.Title = s.Title
		tests = append(tests, test)
	}

	return tests, nil
}

// URLTypeCase is one sample address of a known hosting service.
type URLTypeCase struct {
	Name   string `json:"name"`
	Input  string `json:"input"`
	Output string `json:"output"`
	Rule   string `json:"rule"`
	Valid  bool   `json:"valid"`
}

// SampleURLs are representative addresses operators paste into the sheet.
var SampleURLs = []struct{ Name, URL string }{
	{"Google Drive - /file/d/ format", "https://drive.google.com/file/d/1ABC123xyz/view?usp=sharing"},
	{"Google Drive - /open?id= format", "https://drive.google.com/open?id=1ABC123xyz"},
	{"Google Drive - uc export format (already correct)", "https://drive.google.com/uc?export=view&id=1_eyhbQb8nYXUOU9FZzU_Kx_Q3f_Z-vZ0"},
	{"Dropbox - sharing link", "https://www.dropbox.com/s/abc123/image.jpg?dl=0"},
	{"Dropbox - direct link", "https://dropbox.com/s/abc123/photo.png"},
	{"OneDrive - view link", "https://onedrive.live.com/view.aspx?resid=ABC123&ithint=file%2cjpg"},
	{"OneDrive - short link", "https://1drv.ms/i/s!ABC123"},
	{"Imgur - page link", "https://imgur.com/ABC123"},
	{"Imgur - direct image", "https://i.imgur.com/ABC123.jpg"},
	{"GitHub - blob link", "https://github.com/user/repo/blob/main/image.png"},
	{"GitHub - raw link", "https://raw.githubusercontent.com/user/repo/main/image.png"},
	{"Yahoo Image Search", "https://images.search.yahoo.com/images/view?back=...&imgurl=https%3A%2F%2Fexample.com%2Fimage.jpg"},
	{"Google Image Search", "https://www.google.com/imgres?imgurl=https%3A%2F%2Fexample.com%2Fimage.jpg"},
	{"Direct Image - JPG", "https://example.com/image.jpg"},
	{"Direct Image - CDN", "https://cdn.example.com/photos/12345.png"},
}

// TestURLTypes converts every sample address without network access.
func (d *Diagnostics) TestURLTypes() []URLTypeCase {
	cases := make([]URLTypeCase, len(SampleURLs))

	for i, sample := range SampleURLs {
		res := d.images.Explain(sample.URL)
		cases[i] = URLTypeCase{
			Name:   sample.Name,
			Input:  sample.URL,
			Output: res.Converted,
			Rule:   res.Rule,
			Valid:  res.IsDirect,
		}
	}

	return cases
}

func (d *Diagnostics) checkValues(ctx context.Context) ValuesCheck {
	vr, err := d.client.GetValues(ctx)
	if err != nil {
		return ValuesCheck{Error: err.Error(), StatusCode: crawler.StatusCodeOf(err)}
	}

	rows := vr.Strings()
	check := ValuesCheck{TotalRows: len(rows), OK: len(rows) > 1}

	if len(rows) == 0 {
		check.Error = "sheet is empty"

		return check
	}

	check.Headers = rows[0]
	check.Schema = d.schema.ValidateHeaders(rows[0])

	end := min(len(rows), 1+d.sampleSz)
	check.Sample = rows[1:end]

	if len(rows) == 1 {
		check.Error = "sheet has headers but no data rows"
	}

	return check
}
