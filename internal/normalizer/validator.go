package normalizer

import (
	"errors"

	"kiosk/internal/logger"
	"kiosk/internal/models"
	"kiosk/pkg/utils"
)

// ErrNoValidSlides is returned when no row carries a title.
var ErrNoValidSlides = errors.New("no valid slides found in spreadsheet")

// Column keys read from a row, in lookup order.
var (
	TitleKeys       = []string{"title"}
	DescriptionKeys = []string{"description"}
	ImageKeys       = []string{"imageurl", "image_url"}
	CampusKeys      = []string{"campusid", "campus_id"}
)

// Report summarizes one validation pass.
type Report struct {
	MissingImageTitles []string `json:"missingImageTitles,omitempty"`
	Total              int      `json:"total"`
	Kept               int      `json:"kept"`
	DroppedNoTitle     int      `json:"droppedNoTitle"`
	MissingImage       int      `json:"missingImage"`
}

// Validator turns parsed rows into slide records.
type Validator struct {
	log  *logger.Logger
	text *utils.StringHelper
}

// NewValidator creates a new validator instance.
func NewValidator(log *logger.Logger) *Validator {
	if log == nil {
		log = logger.Discard()
	}

	return &Validator{log: log, text: utils.NewStringHelper()}
}

// Validate drops rows whose title is absent or blank. Rows without an image
// are kept and counted. An empty result returns ErrNoValidSlides.
func (v *Validator) Validate(rows []models.TabularRow) ([]models.SlideRecord, Report, error) {
	report := Report{Total: len(rows)}
	records := make([]models.SlideRecord, 0, len(rows))

	for _, row := range rows {
		title := row.Get(TitleKeys...)
		if v.text.IsBlank(title) {
			report.DroppedNoTitle++

			continue
		}

		record := models.SlideRecord{
			Title:       title,
			Description: row.Get(DescriptionKeys...),
			ImageURL:    row.Get(ImageKeys...),
			CampusID:    row.Get(CampusKeys...),
		}

		if v.text.IsBlank(record.ImageURL) {
			report.MissingImage++
			report.MissingImageTitles = append(report.MissingImageTitles, title)
		}

		records = append(records, record)
	}

	report.Kept = len(records)

	if report.MissingImage > 0 {
		v.log.Warn("⚠️ Slides have missing image URLs", "count", report.MissingImage)

		for _, title := range report.MissingImageTitles {
			v.log.Debug("slide has no image URL - will use placeholder", "title", title)
		}
	}

	if len(records) == 0 {
		v.log.Warn("⚠️ No valid slides found (missing title)", "rows", report.Total)

		return nil, report, ErrNoValidSlides
	}

	return records, report, nil
}
