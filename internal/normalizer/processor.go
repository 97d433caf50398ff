// Package normalizer turns parsed spreadsheet rows into presentable slides.
package normalizer

import (
	"fmt"

	"kiosk/internal/imageurl"
	"kiosk/internal/logger"
	"kiosk/internal/models"
)

// Processor handles data processing and transformation.
type Processor struct {
	validator   *Validator
	transformer *Transformer
}

// NewProcessor creates a new processor instance.
func NewProcessor(images *imageurl.Normalizer, log *logger.Logger) *Processor {
	return &Processor{
		validator:   NewValidator(log),
		transformer: NewTransformer(images),
	}
}

// Result is the output of one processing pass.
type Result struct {
	Records []models.SlideRecord
	Slides  []models.Slide
	Report  Report
}

// Process validates rows and transforms the surviving records into slides.
func (p *Processor) Process(rows []models.TabularRow) (*Result, error) {
	// 1. Validate the input data
	records, report, err := p.validator.Validate(rows)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// 2. Transform the data
	return &Result{
		Records: records,
		Slides:  p.transformer.Transform(records),
		Report:  report,
	}, nil
}

// Slides transforms already validated records, as loaded from a snapshot.
func (p *Processor) Slides(records []models.SlideRecord) []models.Slide {
	return p.transformer.Transform(records)
}
