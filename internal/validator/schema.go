// Package validator checks a sheet's header row against the columns the kiosk reads.
package validator

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"kiosk/internal/models"
	"kiosk/internal/tabular"
	"kiosk/pkg/utils"
)

// Schema errors.
var (
	ErrMissingTitleColumn = errors.New("title column is required")
	ErrMissingImageColumn = errors.New("image URL column is required")
	ErrNoHeaders          = errors.New("header row is empty")
)

// ExpectedHeaders is the header row operators are asked to use.
var ExpectedHeaders = []string{"Image URL", "Description", "Title", "Campus_ID"}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Err     error  `json:"-"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}

	return e.Message
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Errors   []ValidationError `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Stats    ValidationStats   `json:"stats"`
	IsValid  bool              `json:"isValid"`
}

// Err joins the result's errors, or returns nil when valid.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}

	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}

	return errors.Join(errs...)
}

// ValidationStats contains statistics about a validated sheet.
type ValidationStats struct {
	Columns           int `json:"columns"`
	RecognizedColumns int `json:"recognizedColumns"`
	TotalRows         int `json:"totalRows"`
	RowsWithTitle     int `json:"rowsWithTitle"`
	RowsWithImage     int `json:"rowsWithImage"`
	InvalidImageURLs  int `json:"invalidImageUrls"`
}

// column describes one accepted header and its spellings.
type column struct {
	name     string
	keys     []string
	required bool
}

var columns = []column{
	{name: "title", keys: []string{"title"}, required: true},
	{name: "image URL", keys: []string{"imageurl", "image_url"}, required: true},
	{name: "description", keys: []string{"description"}},
	{name: "campus ID", keys: []string{"campusid", "campus_id"}},
}

// SchemaValidator validates sheet headers and rows.
type SchemaValidator struct {
	http *utils.HTTPHelper
}

// NewSchemaValidator creates a new schema validator.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{http: utils.NewHTTPHelper()}
}

// ValidateHeaders checks raw header cells, keyed the same way the parsers key them.
func (v *SchemaValidator) ValidateHeaders(headers []string) *ValidationResult {
	keys := make([]string, 0, len(headers))

	for _, h := range headers {
		keys = append(keys, tabular.HeaderKey(h))
	}

	result := v.validateKeys(keys)

	for i, h := range headers {
		if strings.TrimSpace(h) == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("column %d has an empty header and is ignored", i+1))
		}
	}

	return result
}

// ValidateRows checks the keys present in parsed rows and counts usable values.
func (v *SchemaValidator) ValidateRows(rows []models.TabularRow) *ValidationResult {
	seen := make(map[string]bool)

	var keys []string

	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	slices.Sort(keys)

	result := v.validateKeys(keys)
	result.Stats.TotalRows = len(rows)

	for i, row := range rows {
		if strings.TrimSpace(row.Get("title")) != "" {
			result.Stats.RowsWithTitle++
		}

		image := strings.TrimSpace(row.Get("imageurl", "image_url"))
		if image == "" {
			continue
		}

		result.Stats.RowsWithImage++

		if !v.http.IsValidURL(image) {
			result.Stats.InvalidImageURLs++
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: image URL %q is not an http(s) address", i+2, image))
		}
	}

	if len(rows) > 0 && result.Stats.RowsWithTitle == 0 {
		result.Warnings = append(result.Warnings, "no row has a title; every row will be skipped")
	}

	return result
}

func (v *SchemaValidator) validateKeys(keys []string) *ValidationResult {
	result := &ValidationResult{IsValid: true}
	result.Stats.Columns = len(keys)

	present := make(map[string]int)

	for i, k := range keys {
		if k == "" {
			continue
		}

		if _, dup := present[k]; dup {
			result.Warnings = append(result.Warnings, fmt.Sprintf("column %q appears more than once; the last one wins", k))
		}

		present[k] = i + 1
	}

	if len(present) == 0 {
		result.IsValid = false
		result.Errors = append(result.Errors, ValidationError{Err: ErrNoHeaders, Message: ErrNoHeaders.Error()})

		return result
	}

	recognized := make(map[string]bool)

	for _, col := range columns {
		found := ""

		for _, k := range col.keys {
			if _, ok := present[k]; ok {
				if found != "" {
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("both %q and %q present; %q is used", found, k, found))
				} else {
					found = k
				}

				recognized[k] = true
			}
		}

		switch {
		case found != "":
		case col.required:
			result.IsValid = false
			result.Errors = append(result.Errors, ValidationError{
				Err:     requiredErr(col.name),
				Field:   col.name,
				Message: fmt.Sprintf("missing column (expected one of %s)", strings.Join(col.keys, ", ")),
			})
		default:
			result.Warnings = append(result.Warnings, fmt.Sprintf("optional %s column not found", col.name))
		}
	}

	for k := range present {
		if recognized[k] {
			result.Stats.RecognizedColumns++
		}
	}

	for i, k := range keys {
		if k != "" && !recognized[k] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("column %d (%q) is not used by the kiosk", i+1, k))
		}
	}

	return result
}

func requiredErr(name string) error {
	if name == "title" {
		return ErrMissingTitleColumn
	}

	return ErrMissingImageColumn
}
