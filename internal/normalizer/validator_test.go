package normalizer

import (
	"errors"
	"testing"

	"kiosk/internal/models"
)

func TestNewValidator(t *testing.T) {
	v := NewValidator(nil)
	if v == nil {
		t.Fatal("NewValidator returned nil")
	}
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(nil)

	rows := []models.TabularRow{
		{"title": "Enrollment", "description": "Opens Monday", "imageurl": "https://x.com/a.jpg", "campusid": "ACCESS"},
		{"title": "   ", "imageurl": "https://x.com/b.jpg"},
		{"description": "no title key"},
		{"title": "Foundation Day", "image_url": "", "campus_id": "Tacurong"},
	}

	records, report, err := v.Validate(rows)
	if err != nil {
		t.Fatalf("Validate returned unexpected error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	want := models.SlideRecord{Title: "Enrollment", Description: "Opens Monday", ImageURL: "https://x.com/a.jpg", CampusID: "ACCESS"}
	if records[0] != want {
		t.Errorf("records[0] = %+v, want %+v", records[0], want)
	}

	if records[1].CampusID != "Tacurong" {
		t.Errorf("Expected campus from campus_id, got %q", records[1].CampusID)
	}

	if report.Total != 4 || report.Kept != 2 || report.DroppedNoTitle != 2 || report.MissingImage != 1 {
		t.Errorf("unexpected report: %+v", report)
	}

	if len(report.MissingImageTitles) != 1 || report.MissingImageTitles[0] != "Foundation Day" {
		t.Errorf("unexpected missing image titles: %v", report.MissingImageTitles)
	}
}

func TestValidator_Validate_ImageKeyVariants(t *testing.T) {
	v := NewValidator(nil)

	records, _, err := v.Validate([]models.TabularRow{{"title": "Hi", "image_url": "u"}})
	if err != nil {
		t.Fatalf("Validate returned unexpected error: %v", err)
	}

	if records[0].ImageURL != "u" {
		t.Errorf("Expected image from image_url, got %q", records[0].ImageURL)
	}
}

func TestValidator_Validate_NoValidSlides(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		name string
		rows []models.TabularRow
	}{
		{name: "nil rows", rows: nil},
		{name: "blank titles", rows: []models.TabularRow{{"title": ""}, {"title": "\t"}}},
		{name: "no title column", rows: []models.TabularRow{{"imageurl": "https://x.com/a.jpg"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, _, err := v.Validate(tt.rows)
			if !errors.Is(err, ErrNoValidSlides) {
				t.Errorf("Validate error = %v, want ErrNoValidSlides", err)
			}

			if len(records) != 0 {
				t.Errorf("Expected no records, got %d", len(records))
			}
		})
	}
}
