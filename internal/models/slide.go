// Package models defines data structures shared by the acquisition pipeline and the kiosk service.
package models

import "time"

// TabularRow maps a normalized header key to the raw cell value of one data row.
type TabularRow map[string]string

// Get returns the first non-empty value among keys.
func (r TabularRow) Get(keys ...string) string {
	for _, key := range keys {
		if v, ok := r[key]; ok && v != "" {
			return v
		}
	}

	return ""
}

// SlideRecord is one announcement as read from the spreadsheet.
type SlideRecord struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	CampusID    string `json:"campusId"`
}

// HasImage reports whether the record carries an image URL.
func (r SlideRecord) HasImage() bool {
	return r.ImageURL != ""
}

// Slide is a SlideRecord prepared for the presentation surface.
type Slide struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Campus      string `json:"campus"`
	ImageURL    string `json:"imageUrl"`
	RawImageURL string `json:"rawImageUrl,omitempty"`
	Index       int    `json:"index"`
}

// SlideSet is the complete output of one successful acquisition pass.
type SlideSet struct {
	FetchedAt time.Time     `json:"fetchedAt"`
	RunID     string        `json:"runId"`
	Strategy  string        `json:"strategy"`
	Hash      string        `json:"hash"`
	Records   []SlideRecord `json:"records"`
	Slides    []Slide       `json:"slides"`
}

// Len returns the number of slides in the set.
func (s *SlideSet) Len() int {
	if s == nil {
		return 0
	}

	return len(s.Slides)
}

// Fields returns the record's values in column order: title, description, image URL, campus.
func (r SlideRecord) Fields() []string {
	return []string{r.Title, r.Description, r.ImageURL, r.CampusID}
}

// RecordFields returns Fields for each record.
func RecordFields(records []SlideRecord) [][]string {
	out := make([][]string, len(records))
	for i, r := range records {
		out[i] = r.Fields()
	}

	return out
}

// Row converts the record back into a TabularRow with canonical keys.
func (r SlideRecord) Row() TabularRow {
	return TabularRow{
		"title":       r.Title,
		"description": r.Description,
		"imageurl":    r.ImageURL,
		"campusid":    r.CampusID,
	}
}
