package models

import "testing"

func TestTabularRow_Get(t *testing.T) {
	row := TabularRow{"imageurl": "", "image_url": "u"}

	if got := row.Get("imageurl", "image_url"); got != "u" {
		t.Errorf("Get() = %q, want u", got)
	}

	if got := row.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
}

func TestSlideRecord_Row(t *testing.T) {
	r := SlideRecord{Title: "A", Description: "B", ImageURL: "C", CampusID: "D"}
	row := r.Row()

	if row.Get("title") != "A" || row.Get("imageurl") != "C" || row.Get("campusid") != "D" {
		t.Errorf("unexpected row: %v", row)
	}

	if got := RecordFields([]SlideRecord{r}); len(got) != 1 || got[0][3] != "D" {
		t.Errorf("unexpected fields: %v", got)
	}
}

func TestSlideSet_Len(t *testing.T) {
	var nilSet *SlideSet
	if nilSet.Len() != 0 {
		t.Error("nil set should have length 0")
	}

	set := &SlideSet{Slides: []Slide{{Title: "A"}}}
	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}
}
