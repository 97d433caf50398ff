package tabular

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk/internal/models"
)

func TestHeaderKey(t *testing.T) {
	tests := map[string]string{
		"Title":        "title",
		"Image URL":    "imageurl",
		"image_url":    "image_url",
		" Campus ID ":  "campusid",
		"Campus-ID":    "campusid",
		"Description:": "description",
		"!!!":          "",
	}

	for in, want := range tests {
		assert.Equal(t, want, HeaderKey(in), in)
	}
}

func TestUnderscoreKey(t *testing.T) {
	assert.Equal(t, "image_url", UnderscoreKey("Image URL"))
	assert.Equal(t, "campus_id", UnderscoreKey("Campus   ID"))
	assert.Equal(t, "title", UnderscoreKey("TITLE"))
}

func TestSplitCSVLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{name: "plain", line: "a,b,c", want: []string{"a", "b", "c"}},
		{name: "trimmed", line: " a , b ", want: []string{"a", "b"}},
		{name: "quoted comma", line: `A,"B, C"`, want: []string{"A", "B, C"}},
		{name: "empty fields", line: ",,", want: []string{"", "", ""}},
		{name: "single", line: "only", want: []string{"only"}},
		{name: "doubled quotes are not collapsed", line: `A,"x ""y"" z"`, want: []string{"A", "x y z"}},
		{name: "carriage return", line: "a,b\r", want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, SplitCSVLine(tt.line)); diff != "" {
				t.Errorf("SplitCSVLine(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestParseCSV(t *testing.T) {
	rows, ok := ParseCSV("Title,Image URL\nHello,http://x.com/a.jpg\n")
	require.True(t, ok)

	want := []models.TabularRow{{"title": "Hello", "imageurl": "http://x.com/a.jpg"}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("ParseCSV mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCSV_QuotedComma(t *testing.T) {
	rows, ok := ParseCSV("Title,Desc\nA,\"B, C\"\n")
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "B, C", rows[0]["desc"])
}

func TestParseCSV_QuotedHeaderAndCRLF(t *testing.T) {
	rows, ok := ParseCSV("\"Title\",\"Image URL\",\"Campus_ID\"\r\nNews,,ACCESS\r\n")
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, models.TabularRow{"title": "News", "imageurl": "", "campus_id": "ACCESS"}, rows[0])
}

func TestParseCSV_NoUsableData(t *testing.T) {
	tests := map[string]string{
		"empty":        "",
		"blank lines":  "\n \n\n",
		"header only":  "Title,Image URL\n",
		"blank titles": "Title,Image URL\n ,http://x.com/a.jpg\n,\n",
	}

	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			rows, ok := ParseCSV(text)
			assert.False(t, ok)
			assert.Empty(t, rows)
		})
	}
}

func TestParseCSV_SkipsBlankLinesAndShortRows(t *testing.T) {
	rows, ok := ParseCSV("\nTitle,Description,Image URL\n\nFirst\nSecond,Body,u\n")
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, models.TabularRow{"title": "First", "description": "", "imageurl": ""}, rows[0])
	assert.Equal(t, "u", rows[1]["imageurl"])
}

func TestCSVHeaders(t *testing.T) {
	assert.Equal(t, []string{"Title", "Image URL"}, CSVHeaders("\n\"Title\", Image URL\nx,y"))
	assert.Nil(t, CSVHeaders("  \n"))
}

func TestParseValues(t *testing.T) {
	rows := ParseValues([][]string{
		{"Title", "Image URL"},
		{"Hi", "u"},
		{"Short"},
	})

	want := []models.TabularRow{
		{"title": "Hi", "imageurl": "u"},
		{"title": "Short", "imageurl": ""},
	}

	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("ParseValues mismatch (-want +got):\n%s", diff)
	}

	assert.Nil(t, ParseValues([][]string{{"Title"}}))
	assert.Nil(t, ParseValues(nil))
}

func TestParseCellMatrix(t *testing.T) {
	payload := `{
		"cols": [{"id": "A", "label": "", "type": "string"}, {"id": "B", "label": "", "type": "string"}, {"id": "C", "type": "number"}],
		"rows": [
			{"c": [{"v": "Title"}, {"v": "Image URL"}, {"v": "Campus ID"}]},
			{"c": [{"v": "Enrollment"}, {"v": "https://x.com/a.png"}, {"v": 3}]},
			{"c": [{"v": "No image"}, null, {"v": 1.5}]},
			{"c": [null, {"v": "https://x.com/b.png"}, null]}
		]
	}`

	var table Table
	require.NoError(t, json.Unmarshal([]byte(payload), &table))

	rows := ParseCellMatrix(table, "title", "image_url")
	require.Len(t, rows, 1)
	assert.Equal(t, models.TabularRow{"title": "Enrollment", "image_url": "https://x.com/a.png", "campus_id": "3"}, rows[0])

	all := ParseCellMatrix(table)
	require.Len(t, all, 3)
	assert.Equal(t, "1.5", all[1]["campus_id"])
	assert.Equal(t, "", all[2]["title"])
}

func TestCellValue(t *testing.T) {
	var nilCell *Cell

	assert.Equal(t, "", nilCell.Value())
	assert.Equal(t, "true", (&Cell{V: true}).Value())
	assert.Equal(t, "42", (&Cell{V: float64(42)}).Value())
	assert.Equal(t, "Date(2024,0,1)", (&Cell{V: "Date(2024,0,1)"}).Value())
	assert.Equal(t, "formatted", (&Cell{V: map[string]any{"x": 1}, F: "formatted"}).Value())
}

func TestBuildRow_DuplicateAndBlankHeaders(t *testing.T) {
	row := buildRow([]string{"Title", "", "TITLE", "%%"}, []string{"a", "b", "c", "d"}, HeaderKey)
	assert.Equal(t, models.TabularRow{"title": "c"}, row)
}
