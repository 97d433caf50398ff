package utils

import "testing"

func TestStringHelper_TruncateString(t *testing.T) {
	s := NewStringHelper()

	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "short", input: "abc", max: 30, want: "abc"},
		{name: "exact", input: "abcde", max: 5, want: "abcde"},
		{name: "cut", input: "abcdef", max: 3, want: "abc..."},
		{name: "multibyte", input: "宏福苑大火", max: 2, want: "宏福..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.TruncateString(tt.input, tt.max); got != tt.want {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestStringHelper_IsBlank(t *testing.T) {
	s := NewStringHelper()

	if !s.IsBlank(" \t\n") {
		t.Error("IsBlank should be true for whitespace")
	}

	if s.IsBlank(" x ") {
		t.Error("IsBlank should be false for text")
	}
}

func TestHTTPHelper_IsValidURL(t *testing.T) {
	h := NewHTTPHelper()

	valid := []string{"http://x.com/a.jpg", "https://example.com", " https://example.com/path?q=1 "}
	for _, u := range valid {
		if !h.IsValidURL(u) {
			t.Errorf("IsValidURL(%q) = false, want true", u)
		}
	}

	invalid := []string{"", "example.com/a.jpg", "ftp://example.com/a", "https://", "not a url"}
	for _, u := range invalid {
		if h.IsValidURL(u) {
			t.Errorf("IsValidURL(%q) = true, want false", u)
		}
	}
}

func TestHTTPHelper_BuildHeaders(t *testing.T) {
	h := NewHTTPHelper()

	headers := h.BuildHeaders(map[string]string{"Accept": "text/csv"})

	if got := headers.Get("User-Agent"); got != UserAgent {
		t.Errorf("User-Agent = %q, want %q", got, UserAgent)
	}

	if got := headers.Get("Accept"); got != "text/csv" {
		t.Errorf("Accept = %q, want text/csv", got)
	}
}

func TestStringHelper_NormalizeWhitespace(t *testing.T) {
	s := NewStringHelper()

	if got := s.NormalizeWhitespace("  a \n\t b  c "); got != "a b c" {
		t.Errorf("NormalizeWhitespace = %q, want %q", got, "a b c")
	}
}
