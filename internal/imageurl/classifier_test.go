package imageurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDirectImageURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"https://example.com/a.JPG", true},
		{"https://example.com/a.png?size=large", true},
		{"https://i.imgur.com/x", true},
		{"https://example.com/photos/42", true},
		{"https://example.com/gallery/picture-of-day", true},
		{"https://example.com/about", false},
		{"https://www.facebook.com/page", false},
		{"plain words", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDirectImageURL(tt.in))
		})
	}
}

func TestImageHosts_ReturnsCopy(t *testing.T) {
	hosts := ImageHosts()
	hosts[0] = "changed"

	assert.NotEqual(t, "changed", ImageHosts()[0])
}

func TestPlaceholder(t *testing.T) {
	p := DefaultPlaceholder()

	assert.Equal(t, placeholderBase+"?text=SKSU+Announcement", p.Announcement())
	assert.Equal(t, placeholderBase+"?text=SKSU+Image+Not+Available", p.Unavailable())
	assert.True(t, p.IsPlaceholder(p.Empty()))
	assert.False(t, p.IsPlaceholder("https://example.com/a.jpg"))
	assert.Equal(t, placeholderBase+"?text=a%20b%26c", p.Text("a b&c"))
}
