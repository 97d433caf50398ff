package imageurl

import (
	"net/url"
	"strings"

	"kiosk/pkg/utils"
)

const (
	// DefaultPlaceholderBaseURL is the placeholder image service with size and colors baked in.
	DefaultPlaceholderBaseURL = "https://via.placeholder.com/800x400/28a745/ffffff"
	// DefaultPlaceholderLabel prefixes generated placeholder text.
	DefaultPlaceholderLabel = "SKSU"

	addressPreviewLength = 30
)

// Placeholder builds placeholder image URLs whose text payload explains what went wrong.
type Placeholder struct {
	BaseURL string
	Label   string
}

// DefaultPlaceholder returns the kiosk's standard placeholder settings.
func DefaultPlaceholder() Placeholder {
	return Placeholder{
		BaseURL: DefaultPlaceholderBaseURL,
		Label:   DefaultPlaceholderLabel,
	}
}

// Empty is returned for blank input.
func (p Placeholder) Empty() string {
	return p.base() + "?text=No+Image"
}

// Announcement is shown for slides that carry no image at all.
func (p Placeholder) Announcement() string {
	return p.base() + "?text=" + url.QueryEscape(p.label()+" Announcement")
}

// Unavailable is shown when an image fails to load on the display.
func (p Placeholder) Unavailable() string {
	return p.base() + "?text=" + url.QueryEscape(p.label()+" Image Not Available")
}

// Text returns a placeholder carrying an arbitrary message.
func (p Placeholder) Text(text string) string {
	return p.base() + "?text=" + encodeComponent(text)
}

// ForAddress returns a placeholder naming a truncated form of the address that could not be rendered.
func (p Placeholder) ForAddress(address string) string {
	short := utils.NewStringHelper().TruncateString(address, addressPreviewLength)

	return p.Text(p.label() + " - Image from: " + short)
}

// IsPlaceholder reports whether u points at the placeholder service.
func (p Placeholder) IsPlaceholder(u string) bool {
	return strings.HasPrefix(strings.ToLower(u), strings.ToLower(p.base()))
}

func (p Placeholder) base() string {
	if p.BaseURL == "" {
		return DefaultPlaceholderBaseURL
	}

	return strings.TrimRight(p.BaseURL, "?")
}

func (p Placeholder) label() string {
	if p.Label == "" {
		return DefaultPlaceholderLabel
	}

	return p.Label
}

// encodeComponent escapes s the way browsers' encodeURIComponent does.
func encodeComponent(s string) string {
	const unreserved = "-_.!~*'()"

	var sb strings.Builder

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			sb.WriteByte(c)
		case strings.IndexByte(unreserved, c) >= 0:
			sb.WriteByte(c)
		default:
			sb.WriteByte('%')
			sb.WriteByte("0123456789ABCDEF"[c>>4])
			sb.WriteByte("0123456789ABCDEF"[c&0x0F])
		}
	}

	return sb.String()
}
