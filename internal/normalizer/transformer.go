package normalizer

import (
	"strings"

	"kiosk/internal/imageurl"
	"kiosk/internal/models"
)

// Transformer prepares slide records for the presentation surface.
type Transformer struct {
	images *imageurl.Normalizer
}

// NewTransformer creates a transformer using images for URL rewriting.
func NewTransformer(images *imageurl.Normalizer) *Transformer {
	if images == nil {
		images = imageurl.New()
	}

	return &Transformer{images: images}
}

// Transform maps records to slides. Records without an image get the
// announcement placeholder instead of the generic empty one.
func (t *Transformer) Transform(records []models.SlideRecord) []models.Slide {
	slides := make([]models.Slide, len(records))

	for i, r := range records {
		image := t.images.Placeholder().Announcement()
		if strings.TrimSpace(r.ImageURL) != "" {
			image = t.images.Normalize(r.ImageURL)
		}

		slides[i] = models.Slide{
			Title:       strings.TrimSpace(r.Title),
			Description: r.Description,
			Campus:      r.CampusID,
			ImageURL:    image,
			RawImageURL: r.ImageURL,
			Index:       i,
		}
	}

	return slides
}
