// Package panels serves the static information sections of the kiosk menu.
package panels

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"kiosk/internal/models"
)

//go:embed panels.yaml
var defaultPanels []byte

// Fallback is returned for unknown sections.
var Fallback = models.Panel{
	Title:   "Information",
	Content: "<p>Content not available.</p>",
}

// Catalog errors.
var (
	ErrMissingID   = errors.New("panel id is required")
	ErrDuplicateID = errors.New("duplicate panel id")
)

// Catalog holds panels in menu order.
type Catalog struct {
	byID   map[string]models.Panel
	panels []models.Panel
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultPanels)
	if err != nil {
		panic(fmt.Sprintf("embedded panels: %v", err))
	}

	return c
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read panels file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML list of panels.
func Parse(data []byte) (*Catalog, error) {
	var list []models.Panel
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse panels: %w", err)
	}

	c := &Catalog{byID: make(map[string]models.Panel, len(list))}

	for i, p := range list {
		p.ID = strings.ToLower(strings.TrimSpace(p.ID))
		if p.ID == "" {
			return nil, fmt.Errorf("panel %d: %w", i+1, ErrMissingID)
		}

		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}

		p.Content = strings.TrimSpace(p.Content)
		c.byID[p.ID] = p
		c.panels = append(c.panels, p)
	}

	return c, nil
}

// Get returns the panel for section, or Fallback when there is none.
// The second result reports whether the section exists.
func (c *Catalog) Get(section string) (models.Panel, bool) {
	id := strings.ToLower(strings.TrimSpace(section))

	p, ok := c.byID[id]
	if !ok {
		fb := Fallback
		fb.ID = id

		return fb, false
	}

	return p, true
}

// Menu returns the panels without content, in menu order.
func (c *Catalog) Menu() []models.Panel {
	menu := make([]models.Panel, len(c.panels))

	for i, p := range c.panels {
		p.Content = ""
		menu[i] = p
	}

	return menu
}

// Len returns the number of panels.
func (c *Catalog) Len() int {
	return len(c.panels)
}
