package web

import (
	"context"
	"sync"
	"time"

	"kiosk/internal/kiosk"
	"kiosk/internal/models"
)

// Surface is the presenter behind the HTTP API. Display clients poll it and
// reload when Version or ResetVersion changes.
type Surface struct {
	clock        kiosk.ClockFace
	message      string
	mu           sync.RWMutex
	version      uint64
	resetVersion uint64
	slides       int
	loading      bool
}

// SurfaceState is a consistent copy of the surface.
type SurfaceState struct {
	Clock        kiosk.ClockFace `json:"clock"`
	Message      string          `json:"message,omitempty"`
	Version      uint64          `json:"version"`
	ResetVersion uint64          `json:"resetVersion"`
	Slides       int             `json:"slides"`
	Loading      bool            `json:"loading"`
}

// NewSurface creates an empty surface.
func NewSurface() *Surface {
	return &Surface{}
}

func (s *Surface) RenderSlides(_ context.Context, slides []models.Slide) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.version++
	s.slides = len(slides)
	s.message = ""
}

func (s *Surface) ShowError(_ context.Context, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.version++
	s.slides = 0
	s.message = message
}

func (s *Surface) ShowLoading(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = true
}

func (s *Surface) HideLoading(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false
}

// Reset asks displays to close open panels and restart the slideshow.
func (s *Surface) Reset(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetVersion++
}

func (s *Surface) ShowTime(_ context.Context, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clock = kiosk.Face(t)
}

// State returns a copy of the surface.
func (s *Surface) State() SurfaceState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SurfaceState{
		Clock:        s.clock,
		Message:      s.message,
		Version:      s.version,
		ResetVersion: s.resetVersion,
		Slides:       s.slides,
		Loading:      s.loading,
	}
}
