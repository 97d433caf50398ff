package kiosk

import (
	"context"
	"time"

	"kiosk/internal/formatter"
	"kiosk/internal/logger"
	"kiosk/internal/models"
)

// Presenter is the display surface driven by the service.
type Presenter interface {
	RenderSlides(ctx context.Context, slides []models.Slide)
	ShowError(ctx context.Context, message string)
	ShowLoading(ctx context.Context)
	HideLoading(ctx context.Context)
}

// Resetter is implemented by presenters that can return to the home screen
// when the kiosk goes idle.
type Resetter interface {
	Reset(ctx context.Context)
}

// ClockPresenter is implemented by presenters that show the current time.
type ClockPresenter interface {
	ShowTime(ctx context.Context, t time.Time)
}

// LogPresenter writes what a display would show to the log.
type LogPresenter struct {
	log   *logger.Logger
	table *formatter.Formatter
}

// NewLogPresenter creates a presenter that logs slides as a table at debug level.
func NewLogPresenter(log *logger.Logger) *LogPresenter {
	if log == nil {
		log = logger.Discard()
	}

	return &LogPresenter{log: log, table: formatter.New(formatter.DefaultCellWidth)}
}

func (p *LogPresenter) RenderSlides(_ context.Context, slides []models.Slide) {
	p.log.Info("🖼️ Rendering slides", "count", len(slides))
	p.log.Debug("slides\n" + p.table.Slides(slides))
}

func (p *LogPresenter) ShowError(_ context.Context, message string) {
	p.log.Error("❌ Display error", "message", message)
}

func (p *LogPresenter) ShowLoading(_ context.Context) {
	p.log.Debug("loading")
}

func (p *LogPresenter) HideLoading(_ context.Context) {
	p.log.Debug("loading done")
}

func (p *LogPresenter) Reset(_ context.Context) {
	p.log.Info("Kiosk idle timeout - returning to home")
}

// Presenters fans out to several presenters in order.
type Presenters []Presenter

func (ps Presenters) RenderSlides(ctx context.Context, slides []models.Slide) {
	for _, p := range ps {
		p.RenderSlides(ctx, slides)
	}
}

func (ps Presenters) ShowError(ctx context.Context, message string) {
	for _, p := range ps {
		p.ShowError(ctx, message)
	}
}

func (ps Presenters) ShowLoading(ctx context.Context) {
	for _, p := range ps {
		p.ShowLoading(ctx)
	}
}

func (ps Presenters) HideLoading(ctx context.Context) {
	for _, p := range ps {
		p.HideLoading(ctx)
	}
}

func (ps Presenters) Reset(ctx context.Context) {
	for _, p := range ps {
		if r, ok := p.(Resetter); ok {
			r.Reset(ctx)
		}
	}
}

func (ps Presenters) ShowTime(ctx context.Context, t time.Time) {
	for _, p := range ps {
		if c, ok := p.(ClockPresenter); ok {
			c.ShowTime(ctx, t)
		}
	}
}
