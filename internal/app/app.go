// Package app wires configuration into a running kiosk.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"kiosk/internal/config"
	"kiosk/internal/crawler"
	"kiosk/internal/imageurl"
	"kiosk/internal/kiosk"
	"kiosk/internal/logger"
	"kiosk/internal/normalizer"
	"kiosk/internal/panels"
	"kiosk/internal/pipeline"
	"kiosk/internal/store"
	"kiosk/internal/telemetry"
	"kiosk/internal/validator"
	"kiosk/internal/web"
)

// App holds every component built from a Config.
type App struct {
	Config      *config.Config
	Log         *logger.Logger
	Telemetry   telemetry.Telemetry
	Images      *imageurl.Normalizer
	Client      *crawler.SheetsClient
	Store       *store.Store
	Pipeline    *pipeline.Pipeline
	Surface     *web.Surface
	Service     *kiosk.Service
	Diagnostics *kiosk.Diagnostics
	Panels      *panels.Catalog
}

// Option adjusts how the App is built.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient makes every outbound request go through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// New builds the application graph. Close must be called to release the store
// and flush telemetry.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Log: log}

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, err
	}

	a.Telemetry = tel

	a.Images = NewImages(cfg, log)

	clientOpts := []crawler.ClientOption{crawler.WithClientLogger(log)}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, crawler.WithHTTPClient(o.httpClient))
	}

	if tel.Enabled() {
		clientOpts = append(clientOpts, crawler.WithTracing())
	}

	a.Client = crawler.NewSheetsClient(cfg.Source, cfg.Pipeline.Retry, clientOpts...)

	deps := pipeline.Deps{Client: a.Client}

	if cfg.Storage.Path != "" {
		st, err := store.Open(ctx, cfg.Storage.Path, log)
		if err != nil {
			return nil, errors.Join(err, tel.Shutdown(ctx))
		}

		a.Store = st
		deps.Store = st
	}

	if err := a.buildPipeline(deps); err != nil {
		return nil, errors.Join(err, a.Close(ctx))
	}

	if cfg.Display.PanelsPath != "" {
		a.Panels, err = panels.Load(cfg.Display.PanelsPath)
		if err != nil {
			return nil, errors.Join(err, a.Close(ctx))
		}
	} else {
		a.Panels = panels.Default()
	}

	a.Surface = web.NewSurface()

	svcOpts := kiosk.Options{
		Logger:        log,
		Location:      cfg.Location(),
		Schedule:      cfg.Pipeline.RefreshSchedule,
		IdleTimeout:   cfg.Display.IdleTimeout(),
		ClockInterval: cfg.Display.ClockInterval(),
	}
	if a.Store != nil {
		svcOpts.Saver = a.Store
	}

	a.Service = kiosk.NewService(a.Pipeline, kiosk.Presenters{a.Surface, kiosk.NewLogPresenter(log)}, svcOpts)

	if cfg.Features.EnableDiagnostics {
		checker := crawler.NewImageChecker(cfg.Pipeline.Retry.GetTimeout(), o.httpClient)
		a.Diagnostics = kiosk.NewDiagnostics(a.Service, a.Client, checker, a.Images, cfg.Source.SheetName, cfg.Source.APIKey != "")
	}

	return a, nil
}

// NewImages builds the URL normalizer from the images section.
func NewImages(cfg *config.Config, log *logger.Logger) *imageurl.Normalizer {
	imgOpts := []imageurl.Option{
		imageurl.WithLogger(log),
		imageurl.WithPlaceholder(imageurl.Placeholder{
			BaseURL: cfg.Images.PlaceholderBaseURL,
			Label:   cfg.Images.PlaceholderLabel,
		}),
	}

	if cfg.Features.EnableCaching && cfg.Images.CacheSize > 0 {
		imgOpts = append(imgOpts, imageurl.WithCache(imageurl.NewCache(cfg.Images.CacheSize, cfg.Images.CacheTTL())))
	}

	return imageurl.New(imgOpts...)
}

func (a *App) buildPipeline(deps pipeline.Deps) error {
	strategies, err := pipeline.NewStrategies(a.Config.Pipeline.Strategies, deps)
	if err != nil {
		return fmt.Errorf("failed to build strategies: %w", err)
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(a.Log),
		pipeline.WithTimeout(a.Config.Pipeline.Retry.GetStrategyTimeout()),
	}

	if a.Store != nil {
		opts = append(opts, pipeline.WithRecorder(a.Store))
	}

	if a.Config.Features.SchemaWarnings {
		opts = append(opts, pipeline.WithSchemaWarnings(validator.NewSchemaValidator()))
	}

	a.Pipeline, err = pipeline.New(strategies, normalizer.NewProcessor(a.Images, a.Log), opts...)

	return err
}

// Handler returns the HTTP surface.
func (a *App) Handler() http.Handler {
	deps := web.Deps{
		Service:     a.Service,
		Surface:     a.Surface,
		Panels:      a.Panels,
		Attempts:    a.Pipeline.Attempts(),
		Diagnostics: a.Diagnostics,
		Logger:      a.Log,
	}

	if a.Store != nil {
		deps.History = a.Store
	}

	return web.NewServer(deps, a.Config.Server, a.Config.Display).Router()
}

// Close releases the store and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	errs = append(errs, a.Telemetry.Shutdown(ctx))

	return errors.Join(errs...)
}
