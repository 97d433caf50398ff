// Package kiosk runs the slideshow: periodic refresh, idle reset, clock and diagnostics.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"kiosk/internal/logger"
	"kiosk/internal/models"
	"kiosk/internal/pipeline"
)

// ErrRefreshInProgress is returned when a refresh is requested while one is running.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Fetcher produces a complete slide set or an error.
type Fetcher interface {
	Run(ctx context.Context) (*models.SlideSet, error)
}

// SnapshotSaver stores the last successful slide set.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, set *models.SlideSet) error
}

// State is what the display shows. A State is never modified after it is published.
type State struct {
	UpdatedAt time.Time        `json:"updatedAt"`
	Set       *models.SlideSet `json:"-"`
	Error     string           `json:"error,omitempty"`
	Loading   bool             `json:"loading"`
}

// Slides returns the slides of the state, empty in the error state.
func (s *State) Slides() []models.Slide {
	if s == nil || s.Set == nil {
		return []models.Slide{}
	}

	return s.Set.Slides
}

// Options configure a Service.
type Options struct {
	Saver         SnapshotSaver
	Logger        *logger.Logger
	Location      *time.Location
	Schedule      string
	IdleTimeout   time.Duration
	ClockInterval time.Duration
}

// Service owns the slide state and the timers around it.
type Service struct {
	fetcher   Fetcher
	presenter Presenter
	saver     SnapshotSaver
	log       *logger.Logger
	cron      *cron.Cron
	idle      *IdleTimer
	clock     *Clock
	schedule  string
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	state     atomic.Pointer[State]
	inFlight  atomic.Bool
}

// NewService creates a service. Call Start to begin refreshing.
func NewService(fetcher Fetcher, presenter Presenter, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 5 * time.Minute
	}

	if opts.ClockInterval <= 0 {
		opts.ClockInterval = time.Minute
	}

	if opts.Location == nil {
		opts.Location = time.Local
	}

	s := &Service{
		fetcher:   fetcher,
		presenter: presenter,
		saver:     opts.Saver,
		log:       opts.Logger,
		schedule:  opts.Schedule,
		cron:      newCron(opts.Logger, cron.WithLocation(opts.Location)),
	}

	s.idle = NewIdleTimer(opts.IdleTimeout, s.onIdle)
	s.clock = NewClock(opts.ClockInterval, opts.Location, s.onTick)
	s.state.Store(&State{Loading: true})

	return s
}

// State returns the current display state.
func (s *Service) State() *State {
	return s.state.Load()
}

// Slides returns the slides currently shown.
func (s *Service) Slides() []models.Slide {
	return s.State().Slides()
}

// Now returns the display clock's time.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// Refresh runs the pipeline once and publishes its outcome. A call made while
// another refresh is running returns ErrRefreshInProgress without fetching.
// When ctx ends before the pipeline finishes, the current slides are kept.
func (s *Service) Refresh(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Info("⏭️ Refresh skipped, previous refresh still running")

		return ErrRefreshInProgress
	}
	defer s.inFlight.Store(false)

	prev := s.State()
	s.state.Store(&State{Set: prev.Set, Error: prev.Error, UpdatedAt: prev.UpdatedAt, Loading: true})
	s.presenter.ShowLoading(ctx)

	set, err := s.fetcher.Run(ctx)

	s.presenter.HideLoading(ctx)

	now := s.clock.Now()

	if err != nil && ctx.Err() != nil {
		s.state.Store(&State{Set: prev.Set, Error: prev.Error, UpdatedAt: prev.UpdatedAt})
		s.log.Warn("⚠️ Refresh abandoned, keeping current slides", "error", err)

		return fmt.Errorf("refresh abandoned: %w", ctx.Err())
	}

	if err != nil {
		s.state.Store(&State{Error: pipeline.ErrorMessage, UpdatedAt: now})
		s.presenter.ShowError(ctx, pipeline.ErrorMessage)

		return fmt.Errorf("refresh failed: %w", err)
	}

	s.state.Store(&State{Set: set, UpdatedAt: now})
	s.presenter.RenderSlides(ctx, set.Slides)

	if prev.Set != nil && prev.Set.Hash == set.Hash {
		s.log.Info("✅ Slides refreshed, content unchanged", "slides", set.Len())
	} else {
		s.log.Info("✅ Slides refreshed", "slides", set.Len(), "strategy", set.Strategy)
	}

	if s.saver != nil {
		if err := s.saver.SaveSnapshot(ctx, set); err != nil {
			s.log.Warn("failed to save snapshot", "error", err)
		}
	}

	return nil
}

// Interaction records user activity and restarts the idle countdown.
func (s *Service) Interaction() {
	s.idle.Touch()
}

// Start performs the first refresh and starts the schedule, idle timer and clock.
// A failed first refresh leaves the service running in the error state.
func (s *Service) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	if s.schedule != "" {
		if _, err := s.cron.AddFunc(s.schedule, func() { s.scheduledRefresh(ctx) }); err != nil {
			s.cancel()

			return fmt.Errorf("invalid refresh schedule %q: %w", s.schedule, err)
		}
	}

	if err := s.Refresh(ctx); err != nil {
		s.log.Error("❌ Initial refresh failed", "error", err)
	}

	s.cron.Start()
	s.idle.Touch()

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.clock.Run(ctx)
	}()

	s.log.Info("🚀 Kiosk started", "schedule", s.schedule)

	return nil
}

// Stop halts the schedule and timers and waits for a running refresh to finish
// or ctx to expire.
func (s *Service) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	s.idle.Stop()

	cronDone := s.cron.Stop()
	s.wg.Wait()

	select {
	case <-cronDone.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) scheduledRefresh(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) {
		s.log.Error("❌ Scheduled refresh failed", "error", err)
	}
}

func (s *Service) onIdle() {
	if r, ok := s.presenter.(Resetter); ok {
		r.Reset(context.Background())
	}
}

func (s *Service) onTick(t time.Time) {
	if c, ok := s.presenter.(ClockPresenter); ok {
		c.ShowTime(context.Background(), t)
	}
}
