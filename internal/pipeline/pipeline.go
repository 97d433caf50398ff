// Package pipeline acquires slide data by trying fetch strategies in order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kiosk/internal/crawler"
	"kiosk/internal/logger"
	"kiosk/internal/models"
	"kiosk/internal/normalizer"
	"kiosk/internal/telemetry"
	"kiosk/internal/validator"
	"kiosk/pkg/metadata"
)

// DefaultTimeout bounds a single strategy attempt.
const DefaultTimeout = 15 * time.Second

// AttemptRecorder persists strategy attempts.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt models.FetchAttempt) error
}

// Pipeline runs strategies in order until one yields valid slides.
type Pipeline struct {
	recorder   AttemptRecorder
	schema     *validator.SchemaValidator
	processor  *normalizer.Processor
	attempts   *AttemptLog
	log        *logger.Logger
	tracer     trace.Tracer
	now        func() time.Time
	newRunID   func() string
	strategies []Strategy
	timeout    time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTimeout sets the per-strategy timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithRecorder persists every attempt through r.
func WithRecorder(r AttemptRecorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithAttemptLog shares an attempt log with other readers.
func WithAttemptLog(l *AttemptLog) Option {
	return func(p *Pipeline) { p.attempts = l }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithRunIDs overrides run ID generation.
func WithRunIDs(next func() string) Option {
	return func(p *Pipeline) { p.newRunID = next }
}

// WithSchemaWarnings logs schema warnings for the rows of each successful pass.
func WithSchemaWarnings(v *validator.SchemaValidator) Option {
	return func(p *Pipeline) { p.schema = v }
}

// New creates a pipeline over strategies, which are tried in the given order.
func New(strategies []Strategy, processor *normalizer.Processor, opts ...Option) (*Pipeline, error) {
	if len(strategies) == 0 {
		return nil, ErrNoStrategies
	}

	if processor == nil {
		processor = normalizer.NewProcessor(nil, nil)
	}

	p := &Pipeline{
		strategies: strategies,
		processor:  processor,
		timeout:    DefaultTimeout,
		now:        time.Now,
		newRunID:   uuid.NewString,
		tracer:     telemetry.Tracer("kiosk/pipeline"),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.log == nil {
		p.log = logger.Discard()
	}

	if p.attempts == nil {
		p.attempts = NewAttemptLog(DefaultAttemptLogSize)
	}

	return p, nil
}

// Attempts returns the pipeline's attempt log.
func (p *Pipeline) Attempts() *AttemptLog {
	return p.attempts
}

// Strategies returns the strategy names in evaluation order.
func (p *Pipeline) Strategies() []string {
	names := make([]string, len(p.strategies))
	for i, s := range p.strategies {
		names[i] = s.Name()
	}

	return names
}

// Run tries each strategy in order and returns the slides of the first one
// that succeeds. When all fail the error wraps ErrUnableToConnect. When ctx
// ends first the context error is returned instead.
func (p *Pipeline) Run(ctx context.Context) (*models.SlideSet, error) {
	runID := p.newRunID()
	log := p.log.With("run", runID)

	ctx, span := p.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(attribute.String("kiosk.run_id", runID)))
	defer span.End()

	log.Info("🔄 Fetching slides", "strategies", len(p.strategies))

	var errs []error

	for i, strategy := range p.strategies {
		if ctx.Err() != nil {
			break
		}

		set, err := p.attempt(ctx, log, runID, i, strategy)
		if err == nil {
			p.attempts.LogRunSummary(log, runID)
			span.SetAttributes(attribute.String("kiosk.strategy", set.Strategy), attribute.Int("kiosk.slides", set.Len()))

			return set, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", strategy.Name(), err))
	}

	p.attempts.LogRunSummary(log, runID)

	// Cancellation is not exhaustion: the strategies were not all given a chance.
	if ctxErr := ctx.Err(); ctxErr != nil {
		span.RecordError(ctxErr)
		span.SetStatus(codes.Error, "canceled")
		log.Warn("⚠️ Fetch abandoned", "error", ctxErr)

		return nil, fmt.Errorf("fetch abandoned: %w", ctxErr)
	}

	err := fmt.Errorf("%w: %w", ErrUnableToConnect, errors.Join(errs...))
	span.RecordError(err)
	span.SetStatus(codes.Error, ErrUnableToConnect.Error())
	log.Error("❌ All fetch strategies failed", "error", err)

	return nil, err
}

func (p *Pipeline) attempt(ctx context.Context, log *logger.Logger, runID string, priority int, s Strategy) (*models.SlideSet, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ctx, span := p.tracer.Start(ctx, "pipeline.strategy."+s.Name(),
		trace.WithAttributes(attribute.String("kiosk.strategy", s.Name()), attribute.Int("kiosk.priority", priority)))
	defer span.End()

	start := p.now()
	log.Debug("trying strategy", "strategy", s.Name(), "priority", priority)

	set, rows, err := p.fetch(ctx, s)

	attempt := models.FetchAttempt{
		At:         start,
		RunID:      runID,
		Strategy:   s.Name(),
		Priority:   priority,
		Duration:   p.now().Sub(start),
		Rows:       rows,
		Success:    err == nil,
		StatusCode: crawler.StatusCodeOf(err),
	}

	if err != nil {
		attempt.Error = err.Error()

		span.RecordError(err)
		span.SetStatus(codes.Error, "strategy failed")
		log.Warn("⚠️ Strategy failed", "strategy", s.Name(), "error", err)
	} else {
		set.RunID = runID
		set.FetchedAt = start

		span.SetAttributes(attribute.Int("kiosk.rows", rows))
		log.Info("✅ Strategy succeeded", "strategy", s.Name(), "slides", set.Len())
	}

	p.record(ctx, log, attempt)

	return set, err
}

func (p *Pipeline) fetch(ctx context.Context, s Strategy) (*models.SlideSet, int, error) {
	rows, err := s.Fetch(ctx)
	if err != nil {
		return nil, 0, err
	}

	result, err := p.processor.Process(rows)
	if err != nil {
		return nil, len(rows), err
	}

	if p.schema != nil {
		for _, w := range p.schema.ValidateRows(rows).Warnings {
			p.log.Warn("⚠️ Sheet format", "strategy", s.Name(), "warning", w)
		}
	}

	return &models.SlideSet{
		Strategy: s.Name(),
		Hash:     metadata.HashRecords(models.RecordFields(result.Records)),
		Records:  result.Records,
		Slides:   result.Slides,
	}, len(rows), nil
}

func (p *Pipeline) record(ctx context.Context, log *logger.Logger, a models.FetchAttempt) {
	p.attempts.RecordAttempt(a)

	if p.recorder == nil {
		return
	}

	// Persist even when the attempt timed out.
	if err := p.recorder.RecordAttempt(context.WithoutCancel(ctx), a); err != nil {
		log.Warn("failed to persist attempt", "strategy", a.Strategy, "error", err)
	}
}
