package pipeline

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"kiosk/internal/config"
	"kiosk/internal/crawler"
	"kiosk/internal/models"
	"kiosk/internal/tabular"
)

// Strategy is one way of retrieving the slide rows.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context) ([]models.TabularRow, error)
}

// SheetsAPI is the remote surface used by the network strategies.
type SheetsAPI interface {
	GetValues(ctx context.Context) (*crawler.ValueRange, error)
	FindSheetID(ctx context.Context) (int64, error)
	ExportCSV(ctx context.Context, gid int64) (string, error)
	GetGviz(ctx context.Context) (*tabular.Table, error)
}

// SnapshotLoader returns the last slide set that was presented successfully.
type SnapshotLoader interface {
	LatestSnapshot(ctx context.Context) (*models.SlideSet, error)
}

// ValuesAPIStrategy reads the sheet through the authenticated values API.
type ValuesAPIStrategy struct {
	client SheetsAPI
}

// NewValuesAPIStrategy creates the values API strategy.
func NewValuesAPIStrategy(client SheetsAPI) *ValuesAPIStrategy {
	return &ValuesAPIStrategy{client: client}
}

func (s *ValuesAPIStrategy) Name() string { return config.StrategyValuesAPI }

// Fetch succeeds only when the matrix holds a header and at least one data row.
func (s *ValuesAPIStrategy) Fetch(ctx context.Context) ([]models.TabularRow, error) {
	vr, err := s.client.GetValues(ctx)
	if err != nil {
		return nil, err
	}

	if len(vr.Values) <= 1 {
		return nil, fmt.Errorf("%w: %d rows returned", ErrEmptyData, len(vr.Values))
	}

	return tabular.ParseValues(vr.Strings()), nil
}

// MetadataCSVStrategy finds the sheet id through the metadata API and downloads a CSV export.
type MetadataCSVStrategy struct {
	client SheetsAPI
}

// NewMetadataCSVStrategy creates the metadata lookup and CSV export strategy.
func NewMetadataCSVStrategy(client SheetsAPI) *MetadataCSVStrategy {
	return &MetadataCSVStrategy{client: client}
}

func (s *MetadataCSVStrategy) Name() string { return config.StrategyMetadataCSV }

func (s *MetadataCSVStrategy) Fetch(ctx context.Context) ([]models.TabularRow, error) {
	gid, err := s.client.FindSheetID(ctx)
	if err != nil {
		return nil, err
	}

	text, err := s.client.ExportCSV(ctx, gid)
	if err != nil {
		return nil, err
	}

	rows, ok := tabular.ParseCSV(text)
	if !ok {
		return nil, fmt.Errorf("%w: csv export for sheet %d", ErrEmptyData, gid)
	}

	return rows, nil
}

// GvizStrategy reads the public visualization query endpoint.
type GvizStrategy struct {
	client SheetsAPI
}

// NewGvizStrategy creates the public JSON endpoint strategy.
func NewGvizStrategy(client SheetsAPI) *GvizStrategy {
	return &GvizStrategy{client: client}
}

func (s *GvizStrategy) Name() string { return config.StrategyGviz }

// Fetch keeps only rows carrying both a title and an image.
func (s *GvizStrategy) Fetch(ctx context.Context) ([]models.TabularRow, error) {
	table, err := s.client.GetGviz(ctx)
	if err != nil {
		return nil, err
	}

	rows := tabular.ParseCellMatrix(*table, "title", "image_url")
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: gviz table", ErrEmptyData)
	}

	return rows, nil
}

//go:embed fixture/sample_slides.csv
var sampleSlidesCSV string

// FixtureStrategy serves embedded sample slides.
type FixtureStrategy struct {
	csv string
}

// NewFixtureStrategy serves csv, or the built-in sample slides when csv is empty.
func NewFixtureStrategy(csv string) *FixtureStrategy {
	if csv == "" {
		csv = sampleSlidesCSV
	}

	return &FixtureStrategy{csv: csv}
}

func (s *FixtureStrategy) Name() string { return config.StrategyFixture }

func (s *FixtureStrategy) Fetch(_ context.Context) ([]models.TabularRow, error) {
	rows, ok := tabular.ParseCSV(s.csv)
	if !ok {
		return nil, fmt.Errorf("%w: fixture", ErrEmptyData)
	}

	return rows, nil
}

// SnapshotStrategy replays the last stored slide set.
type SnapshotStrategy struct {
	store SnapshotLoader
}

// NewSnapshotStrategy creates the last-known-good strategy.
func NewSnapshotStrategy(store SnapshotLoader) *SnapshotStrategy {
	return &SnapshotStrategy{store: store}
}

func (s *SnapshotStrategy) Name() string { return config.StrategySnapshot }

func (s *SnapshotStrategy) Fetch(ctx context.Context) ([]models.TabularRow, error) {
	set, err := s.store.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	if set == nil || len(set.Records) == 0 {
		return nil, fmt.Errorf("%w: snapshot", ErrEmptyData)
	}

	rows := make([]models.TabularRow, len(set.Records))
	for i, r := range set.Records {
		rows[i] = r.Row()
	}

	return rows, nil
}

// Deps are the collaborators strategies may need.
type Deps struct {
	Client SheetsAPI
	Store  SnapshotLoader
}

// NewStrategies builds strategies in the order named.
func NewStrategies(names []string, deps Deps) ([]Strategy, error) {
	if len(names) == 0 {
		return nil, ErrNoStrategies
	}

	strategies := make([]Strategy, 0, len(names))

	var errs []error

	for _, name := range names {
		switch name {
		case config.StrategyValuesAPI, config.StrategyMetadataCSV, config.StrategyGviz:
			if deps.Client == nil {
				errs = append(errs, fmt.Errorf("%w: %s", ErrMissingClient, name))

				continue
			}
		case config.StrategySnapshot:
			if deps.Store == nil {
				errs = append(errs, fmt.Errorf("%w: %s", ErrMissingStore, name))

				continue
			}
		}

		switch name {
		case config.StrategyValuesAPI:
			strategies = append(strategies, NewValuesAPIStrategy(deps.Client))
		case config.StrategyMetadataCSV:
			strategies = append(strategies, NewMetadataCSVStrategy(deps.Client))
		case config.StrategyGviz:
			strategies = append(strategies, NewGvizStrategy(deps.Client))
		case config.StrategyFixture:
			strategies = append(strategies, NewFixtureStrategy(""))
		case config.StrategySnapshot:
			strategies = append(strategies, NewSnapshotStrategy(deps.Store))
		default:
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownStrategy, name))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return strategies, nil
}
