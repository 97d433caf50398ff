package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk/internal/app"
	"kiosk/internal/config"
	"kiosk/internal/logger"
	"kiosk/internal/models"
)

const (
	spreadsheetID = "sheet-1"
	sheetCSV      = "Title,Description,Image URL,Campus_ID\n" +
		"Orientation,\"Freshmen, welcome\",https://drive.google.com/file/d/1AbCdEf/view?usp=sharing,ACCESS\n" +
		"Board Exam Results,Congratulations to our passers,,Isulan\n" +
		",row without a title,https://example.com/x.jpg,\n"
	valuesJSON = `{"range":"Main!A1:D3","values":[` +
		`["Title","Description","Image URL","Campus_ID"],` +
		`["Foundation Day","Parade at 8 AM","https://i.imgur.com/abc123.png","ACCESS"]]}`
)

// fakeGoogle imitates the Sheets values API, the metadata API and the CSV export.
type fakeGoogle struct {
	valuesDenied atomic.Bool
	down         atomic.Bool
}

func (f *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.down.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	switch r.URL.Path {
	case "/v4/spreadsheets/" + spreadsheetID + "/values/Main":
		if f.valuesDenied.Load() {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))

			return
		}

		_, _ = w.Write([]byte(valuesJSON))
	case "/v4/spreadsheets/" + spreadsheetID:
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","sheets":[{"properties":{"title":"Main","sheetId":42}}]}`))
	case "/spreadsheets/d/" + spreadsheetID + "/export":
		if r.URL.Query().Get("gid") != "42" || r.URL.Query().Get("format") != "csv" {
			http.NotFound(w, r)

			return
		}

		_, _ = w.Write([]byte(sheetCSV))
	default:
		http.NotFound(w, r)
	}
}

func newConfig(google *httptest.Server, strategies ...string) *config.Config {
	cfg := config.Default()
	cfg.Source.SpreadsheetID = spreadsheetID
	cfg.Source.APIKey = "test-key"
	cfg.Source.SheetsBaseURL = google.URL + "/v4/spreadsheets"
	cfg.Source.ExportBaseURL = google.URL + "/spreadsheets/d"
	cfg.Pipeline.Strategies = strategies
	cfg.Pipeline.Retry.MaxAttempts = 1
	cfg.Pipeline.Retry.TimeoutSec = 5
	cfg.Pipeline.RefreshSchedule = ""
	cfg.Features.EnableDiagnostics = true

	return cfg
}

func startKiosk(t *testing.T, cfg *config.Config) (*app.App, *httptest.Server) {
	t.Helper()

	require.NoError(t, cfg.Validate())

	a, err := app.New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)

	srv := httptest.NewServer(a.Handler())

	t.Cleanup(func() {
		srv.Close()
		require.NoError(t, a.Close(context.Background()))
	})

	return a, srv
}

type slidesPayload struct {
	Slides []models.Slide `json:"slides"`
	Error  string         `json:"error"`
}

func getSlides(t *testing.T, srv *httptest.Server, method, path string) (int, slidesPayload) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, srv.URL+path, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	var body slidesPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	return resp.StatusCode, body
}

func TestKioskFlow_FallsBackToCSVExport(t *testing.T) {
	google := &fakeGoogle{}
	google.valuesDenied.Store(true)

	gsrv := httptest.NewServer(google)
	defer gsrv.Close()

	a, srv := startKiosk(t, newConfig(gsrv, config.StrategyValuesAPI, config.StrategyMetadataCSV))

	status, body := getSlides(t, srv, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body.Slides, 2)
	assert.Empty(t, body.Error)

	assert.Equal(t, "Orientation", body.Slides[0].Title)
	assert.Equal(t, "Freshmen, welcome", body.Slides[0].Description)
	assert.Equal(t, "https://drive.google.com/uc?export=view&id=1AbCdEf", body.Slides[0].ImageURL)
	assert.Equal(t, "ACCESS", body.Slides[0].Campus)

	assert.Equal(t, "Board Exam Results", body.Slides[1].Title)
	assert.Equal(t, a.Images.Placeholder().Announcement(), body.Slides[1].ImageURL)

	attempts := a.Pipeline.Attempts().Attempts()
	require.Len(t, attempts, 2)
	assert.Equal(t, config.StrategyValuesAPI, attempts[0].Strategy)
	assert.False(t, attempts[0].Success)
	assert.Equal(t, http.StatusForbidden, attempts[0].StatusCode)
	assert.Contains(t, attempts[0].Error, "The caller does not have permission")
	assert.Equal(t, config.StrategyMetadataCSV, attempts[1].Strategy)
	assert.True(t, attempts[1].Success)
	assert.Equal(t, 2, attempts[1].Rows)
}

func TestKioskFlow_TotalOutageClearsSlides(t *testing.T) {
	google := &fakeGoogle{}

	gsrv := httptest.NewServer(google)
	defer gsrv.Close()

	_, srv := startKiosk(t, newConfig(gsrv, config.StrategyValuesAPI))

	status, body := getSlides(t, srv, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body.Slides, 1)
	assert.Equal(t, "https://i.imgur.com/abc123.png", body.Slides[0].ImageURL)

	google.down.Store(true)

	status, body = getSlides(t, srv, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Empty(t, body.Slides)
	assert.Contains(t, body.Error, "Unable to connect to Google Sheets")

	status, body = getSlides(t, srv, http.MethodGet, "/api/slides")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body.Slides)
	assert.NotEmpty(t, body.Error)
}

func TestKioskFlow_SnapshotSurvivesOutage(t *testing.T) {
	google := &fakeGoogle{}

	gsrv := httptest.NewServer(google)
	defer gsrv.Close()

	cfg := newConfig(gsrv, config.StrategyValuesAPI, config.StrategySnapshot)
	cfg.Storage.Path = filepath.Join(t.TempDir(), "kiosk.db")

	a, srv := startKiosk(t, cfg)
	ctx := context.Background()

	require.NoError(t, a.Service.Refresh(ctx))

	google.down.Store(true)

	status, body := getSlides(t, srv, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body.Slides, 1)
	assert.Equal(t, "Foundation Day", body.Slides[0].Title)
	assert.Equal(t, config.StrategySnapshot, a.Service.State().Set.Strategy)

	history, err := a.Store.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, config.StrategySnapshot, history[0].Strategy)
	assert.True(t, history[0].Success)
	assert.Equal(t, config.StrategyValuesAPI, history[1].Strategy)
	assert.Equal(t, http.StatusServiceUnavailable, history[1].StatusCode)
	assert.True(t, history[2].Success)
}

func TestKioskFlow_DiagnosticsReportSheet(t *testing.T) {
	google := &fakeGoogle{}

	gsrv := httptest.NewServer(google)
	defer gsrv.Close()

	_, srv := startKiosk(t, newConfig(gsrv, config.StrategyValuesAPI))

	resp, err := http.Get(srv.URL + "/debug/connection")
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		Values struct {
			Headers   []string `json:"headers"`
			TotalRows int      `json:"totalRows"`
			OK        bool     `json:"ok"`
		} `json:"values"`
		Refresh struct {
			OK bool `json:"ok"`
		} `json:"refresh"`
		APIKeyProvided bool `json:"apiKeyProvided"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))

	assert.True(t, report.Values.OK)
	assert.Equal(t, 2, report.Values.TotalRows)
	assert.Equal(t, []string{"Title", "Description", "Image URL", "Campus_ID"}, report.Values.Headers)
	assert.True(t, report.Refresh.OK)
	assert.True(t, report.APIKeyProvided)
}
