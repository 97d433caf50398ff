// Package crawler fetches spreadsheet data over HTTP.
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"kiosk/internal/config"
	"kiosk/internal/logger"
	"kiosk/internal/telemetry"
	"kiosk/pkg/utils"
)

// SheetsClient talks to the spreadsheet values, metadata and export endpoints
// with config-driven retry logic.
type SheetsClient struct {
	http         *resty.Client
	log          *logger.Logger
	source       config.SourceConfig
	retryPolicy  config.RetryPolicy
	bufferSizeKb int
}

// ClientOption configures a SheetsClient.
type ClientOption func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	log        *logger.Logger
	traced     bool
}

// WithHTTPClient sends requests through hc.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = hc
	}
}

// WithClientLogger attaches a logger.
func WithClientLogger(log *logger.Logger) ClientOption {
	return func(o *clientOptions) {
		o.log = log
	}
}

// WithTracing opens a span per request.
func WithTracing() ClientOption {
	return func(o *clientOptions) {
		o.traced = true
	}
}

// NewSheetsClient creates a client for the spreadsheet described by source.
func NewSheetsClient(source config.SourceConfig, retryPolicy config.RetryPolicy, opts ...ClientOption) *SheetsClient {
	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.log == nil {
		o.log = logger.Discard()
	}

	var client *resty.Client
	if o.httpClient != nil {
		client = resty.NewWithClient(o.httpClient)
	} else {
		client = resty.New()
	}

	if timeout := retryPolicy.GetTimeout(); timeout > 0 {
		client.SetTimeout(timeout)
	}

	for key, values := range utils.NewHTTPHelper().BuildHeaders(nil) {
		client.SetHeader(key, values[0])
	}

	if o.traced {
		telemetry.InstrumentResty(client, telemetry.Tracer("kiosk/crawler"))
	}

	if retryPolicy.MaxAttempts < 1 {
		retryPolicy.MaxAttempts = 1
	}

	bufferSizeKb := source.BufferSizeKb
	if bufferSizeKb <= 0 {
		bufferSizeKb = 1024
	}

	return &SheetsClient{
		http:         client,
		log:          o.log.With("component", "crawler"),
		source:       source,
		retryPolicy:  retryPolicy,
		bufferSizeKb: bufferSizeKb,
	}
}

// Source returns the spreadsheet settings the client was built with.
func (c *SheetsClient) Source() config.SourceConfig {
	return c.source
}

// fetch performs a GET, retrying network errors and retryable statuses with
// exponential backoff. Non-retryable statuses fail immediately.
func (c *SheetsClient) fetch(ctx context.Context, op, endpoint string, query map[string]string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.retryPolicy.GetRetryDelay(attempt)
			c.log.Warn("🔁 Retrying request", "op", op, "attempt", attempt, "delay", delay)

			if err := sleep(ctx, delay); err != nil {
				return nil, &FetchError{Op: op, URL: endpoint, Err: err, Attempts: attempt - 1}
			}
		}

		startTime := time.Now()

		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(query).
			SetDoNotParseResponse(true).
			Get(endpoint)

		duration := time.Since(startTime)

		if err != nil {
			// the transport error quotes the full address, API key included
			err = telemetry.RedactError(err)
			lastErr = &FetchError{Op: op, URL: endpoint, Err: err, Attempts: attempt}
			c.log.Debug("request failed", "op", op, "attempt", attempt, "duration", duration, "error", err)

			if ctx.Err() != nil {
				return nil, lastErr
			}

			continue
		}

		c.log.Debug("request completed", "op", op, "attempt", attempt, "status", resp.StatusCode(), "duration", duration)

		body, err := c.readBody(resp)
		if errors.Is(err, ErrResponseTooLarge) {
			return nil, &FetchError{Op: op, URL: endpoint, StatusCode: resp.StatusCode(), Err: err, Attempts: attempt}
		}

		if err != nil {
			lastErr = &FetchError{Op: op, URL: endpoint, StatusCode: resp.StatusCode(), Err: telemetry.RedactError(err), Attempts: attempt}

			if ctx.Err() != nil {
				return nil, lastErr
			}

			continue
		}

		if resp.IsSuccess() {
			return body, nil
		}

		fe := &FetchError{
			Op:         op,
			URL:        endpoint,
			StatusCode: resp.StatusCode(),
			Message:    apiErrorMessage(body),
			Err:        ErrUnexpectedStatusCode,
			Attempts:   attempt,
		}
		lastErr = fe

		if !isRetryableStatus(resp.StatusCode()) {
			return nil, fe
		}
	}

	return nil, lastErr
}

// readBody reads at most bufferSizeKb of the response, so an oversized
// export is rejected without being held in memory.
func (c *SheetsClient) readBody(resp *resty.Response) ([]byte, error) {
	raw := resp.RawBody()
	if raw == nil {
		return nil, nil
	}
	defer raw.Close()

	limit := int64(c.bufferSizeKb) * 1024

	body, err := io.ReadAll(io.LimitReader(raw, limit+1))
	if err != nil {
		return nil, err
	}

	if int64(len(body)) > limit {
		return nil, ErrResponseTooLarge
	}

	return body, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// apiErrorMessage extracts error.message from a Google API error body.
func apiErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &payload); err != nil || payload.Error.Message == "" {
		return "Unknown error"
	}

	if payload.Error.Status != "" {
		return fmt.Sprintf("%s (%s)", payload.Error.Message, payload.Error.Status)
	}

	return payload.Error.Message
}
