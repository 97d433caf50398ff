package telemetry

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentResty opens a span per request on client. Query strings are left
// out of span attributes since they carry API keys.
func InstrumentResty(client *resty.Client, tracer trace.Tracer) {
	if tracer == nil {
		tracer = Tracer("resty")
	}

	client.OnBeforeRequest(onBeforeRequest(tracer))
	client.OnAfterResponse(onAfterResponse)
	client.OnError(onError)
}

func onBeforeRequest(tracer trace.Tracer) resty.RequestMiddleware {
	return func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), req.Method, trace.WithSpanKind(trace.SpanKindClient))
		req.SetContext(ctx)

		return nil
	}
}

func onAfterResponse(_ *resty.Client, res *resty.Response) error {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	// RawRequest is nil in onBeforeRequest, so request attributes are set here
	span.SetName(fmt.Sprintf("http %s", res.Request.Method))
	span.SetAttributes(requestAttributes(res.Request)...)
	span.SetAttributes(semconv.HTTPResponseStatusCode(res.StatusCode()))

	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}

	return nil
}

func onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.SetName(fmt.Sprintf("http %s", req.Method))
	span.SetAttributes(requestAttributes(req)...)
	span.RecordError(RedactError(err))
	span.SetStatus(codes.Error, "request failed")
}

func requestAttributes(req *resty.Request) []attribute.KeyValue {
	attrs := []attribute.KeyValue{semconv.HTTPRequestMethodKey.String(req.Method)}

	raw := req.URL
	if req.RawRequest != nil && req.RawRequest.URL != nil {
		raw = req.RawRequest.URL.String()
	}

	attrs = append(attrs, semconv.URLFull(redactQuery(raw)))

	return attrs
}

func redactQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	u.RawQuery = ""
	u.User = nil

	return u.String()
}

// RedactError strips the query string and credentials from the address carried
// by a *url.Error, so transport failures never echo an API key.
func RedactError(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}

	return &url.Error{Op: ue.Op, URL: redactQuery(ue.URL), Err: ue.Err}
}
