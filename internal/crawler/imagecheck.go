package crawler

import (
	"context"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"kiosk/pkg/utils"
)

// ImageCheck is the result of requesting an image address.
type ImageCheck struct {
	ContentType string        `json:"contentType,omitempty"`
	Error       string        `json:"error,omitempty"`
	StatusCode  int           `json:"statusCode,omitempty"`
	Duration    time.Duration `json:"duration"`
	Loaded      bool          `json:"loaded"`
}

// ImageChecker checks whether an address serves an image a display could load.
type ImageChecker struct {
	http *resty.Client
}

// NewImageChecker creates a checker with the given per-request timeout.
func NewImageChecker(timeout time.Duration, hc *http.Client) *ImageChecker {
	client := resty.New()
	if hc != nil {
		client = resty.NewWithClient(hc)
	}

	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	client.SetHeader("User-Agent", utils.UserAgent)
	client.SetHeader("Accept", "image/*")

	return &ImageChecker{http: client}
}

// Check issues a HEAD request, falling back to GET when HEAD is refused.
// Loaded is true for a 2xx response with an image content type.
func (c *ImageChecker) Check(ctx context.Context, address string) ImageCheck {
	start := time.Now()

	resp, err := c.http.R().SetContext(ctx).Head(address)
	if err == nil && (resp.StatusCode() == http.StatusMethodNotAllowed || resp.StatusCode() == http.StatusForbidden) {
		resp, err = c.http.R().SetContext(ctx).SetHeader("Range", "bytes=0-0").Get(address)
	}

	result := ImageCheck{Duration: time.Since(start)}

	if err != nil {
		result.Error = err.Error()

		return result
	}

	result.StatusCode = resp.StatusCode()
	result.ContentType = resp.Header().Get("Content-Type")

	mediaType, _, _ := mime.ParseMediaType(result.ContentType)
	result.Loaded = resp.IsSuccess() && strings.HasPrefix(mediaType, "image/")

	if !result.Loaded {
		if resp.IsSuccess() {
			result.Error = "not an image: " + result.ContentType
		} else {
			result.Error = resp.Status()
		}
	}

	return result
}
