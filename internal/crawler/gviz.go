package crawler

import (
	"encoding/json"
	"fmt"
	"strings"

	"kiosk/internal/tabular"
)

type gvizResponse struct {
	Status string        `json:"status"`
	Table  tabular.Table `json:"table"`
	Errors []struct {
		Reason          string `json:"reason"`
		Message         string `json:"message"`
		DetailedMessage string `json:"detailed_message"`
	} `json:"errors"`
}

// ParseGvizResponse strips the JavaScript callback wrapper around a
// visualization query response and decodes its table.
func ParseGvizResponse(body string) (*tabular.Table, error) {
	start := strings.Index(body, "setResponse(")
	end := strings.LastIndex(body, ")")

	payload := body
	if start >= 0 && end > start {
		payload = body[start+len("setResponse(") : end]
	}

	var resp gvizResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if resp.Status == "error" {
		msg := "query failed"
		if len(resp.Errors) > 0 {
			msg = resp.Errors[0].Message
			if resp.Errors[0].DetailedMessage != "" {
				msg += ": " + resp.Errors[0].DetailedMessage
			}
		}

		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, msg)
	}

	return &resp.Table, nil
}
