package models

import "time"

// FetchAttempt records the outcome of one strategy attempt within a refresh run.
type FetchAttempt struct {
	At         time.Time     `json:"at"`
	RunID      string        `json:"runId"`
	Strategy   string        `json:"strategy"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	Priority   int           `json:"priority"`
	StatusCode int           `json:"statusCode,omitempty"`
	Rows       int           `json:"rows"`
	Success    bool          `json:"success"`
}
