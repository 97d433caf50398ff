package pipeline

import (
	"fmt"
	"sync"

	"kiosk/internal/logger"
	"kiosk/internal/models"
)

// DefaultAttemptLogSize bounds the in-memory attempt history.
const DefaultAttemptLogSize = 200

// AttemptLog keeps the most recent strategy attempts across refresh runs.
type AttemptLog struct {
	attempts []models.FetchAttempt
	mu       sync.RWMutex
	size     int
}

// NewAttemptLog creates a log retaining up to size attempts.
func NewAttemptLog(size int) *AttemptLog {
	if size <= 0 {
		size = DefaultAttemptLogSize
	}

	return &AttemptLog{size: size}
}

// RecordAttempt appends an attempt, dropping the oldest when full.
func (l *AttemptLog) RecordAttempt(a models.FetchAttempt) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.attempts = append(l.attempts, a)
	if over := len(l.attempts) - l.size; over > 0 {
		l.attempts = append([]models.FetchAttempt(nil), l.attempts[over:]...)
	}
}

// Attempts returns a copy of the recorded attempts, oldest first.
func (l *AttemptLog) Attempts() []models.FetchAttempt {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.FetchAttempt, len(l.attempts))
	copy(out, l.attempts)

	return out
}

// Run returns the attempts belonging to runID.
func (l *AttemptLog) Run(runID string) []models.FetchAttempt {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.FetchAttempt

	for _, a := range l.attempts {
		if a.RunID == runID {
			out = append(out, a)
		}
	}

	return out
}

// GetAttemptStats returns statistics about fetch attempts.
func (l *AttemptLog) GetAttemptStats() AttemptStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := AttemptStats{
		StrategyAttempts: make(map[string]int),
	}

	succeeded := make(map[string]bool)

	for _, a := range l.attempts {
		stats.StrategyAttempts[a.Strategy]++
		stats.TotalAttempts++

		if a.Success {
			stats.SuccessfulAttempts++
			succeeded[a.Strategy] = true
		} else {
			stats.FailedAttempts++
		}
	}

	stats.TotalStrategies = len(stats.StrategyAttempts)

	for name := range stats.StrategyAttempts {
		if succeeded[name] {
			stats.SuccessfulStrategies++
		} else {
			stats.FailedStrategies++
		}
	}

	return stats
}

// AttemptStats contains statistics about fetch attempts.
type AttemptStats struct {
	StrategyAttempts     map[string]int `json:"strategyAttempts"`
	TotalStrategies      int            `json:"totalStrategies"`
	SuccessfulStrategies int            `json:"successfulStrategies"`
	FailedStrategies     int            `json:"failedStrategies"`
	TotalAttempts        int            `json:"totalAttempts"`
	SuccessfulAttempts   int            `json:"successfulAttempts"`
	FailedAttempts       int            `json:"failedAttempts"`
}

// String returns a string representation of attempt stats.
func (s AttemptStats) String() string {
	return fmt.Sprintf(
		"Strategies: %d total, %d success, %d failed | Attempts: %d total, %d success, %d failed",
		s.TotalStrategies,
		s.SuccessfulStrategies,
		s.FailedStrategies,
		s.TotalAttempts,
		s.SuccessfulAttempts,
		s.FailedAttempts,
	)
}

// LogRunSummary logs the attempts of one run using the provided logger.
func (l *AttemptLog) LogRunSummary(log *logger.Logger, runID string) {
	log.Info("📊 Fetch Attempt Summary:", "run", runID)

	for i, a := range l.Run(runID) {
		if a.Success {
			log.Info(fmt.Sprintf("%d. %s ✅ Success: %d rows (%.2fs)", i+1, a.Strategy, a.Rows, a.Duration.Seconds()))

			continue
		}

		log.Info(fmt.Sprintf("%d. %s ❌ Failed: %s (%.2fs)", i+1, a.Strategy, a.Error, a.Duration.Seconds()))
	}

	log.Info(fmt.Sprintf("Overall: %s", l.GetAttemptStats()))
}

// Reset clears the log.
func (l *AttemptLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.attempts = nil
}
