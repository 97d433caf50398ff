package kiosk

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"kiosk/internal/logger"
)

// cronLogger routes cron's own logging through the kiosk logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(fmt.Sprintf("cron: %s", msg), keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(fmt.Sprintf("cron: %s", msg), append([]any{"error", err}, keysAndValues...)...)
}

// newCron creates a scheduler that skips a job while its previous run is active.
func newCron(log *logger.Logger, opts ...cron.Option) *cron.Cron {
	cl := cronLogger{log: log}

	return cron.New(append([]cron.Option{
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	}, opts...)...)
}
