// Package schedule centralizes cron parsing so the scraper trigger, the
// dispatcher and configuration validation all accept the same grammar:
// standard 5-field cron with an optional leading seconds field.
package schedule

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func Validate(spec string) error {
	_, err := parser.Parse(spec)
	return err
}

// NewRunner builds a cron runner whose jobs are protected against re-entrant
// firing and contained panics. All schedules evaluate in UTC.
func NewRunner(log *zap.Logger) *cron.Cron {
	logger := cronLogger{log.Sugar()}
	return cron.New(
		cron.WithParser(parser),
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(logger), cron.Recover(logger)),
	)
}

type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append([]any{"err", err}, keysAndValues...)...)
}
