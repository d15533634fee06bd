// Package schedule runs a job on a cron schedule until its context ends.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Seconds are optional, so both "0 0 6-23 * * *" and "*/5 7-23 * * *" parse.
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Parse validates a schedule expression.
func Parse(spec string) (cron.Schedule, error) {
	s, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Next returns the first activation of spec after now.
func Next(spec string, now time.Time) (time.Time, error) {
	s, err := Parse(spec)
	if err != nil {
		return time.Time{}, err
	}
	return s.Next(now), nil
}

// Options tune Run.
type Options struct {
	Location *time.Location
	// RunOnStart fires the job once before waiting for the first activation.
	RunOnStart bool
}

// Run calls job on every activation of spec until ctx is cancelled. An
// activation that arrives while the previous one is still running is skipped.
// Run waits for a running job to return before it does.
func Run(ctx context.Context, spec string, log zerolog.Logger, opts Options, job func(context.Context)) error {
	if _, err := Parse(spec); err != nil {
		return err
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	clog := cronLogger{log: log}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(loc),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	id, err := c.AddFunc(spec, func() { job(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule %q: %w", spec, err)
	}

	if opts.RunOnStart {
		job(ctx)
	}

	c.Start()
	log.Info().Str("schedule", spec).Time("next", c.Entry(id).Next).Msg("scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("scheduler stopped")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
