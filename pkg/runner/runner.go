// Package runner performs one annotation pass over a task store.
package runner

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/harrisonrobin/daysleft/pkg/config"
	"github.com/harrisonrobin/daysleft/pkg/days"
	"github.com/harrisonrobin/daysleft/pkg/model"
	"github.com/harrisonrobin/daysleft/pkg/overdue"
	"github.com/harrisonrobin/daysleft/pkg/store"
	"github.com/harrisonrobin/daysleft/pkg/update"
)

// Summary counts what a pass did.
type Summary struct {
	Pass       string
	Considered int
	Updated    int
	Completed  int
	Skipped    int
	Malformed  int
	Failed     int
}

type outcome int

const (
	skipped outcome = iota
	updated
	completed
	malformed
	failed
)

func (s *Summary) add(o outcome) {
	switch o {
	case updated:
		s.Updated++
	case completed:
		s.Completed++
	case malformed:
		s.Malformed++
	case failed:
		s.Failed++
	default:
		s.Skipped++
	}
}

// Runner applies the completion and marker policies to every task in the
// configured projects.
type Runner struct {
	store store.Store
	cfg   *config.Config
	log   zerolog.Logger
	now   func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New returns a Runner over s.
func New(s store.Store, cfg *config.Config, log zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{store: s, cfg: cfg, log: log, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs a single pass. Configuration and listing errors abort the pass;
// errors on individual tasks are logged and counted in the summary.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if err := r.cfg.Validate(); err != nil {
		return Summary{}, err
	}

	loc := r.cfg.Location
	if loc == nil {
		loc = time.Local
	}
	start := time.Now()
	now := r.now().In(loc)

	sum := Summary{Pass: ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()}
	log := r.log.With().Str("pass", sum.Pass).Logger()
	log.Info().Time("now", now).Str("mode", r.cfg.Mode.String()).Bool("force_write", r.cfg.ForceWrite).
		Bool("complete_past_items", r.cfg.CompletePastItems).Bool("dry_run", r.cfg.DryRun).Msg("pass started")

	tasks, err := r.selectTasks(ctx, log)
	if err != nil {
		return sum, err
	}
	sum.Considered = len(tasks)

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(r.cfg.Workers)
	for _, t := range tasks {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			o := r.process(ctx, log, now, t)
			mu.Lock()
			sum.add(o)
			mu.Unlock()
			return nil
		})
	}
	// Workers never return an error; per-task failures are counted in sum.
	_ = g.Wait()

	log.Info().Int("considered", sum.Considered).Int("updated", sum.Updated).Int("completed", sum.Completed).
		Int("skipped", sum.Skipped).Int("malformed", sum.Malformed).Int("failed", sum.Failed).
		Dur("elapsed", time.Since(start)).Msg("pass finished")
	return sum, ctx.Err()
}

// selectTasks resolves the configured project names and returns the tasks in
// those projects that have a due date.
func (r *Runner) selectTasks(ctx context.Context, log zerolog.Logger) ([]model.Task, error) {
	wanted := make(map[string]bool)
	for _, name := range r.cfg.ProjectNames() {
		wanted[name] = true
	}
	log.Debug().Strs("projects", r.cfg.ProjectNames()).Msg("projects from config")

	projects, err := r.store.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	ids := make(map[string]bool)
	seen := make(map[string]bool)
	for _, p := range projects {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" || !wanted[name] {
			continue
		}
		ids[p.ID] = true
		seen[name] = true
	}
	for name := range wanted {
		if !seen[name] {
			log.Warn().Str("project", name).Msg("configured project not found")
		}
	}
	log.Info().Int("count", len(ids)).Msg("found projects to process")

	all, err := r.store.Tasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	var tasks []model.Task
	for _, t := range all {
		if ids[t.ProjectID] && t.HasDue() {
			tasks = append(tasks, t)
		}
	}
	log.Info().Int("count", len(tasks)).Msg("found tasks to process")
	return tasks, nil
}

func (r *Runner) process(ctx context.Context, log zerolog.Logger, now time.Time, t model.Task) outcome {
	log = log.With().Str("task", t.ID).Str("project", t.ProjectID).Logger()
	due := *t.Due

	if overdue.Eligible(due, now) {
		log.Debug().Str("due", due.Format()).Str("content", t.Content).Msg("task is in the past")
		if r.cfg.CompletePastItems {
			if r.cfg.DryRun {
				log.Info().Str("content", t.Content).Msg("dry run: would complete task")
				return completed
			}
			if err := r.store.CompleteTask(ctx, t); err != nil {
				log.Error().Err(err).Msg("could not complete task")
				return failed
			}
			log.Info().Str("content", t.Content).Msg("completed past task")
			return completed
		}
	}

	calendar, business := days.Remaining(now, due)
	d := update.Decide(t.Content, calendar, business, r.cfg.Mode, r.cfg.ForceWrite)
	if d.Err != nil {
		log.Warn().Err(d.Err).Str("content", t.Content).Msg("could not parse the days out of existing marker")
		return malformed
	}
	if d.Action == update.Skip {
		log.Debug().Str("reason", d.Reason).Int("existing", d.Existing).Int("days", d.Effective).
			Str("content", t.Content).Msg("skipping task")
		return skipped
	}

	normalized := due.DateOnly(now.Location())
	t.Content = d.Content
	t.Due = &normalized

	if r.cfg.DryRun {
		log.Info().Str("content", t.Content).Str("due", normalized.Format()).Msg("dry run: would update task")
		return updated
	}
	if err := r.store.UpdateTask(ctx, t); err != nil {
		log.Error().Err(err).Str("content", t.Content).Msg("could not update task")
		return failed
	}
	log.Info().Str("reason", d.Reason).Int("calendar", calendar).Int("business", business).
		Str("content", t.Content).Str("due", normalized.Format()).Msg("updated task")
	return updated
}
