// Package store defines the task service contract the runner depends on and
// opens the configured backend.
package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/harrisonrobin/daysleft/pkg/auth"
	"github.com/harrisonrobin/daysleft/pkg/config"
	"github.com/harrisonrobin/daysleft/pkg/google"
	"github.com/harrisonrobin/daysleft/pkg/model"
	"github.com/harrisonrobin/daysleft/pkg/taskwarrior"
	"github.com/harrisonrobin/daysleft/pkg/todoist"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = config.ErrUnknownBackend

// Store is a task service. Implementations do their own retries, if any.
type Store interface {
	Projects(ctx context.Context) ([]model.Project, error)
	Tasks(ctx context.Context) ([]model.Task, error)
	UpdateTask(ctx context.Context, task model.Task) error
	CompleteTask(ctx context.Context, task model.Task) error
}

var (
	_ Store = (*todoist.Client)(nil)
	_ Store = (*google.TasksClient)(nil)
	_ Store = (*taskwarrior.Client)(nil)
)

// Open builds the backend named by cfg.Backend.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendTodoist:
		httpClient := auth.TodoistClient(ctx, cfg.TodoistAPIKey)
		return todoist.NewClient(httpClient,
			todoist.WithBaseURL(cfg.TodoistURL),
			todoist.WithRate(cfg.RatePerSec),
			todoist.WithLogger(log),
		), nil
	case config.BackendGoogle:
		c, err := google.NewClient(ctx, log)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendTaskwarrior:
		return taskwarrior.NewClient(taskwarrior.WithLocation(cfg.Location)), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}
