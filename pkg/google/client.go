package google

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/tasks/v1"

	"github.com/harrisonrobin/daysleft/pkg/auth"
	"github.com/harrisonrobin/daysleft/pkg/model"
)

const (
	statusCompleted = "completed"
	pageSize        = 100
)

// TasksClient is a Google Tasks API client. Task lists play the part of
// projects, and a task's title is its content.
type TasksClient struct {
	srv *tasks.Service
	log zerolog.Logger
}

// NewClient creates a Google Tasks client using the cached OAuth token.
func NewClient(ctx context.Context, log zerolog.Logger) (*TasksClient, error) {
	srv, err := auth.GetTasksService(ctx, log)
	if err != nil {
		return nil, err
	}
	return NewTasksClient(srv, log), nil
}

// NewTasksClient wraps an existing service.
func NewTasksClient(srv *tasks.Service, log zerolog.Logger) *TasksClient {
	return &TasksClient{srv: srv, log: log}
}

// Projects lists the user's task lists.
func (c *TasksClient) Projects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	err := c.srv.Tasklists.List().MaxResults(pageSize).Pages(ctx, func(page *tasks.TaskLists) error {
		for _, l := range page.Items {
			projects = append(projects, model.Project{ID: l.Id, Name: l.Title})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve task lists: %w", err)
	}
	return projects, nil
}

// Tasks lists open tasks across every task list. A task whose due value
// can't be parsed is returned without a due date.
func (c *TasksClient) Tasks(ctx context.Context) ([]model.Task, error) {
	lists, err := c.Projects(ctx)
	if err != nil {
		return nil, err
	}

	var out []model.Task
	for _, l := range lists {
		err := c.srv.Tasks.List(l.ID).ShowCompleted(false).MaxResults(pageSize).Pages(ctx, func(page *tasks.Tasks) error {
			for _, t := range page.Items {
				if t.Status == statusCompleted || t.Deleted {
					continue
				}
				due, err := parseDue(t.Due)
				if err != nil {
					c.log.Warn().Err(err).Str("task", t.Id).Str("list", l.ID).Msg("ignoring unreadable due date")
					due = nil
				}
				out = append(out, model.Task{ID: t.Id, Content: t.Title, ProjectID: l.ID, Due: due})
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve tasks from list %s: %w", l.ID, err)
		}
	}
	return out, nil
}

// UpdateTask patches the title and due date.
func (c *TasksClient) UpdateTask(ctx context.Context, t model.Task) error {
	patch := &tasks.Task{Title: t.Content}
	if t.HasDue() {
		patch.Due = formatDue(*t.Due)
	}
	_, err := c.srv.Tasks.Patch(t.ProjectID, t.ID, patch).Context(ctx).Do()
	return err
}

// CompleteTask marks the task completed.
func (c *TasksClient) CompleteTask(ctx context.Context, t model.Task) error {
	_, err := c.srv.Tasks.Patch(t.ProjectID, t.ID, &tasks.Task{Status: statusCompleted}).Context(ctx).Do()
	return err
}

// Google Tasks stores due values as RFC 3339 timestamps but only keeps the date.
func parseDue(s string) (*model.Due, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse due %q: %w", s, err)
	}
	t = t.UTC()
	d := model.NewDate(t.Year(), t.Month(), t.Day(), "")
	return &d, nil
}

func formatDue(d model.Due) string {
	return d.DateOnly(time.UTC).Date.Format(time.RFC3339)
}
