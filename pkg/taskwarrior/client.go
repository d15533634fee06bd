package taskwarrior

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"time"

	"github.com/harrisonrobin/daysleft/pkg/model"
)

// Runner executes the task binary with args and returns its stdout.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

// Client drives a local Taskwarrior install. Projects are identified by name.
type Client struct {
	run Runner
	loc *time.Location
}

// Option configures a Client.
type Option func(*Client)

// WithRunner replaces the exec-based runner.
func WithRunner(r Runner) Option {
	return func(c *Client) { c.run = r }
}

// WithLocation sets the zone used to tell date-only dues (local midnight)
// from dues with a time.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.loc = loc
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{run: execTask, loc: time.Local}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func execTask(ctx context.Context, args ...string) ([]byte, error) {
	args = append([]string{"rc.hooks=0", "rc.confirmation=off", "rc.verbose=nothing"}, args...)
	cmd := exec.CommandContext(ctx, "task", args...)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("taskwarrior command failed: exit code %d, %s, stderr: %s",
				exitErr.ExitCode(), err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("taskwarrior command failed: %w", err)
	}
	return output, nil
}

// GetTasks runs `task <filter> export`.
func (c *Client) GetTasks(ctx context.Context, filter []string) ([]Task, error) {
	args := append(append([]string{}, filter...), "export")
	output, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var tasks []Task
	if err := json.Unmarshal(output, &tasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal taskwarrior output: %w", err)
	}
	return tasks, nil
}

// Projects returns the distinct project names of pending tasks.
func (c *Client) Projects(ctx context.Context) ([]model.Project, error) {
	tasks, err := c.GetTasks(ctx, []string{"status:" + statusPending})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var projects []model.Project
	for _, t := range tasks {
		if t.Project == "" || seen[t.Project] {
			continue
		}
		seen[t.Project] = true
		projects = append(projects, model.Project{ID: t.Project, Name: t.Project})
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}

// Tasks returns pending tasks.
func (c *Client) Tasks(ctx context.Context) ([]model.Task, error) {
	tasks, err := c.GetTasks(ctx, []string{"status:" + statusPending})
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, model.Task{ID: t.UUID, Content: t.Description, ProjectID: t.Project, Due: c.due(t.Due)})
	}
	return out, nil
}

// due treats local midnight as a date without a time, which is how
// Taskwarrior stores `due:2024-01-10`.
func (c *Client) due(ct *CustomTime) *model.Due {
	if ct == nil || ct.IsZero() {
		return nil
	}
	local := ct.In(c.loc)
	if local.Hour() == 0 && local.Minute() == 0 && local.Second() == 0 {
		d := model.NewDate(local.Year(), local.Month(), local.Day(), "")
		return &d
	}
	d := model.NewDateTime(ct.Time, "")
	return &d
}

// UpdateTask rewrites the description and due date.
func (c *Client) UpdateTask(ctx context.Context, t model.Task) error {
	args := []string{t.ID, "modify", "description:" + t.Content}
	if t.HasDue() {
		args = append(args, "due:"+t.Due.DateOnly(c.loc).Format())
	}
	_, err := c.run(ctx, args...)
	return err
}

// CompleteTask marks the task done.
func (c *Client) CompleteTask(ctx context.Context, t model.Task) error {
	_, err := c.run(ctx, t.ID, "done")
	return err
}
