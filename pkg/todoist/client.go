// Package todoist is a small client for the Todoist REST API covering the
// calls the runner needs: list projects, list tasks, update and close a task.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/harrisonrobin/daysleft/pkg/model"
)

// APIError is returned for non-2xx responses.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("todoist %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client talks to the Todoist REST API. The http.Client it wraps must add the
// bearer token; see auth.TodoistClient.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimSpace(u); u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithRate limits requests to perSec per second. Zero or less disables the limit.
func WithRate(perSec float64) Option {
	return func(c *Client) {
		if perSec <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSec)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithLogger sets the logger used for tasks that are listed but can't be read.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient returns a client using httpClient for transport.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{http: httpClient, baseURL: "https://api.todoist.com/rest/v2", log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type due struct {
	Date     string `json:"date"`
	Datetime string `json:"datetime,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	String   string `json:"string,omitempty"`
	Lang     string `json:"lang,omitempty"`
}

type task struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	ProjectID string `json:"project_id"`
	Due       *due   `json:"due"`
}

type updateRequest struct {
	Content string `json:"content"`
	DueDate string `json:"due_date,omitempty"`
	DueLang string `json:"due_lang,omitempty"`
}

// Projects lists all projects.
func (c *Client) Projects(ctx context.Context) ([]model.Project, error) {
	var raw []project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &raw); err != nil {
		return nil, err
	}
	projects := make([]model.Project, 0, len(raw))
	for _, p := range raw {
		projects = append(projects, model.Project{ID: p.ID, Name: p.Name})
	}
	return projects, nil
}

// Tasks lists all active tasks. A task whose due value can't be parsed is
// returned without a due date.
func (c *Client) Tasks(ctx context.Context) ([]model.Task, error) {
	var raw []task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &raw); err != nil {
		return nil, err
	}
	tasks := make([]model.Task, 0, len(raw))
	for _, t := range raw {
		d, err := parseDue(t.Due)
		if err != nil {
			c.log.Warn().Err(err).Str("task", t.ID).Str("content", t.Content).Msg("ignoring unreadable due date")
			d = nil
		}
		tasks = append(tasks, model.Task{ID: t.ID, Content: t.Content, ProjectID: t.ProjectID, Due: d})
	}
	return tasks, nil
}

// UpdateTask writes the task's content and due date. Date-time dues are sent
// as plain dates, since the runner only ever writes normalised values.
func (c *Client) UpdateTask(ctx context.Context, t model.Task) error {
	req := updateRequest{Content: t.Content}
	if t.HasDue() {
		req.DueDate = t.Due.DateOnly(time.UTC).Format()
		req.DueLang = t.Due.Lang
	}
	return c.do(ctx, http.MethodPost, "/tasks/"+t.ID, req, nil)
}

// CompleteTask closes the task.
func (c *Client) CompleteTask(ctx context.Context, t model.Task) error {
	return c.do(ctx, http.MethodPost, "/tasks/"+t.ID+"/close", nil, nil)
}

func parseDue(d *due) (*model.Due, error) {
	if d == nil {
		return nil, nil
	}
	if d.Datetime != "" {
		t, err := parseDatetime(d.Datetime, d.Timezone)
		if err != nil {
			return nil, err
		}
		v := model.NewDateTime(t, d.Lang)
		return &v, nil
	}
	if d.Date == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, d.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse due date %q: %w", d.Date, err)
	}
	v := model.NewDate(t.Year(), t.Month(), t.Day(), d.Lang)
	return &v, nil
}

// parseDatetime reads Todoist's datetime field, which is either UTC with a
// trailing Z or floating local time in the task's timezone.
func parseDatetime(s, tz string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	loc := time.Local
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse due datetime %q: %w", s, err)
	}
	return t, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("todoist %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
