package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"

	"github.com/harrisonrobin/daysleft/pkg/model"
)

type patchCall struct {
	path string
	body map[string]any
}

func newTestClient(t *testing.T) (*TasksClient, *[]patchCall) {
	t.Helper()
	var mu sync.Mutex
	var patches []patchCall

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/users/@me/lists"):
			w.Write([]byte(`{"items":[{"id":"L1","title":"Work"},{"id":"L2","title":"Home"}]}`))
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/lists/L1/tasks"):
			w.Write([]byte(`{"items":[
				{"id":"T1","title":"Pay rent","due":"2024-01-10T00:00:00.000Z","status":"needsAction"},
				{"id":"T2","title":"Done already","due":"2024-01-01T00:00:00.000Z","status":"completed"}
			]}`))
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/lists/L2/tasks"):
			w.Write([]byte(`{"items":[
				{"id":"T3","title":"Someday","status":"needsAction"},
				{"id":"T4","title":"Garbled","due":"next tuesday","status":"needsAction"}
			]}`))
		case r.Method == http.MethodPatch:
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			patches = append(patches, patchCall{path: r.URL.Path, body: body})
			mu.Unlock()
			w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	svc, err := tasks.NewService(context.Background(), option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return NewTasksClient(svc, zerolog.Nop()), &patches
}

func TestTasksClient(t *testing.T) {
	c, patches := newTestClient(t)
	ctx := context.Background()

	projects, err := c.Projects(ctx)
	if err != nil {
		t.Fatalf("Projects failed: %v", err)
	}
	if len(projects) != 2 || projects[1].Name != "Home" {
		t.Errorf("unexpected projects: %+v", projects)
	}

	got, err := c.Tasks(ctx)
	if err != nil {
		t.Fatalf("Tasks failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 open tasks, got %d: %+v", len(got), got)
	}
	if got[0].ID != "T1" || got[0].ProjectID != "L1" || got[0].Due == nil || got[0].Due.Format() != "2024-01-10" {
		t.Errorf("unexpected task: %+v", got[0])
	}
	if got[1].Due != nil {
		t.Errorf("Expected task without due, got %+v", got[1].Due)
	}
	if got[2].ID != "T4" || got[2].Due != nil {
		t.Errorf("Expected unreadable due to be dropped, got %+v", got[2])
	}

	task := got[0]
	task.Content = "Pay rent [7/4 days remaining]"
	if err := c.UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if err := c.CompleteTask(ctx, task); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}

	if len(*patches) != 2 {
		t.Fatalf("Expected 2 patches, got %d", len(*patches))
	}
	update := (*patches)[0]
	if !strings.HasSuffix(update.path, "/lists/L1/tasks/T1") {
		t.Errorf("unexpected patch path %s", update.path)
	}
	if update.body["title"] != "Pay rent [7/4 days remaining]" || update.body["due"] != "2024-01-10T00:00:00Z" {
		t.Errorf("unexpected update body: %v", update.body)
	}
	if (*patches)[1].body["status"] != "completed" {
		t.Errorf("unexpected complete body: %v", (*patches)[1].body)
	}
}

func TestFormatDue(t *testing.T) {
	d := model.NewDate(2024, 2, 29, "")
	if got := formatDue(d); got != "2024-02-29T00:00:00Z" {
		t.Errorf("formatDue() = %s", got)
	}
}
