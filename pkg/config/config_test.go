package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/harrisonrobin/daysleft/pkg/marker"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, envs := range envKeys {
		for _, env := range envs {
			t.Setenv(env, "")
			os.Unsetenv(env)
		}
	}
	return home
}

func TestLoadFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("PROJECTS", " Work, home ,,Errands ")
	t.Setenv("WORKWEEK", "true")
	t.Setenv("FORCE_WRITE_ONCE", "True")
	t.Setenv("COMPLETE_PAST_ITEMS", "false")
	t.Setenv("TODOIST_APIKEY", "secret")
	t.Setenv("DAYSLEFT_TIMEZONE", "UTC")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if want := []string{"work", "home", "errands"}; !reflect.DeepEqual(cfg.ProjectNames(), want) {
		t.Errorf("ProjectNames() = %v, want %v", cfg.ProjectNames(), want)
	}
	if cfg.Mode != marker.WorkdaysOnly {
		t.Errorf("Expected WorkdaysOnly, got %s", cfg.Mode)
	}
	if !cfg.ForceWrite {
		t.Error("Expected ForceWrite to be true")
	}
	if cfg.CompletePastItems {
		t.Error("Expected CompletePastItems to be false")
	}
	if cfg.Backend != BackendTodoist {
		t.Errorf("Expected default backend %s, got %s", BackendTodoist, cfg.Backend)
	}
	if cfg.Schedule != DefaultSchedule {
		t.Errorf("Expected default schedule, got %q", cfg.Schedule)
	}
	if cfg.Location.String() != "UTC" {
		t.Errorf("Expected UTC location, got %s", cfg.Location)
	}
}

func TestLoadWorkWeekUnsetShowsBoth(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Mode != marker.ShowBoth {
		t.Errorf("Expected ShowBoth, got %s", cfg.Mode)
	}
}

func TestValidate(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrMissing) {
		t.Errorf("Expected ErrMissing for projects, got %v", err)
	}

	cfg.Projects = "Work"
	if err := cfg.Validate(); !errors.Is(err, ErrMissing) {
		t.Errorf("Expected ErrMissing for api key, got %v", err)
	}

	cfg.Backend = BackendTaskwarrior
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected taskwarrior backend to need no key, got %v", err)
	}

	cfg.Backend = "jira"
	if err := cfg.Validate(); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Expected ErrUnknownBackend, got %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	home := isolate(t)

	cfg := &Config{
		Projects:      "Work,Home",
		Mode:          marker.AllDaysOnly,
		Backend:       BackendGoogle,
		TodoistAPIKey: "never-written",
		Schedule:      "@every 1h",
		Workers:       2,
		RatePerSec:    1,
		LogLevel:      "debug",
		LogFormat:     "json",
	}
	if err := Save(cfg, ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	path := filepath.Join(home, ".config", xdgAppName, configFile)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if string(b) == "" {
		t.Fatal("config file is empty")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Projects != "Work,Home" || loaded.Backend != BackendGoogle || loaded.Workers != 2 {
		t.Errorf("unexpected round trip: %+v", loaded)
	}
	if loaded.Mode != marker.AllDaysOnly {
		t.Errorf("Expected AllDaysOnly, got %s", loaded.Mode)
	}
	if loaded.TodoistAPIKey != "" {
		t.Error("Expected the api key not to be persisted")
	}

	t.Setenv("DAYSLEFT_BACKEND", "taskwarrior")
	loaded, err = Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Backend != BackendTaskwarrior {
		t.Errorf("Expected the environment to override the file, got %s", loaded.Backend)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected an error for a missing explicit config file")
	}
}
