package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNext(t *testing.T) {
	tests := []struct {
		spec string
		now  time.Time
		want time.Time
	}{
		{"0 0 6-23 * * *", time.Date(2024, 1, 3, 23, 30, 0, 0, time.UTC), time.Date(2024, 1, 4, 6, 0, 0, 0, time.UTC)},
		{"0 0 6-23 * * *", time.Date(2024, 1, 3, 10, 15, 0, 0, time.UTC), time.Date(2024, 1, 3, 11, 0, 0, 0, time.UTC)},
		{"*/5 7-23 * * *", time.Date(2024, 1, 3, 7, 2, 0, 0, time.UTC), time.Date(2024, 1, 3, 7, 5, 0, 0, time.UTC)},
		{"@hourly", time.Date(2024, 1, 3, 7, 2, 0, 0, time.UTC), time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := Next(tt.spec, tt.now)
		if err != nil {
			t.Fatalf("Next(%q) failed: %v", tt.spec, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("Next(%q, %v) = %v, want %v", tt.spec, tt.now, got, tt.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse("every now and then"); err == nil {
		t.Error("Expected an error for an invalid schedule")
	}
}

func TestRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "@every 1h", zerolog.Nop(), Options{RunOnStart: true}, func(context.Context) {
			calls.Add(1)
			cancel()
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if calls.Load() != 1 {
		t.Errorf("Expected one run on start, got %d", calls.Load())
	}
}

func TestRunRejectsBadSpec(t *testing.T) {
	err := Run(context.Background(), "nope", zerolog.Nop(), Options{}, func(context.Context) {})
	if err == nil {
		t.Error("Expected an error for an invalid schedule")
	}
}
