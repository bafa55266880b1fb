package watchdog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/avdeenkov/wirebus/internal/infrastructure/config"
)

// waitForRun polls LastRun until a probe has completed or the deadline passes.
func waitForRun(t *testing.T, w *Watchdog, deadline time.Duration) (time.Time, error) {
	t.Helper()

	timeout := time.After(deadline)
	for {
		select {
		case <-timeout:
			t.Fatalf("no probe completed within %s", deadline)
		case <-time.After(50 * time.Millisecond):
			ts, err := w.LastRun()
			if !ts.IsZero() {
				return ts, err
			}
		}
	}
}

func TestRun_Disabled(t *testing.T) {
	w := New(config.WatchdogConfig{Enabled: false})

	if err := w.Run(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Errorf("Run() = %v, want ErrDisabled", err)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	w := New(config.WatchdogConfig{
		Enabled:            true,
		Command:            "true",
		IntervalSeconds:    60,
		KillTimeoutSeconds: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() = %v, want context.DeadlineExceeded", err)
	}
}

func TestRun_ProbeSuccess(t *testing.T) {
	w := New(config.WatchdogConfig{
		Enabled:            true,
		Command:            "true",
		IntervalSeconds:    1,
		KillTimeoutSeconds: 5,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx) //nolint:errcheck // exits on cancel

	ts, err := waitForRun(t, w, 5*time.Second)
	if err != nil {
		t.Errorf("LastRun() error = %v, want nil", err)
	}
	if ts.IsZero() {
		t.Error("LastRun() time is zero after probe")
	}
}

func TestRun_ProbeFailure(t *testing.T) {
	w := New(config.WatchdogConfig{
		Enabled:            true,
		Command:            "false",
		IntervalSeconds:    1,
		KillTimeoutSeconds: 5,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx) //nolint:errcheck // exits on cancel

	_, err := waitForRun(t, w, 5*time.Second)
	if err == nil {
		t.Error("LastRun() error = nil, want exit failure")
	}
}

func TestRun_HardKillsStuckCommand(t *testing.T) {
	w := New(config.WatchdogConfig{
		Enabled:            true,
		Command:            "sleep",
		Args:               []string{"60"},
		IntervalSeconds:    1,
		KillTimeoutSeconds: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx) //nolint:errcheck // exits on cancel

	_, err := waitForRun(t, w, 10*time.Second)
	if err == nil {
		t.Fatal("LastRun() error = nil, want kill error")
	}
	if !strings.Contains(err.Error(), "killed") {
		t.Errorf("LastRun() error = %v, want mention of kill", err)
	}
}

func TestLastRun_BeforeAnyProbe(t *testing.T) {
	w := New(config.WatchdogConfig{Enabled: true})

	ts, err := w.LastRun()
	if !ts.IsZero() {
		t.Errorf("LastRun() time = %v, want zero", ts)
	}
	if err != nil {
		t.Errorf("LastRun() error = %v, want nil", err)
	}
}
