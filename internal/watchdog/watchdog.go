package watchdog

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/avdeenkov/wirebus/internal/infrastructure/config"
)

// Logger defines the logging interface used by the Watchdog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ErrDisabled is returned by Run when the watchdog is disabled in config.
var ErrDisabled = errors.New("watchdog: disabled")

// Watchdog periodically runs an external liveness command (typically a
// controller-side connectivity probe). A command that hangs is
// hard-killed after the configured deadline and the run is reported as
// failed rather than left pending.
//
// The watchdog only observes and logs; restart or failover policy
// belongs to the external supervisor watching this process.
type Watchdog struct {
	cfg    config.WatchdogConfig
	logger Logger

	mu          sync.RWMutex
	lastRunErr  error
	lastRunTime time.Time
}

// New creates a watchdog from configuration.
func New(cfg config.WatchdogConfig) *Watchdog {
	return &Watchdog{
		cfg:    cfg,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the watchdog.
func (w *Watchdog) SetLogger(logger Logger) {
	w.logger = logger
}

// Run executes the probe on the configured interval until ctx is
// cancelled. It blocks; call it from its own goroutine.
//
// Returns:
//   - error: ErrDisabled when the watchdog is off, otherwise ctx.Err()
//     after cancellation
func (w *Watchdog) Run(ctx context.Context) error {
	if !w.cfg.Enabled {
		return ErrDisabled
	}

	interval := w.cfg.Interval()
	w.logger.Info("watchdog started",
		"command", w.cfg.Command,
		"interval", interval.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watchdog stopped")
			return ctx.Err()
		case <-ticker.C:
			w.probe(ctx)
		}
	}
}

// probe runs one invocation of the external command with a hard deadline.
func (w *Watchdog) probe(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.cfg.KillTimeout())
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(runCtx, w.cfg.Command, w.cfg.Args...)
	output, err := cmd.CombinedOutput()
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		err = fmt.Errorf("watchdog: command killed after %s", w.cfg.KillTimeout())
	}

	w.mu.Lock()
	w.lastRunErr = err
	w.lastRunTime = start
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("watchdog probe failed",
			"command", w.cfg.Command,
			"elapsed", elapsed.String(),
			"output", string(output),
			"error", err,
		)
		return
	}

	w.logger.Debug("watchdog probe ok",
		"command", w.cfg.Command,
		"elapsed", elapsed.String(),
	)
}

// LastRun reports the time and outcome of the most recent probe.
// The zero time means no probe has run yet.
func (w *Watchdog) LastRun() (time.Time, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastRunTime, w.lastRunErr
}
