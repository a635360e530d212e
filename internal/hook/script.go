// Package hook provides the default ScriptRunner: invocation of a single
// user hook script per interface event, per §6's script_run(iface)
// collaborator contract.
package hook

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/mcingel/dhcpcd/internal/dhcpclient"
	"github.com/mcingel/dhcpcd/internal/metrics"
)

// Runner executes the configured hook script for an interface, bounding
// concurrent executions across all interfaces with a semaphore. This is
// the only permitted use of os/exec in the project.
type Runner struct {
	logger      *slog.Logger
	concurrency int
	sem         chan struct{}
	wg          sync.WaitGroup
}

// NewRunner creates a Runner with the given concurrency limit.
func NewRunner(concurrency int, logger *slog.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Runner{
		logger:      logger,
		concurrency: concurrency,
		sem:         make(chan struct{}, concurrency),
	}
}

// Run invokes script for iface, passing env as the child process's
// environment in addition to the inherited one, and reason as a trailing
// argument. Blocking per §6 (`script_run(iface)`); the engine calls it from
// its single goroutine and does not proceed until it returns, matching the
// source's synchronous hook invocation — callers that want to bound total
// wall-clock impact should keep the script fast or background its own work.
func (r *Runner) Run(ctx context.Context, script, iface string, reason dhcpclient.Reason, env []string) error {
	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	default:
		r.logger.Warn("hook pool full, dropping execution", "iface", iface, "reason", reason)
		return nil
	}

	r.wg.Add(1)
	defer r.wg.Done()

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(cctx, script, string(reason))
	cmd.Env = append(os.Environ(), env...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.HookExecutions.WithLabelValues(iface, string(reason), result).Inc()
	metrics.HookDuration.WithLabelValues(iface).Observe(duration.Seconds())

	if err != nil {
		if cctx.Err() == context.DeadlineExceeded {
			r.logger.Error("hook script timed out", "iface", iface, "script", script, "reason", reason)
		} else {
			r.logger.Error("hook script failed", "iface", iface, "script", script, "reason", reason, "error", err, "stderr", stderr.String())
		}
		return err
	}

	r.logger.Debug("hook script completed", "iface", iface, "reason", reason, "duration", duration.String())
	return nil
}

// Wait blocks until all running scripts complete.
func (r *Runner) Wait() {
	r.wg.Wait()
}
