package sim

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"time"

	dErrors "calibra/pkg/domain-errors"
)

// Invocation describes one simulator run: the prepared input files and the
// directory the simulator must fill with detector output.
type Invocation struct {
	ConfigPath string
	WorkDir    string
	OutputDir  string
}

// Runner drives the external simulator. It is an interface so the lifecycle
// service can be tested without a simulator binary.
//
//go:generate mockgen -source=runner.go -destination=mocks/mocks.go -package=mocks
type Runner interface {
	Run(ctx context.Context, inv Invocation) error
}

// ExecRunner invokes the simulator as an opaque subprocess. The binary
// consumes prepared input files and produces detector output files; nothing
// here knows about its internals.
type ExecRunner struct {
	command string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *ExecRunner) { r.logger = logger }
}

// NewExecRunner builds a runner for the given simulator command with a hard
// per-run timeout.
func NewExecRunner(command string, timeout time.Duration, opts ...Option) *ExecRunner {
	r := &ExecRunner{
		command: command,
		timeout: timeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one simulation. On timeout or cancellation the subprocess is
// killed and a timeout error returned; partially written output files are
// deliberately left in place for diagnosis. A successful exit still fails
// when the expected output directory is empty.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.command, "-c", inv.ConfigPath)
	cmd.Dir = inv.WorkDir

	started := time.Now()
	r.logger.Info("starting simulator", "command", r.command, "config", inv.ConfigPath)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return dErrors.Newf(dErrors.CodeTimeout, "simulator timed out after %s", time.Since(started).Round(time.Second))
		}
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return dErrors.Wrap(ctxErr, dErrors.CodeTimeout, "simulator cancelled")
		}
		r.logger.Error("simulator failed", "error", err, "output", truncate(string(output), 2048))
		return dErrors.Wrap(err, dErrors.CodeInternal, "simulator exited with error")
	}

	if err := checkOutputs(inv.OutputDir); err != nil {
		return err
	}

	r.logger.Info("simulator finished", "duration", time.Since(started).Round(time.Second))
	return nil
}

// checkOutputs verifies the simulator actually produced output files.
func checkOutputs(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "read simulator output dir")
	}
	if len(entries) == 0 {
		return dErrors.Newf(dErrors.CodeInternal, "simulator produced no output files in %s", dir)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
