package sim

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "calibra/pkg/domain-errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func prepare(t *testing.T) Invocation {
	t.Helper()
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(out, 0o755))
	return Invocation{ConfigPath: "sim.cfg", WorkDir: dir, OutputDir: out}
}

func TestRunSucceedsWhenOutputsExist(t *testing.T) {
	inv := prepare(t)
	require.NoError(t, os.WriteFile(filepath.Join(inv.OutputDir, "G1_0.xml"), []byte("<detector/>"), 0o644))

	// "true" ignores its arguments and exits zero, standing in for the
	// simulator binary.
	runner := NewExecRunner("true", time.Minute, WithLogger(testLogger()))
	assert.NoError(t, runner.Run(context.Background(), inv))
}

func TestRunFailsOnEmptyOutputDir(t *testing.T) {
	inv := prepare(t)

	runner := NewExecRunner("true", time.Minute, WithLogger(testLogger()))
	err := runner.Run(context.Background(), inv)

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestRunSurfacesNonZeroExit(t *testing.T) {
	inv := prepare(t)

	runner := NewExecRunner("false", time.Minute, WithLogger(testLogger()))
	err := runner.Run(context.Background(), inv)

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestRunTimesOut(t *testing.T) {
	inv := prepare(t)
	// Leave a partial output behind, as a real interrupted simulator would.
	require.NoError(t, os.WriteFile(filepath.Join(inv.OutputDir, "partial.xml"), []byte("<det"), 0o644))

	script := filepath.Join(inv.WorkDir, "slow-sim.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 10\n"), 0o755))

	runner := NewExecRunner(script, 50*time.Millisecond, WithLogger(testLogger()))
	err := runner.Run(context.Background(), inv)

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))

	// Partial outputs stay in place for diagnosis.
	entries, readErr := os.ReadDir(inv.OutputDir)
	require.NoError(t, readErr)
	assert.NotEmpty(t, entries)
}
