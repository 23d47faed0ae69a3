package executor_test

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgwalters/cosa-rojig-repoize/internal/executor"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecute_CapturesOutput(t *testing.T) {
	requireShell(t)

	result, err := executor.New("sh", "-c", "echo out; echo err >&2").Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "err\n", result.Stderr)
	assert.Equal(t, 0, result.ExitCode)
}

func TestExecute_NonZeroExit(t *testing.T) {
	requireShell(t)

	result, err := executor.New("sh", "-c", "echo broken >&2; exit 3").Execute(context.Background())
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "broken\n", result.Stderr)
	assert.Contains(t, err.Error(), "sh -c")
}

func TestExecute_MissingProgram(t *testing.T) {
	result, err := executor.New("definitely-not-a-real-program-xyz").Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, -1, result.ExitCode)
}

func TestExecute_Options(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()

	var stderr bytes.Buffer
	result, err := executor.NewWrappedExecutor("sh").
		Command("-c", `pwd; echo "$ROJIG_TEST" >&2`).
		Execute(context.Background(),
			executor.WithWorkingDir(dir),
			executor.WithEnvVar("ROJIG_TEST", "value"),
			executor.WithStderrWriter(&stderr))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(strings.TrimSpace(result.Stdout), strings.TrimPrefix(dir, "/private")))
	assert.Equal(t, "value\n", result.Stderr)
	assert.Equal(t, "value\n", stderr.String())
}

func TestExecute_Cancelled(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := executor.New("sh", "-c", "sleep 5").Execute(ctx)
	require.Error(t, err)
}

func TestCommandExecutor_String(t *testing.T) {
	assert.Equal(t, "cosa basearch", executor.NewWrappedExecutor("cosa").Command("basearch").String())
}
