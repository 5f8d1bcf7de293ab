package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	return &Runner{
		Workspace: t.TempDir(),
		Timeout:   10 * time.Second,
		MaxOutput: 1 << 20,
	}
}

func TestRun_Success(t *testing.T) {
	r := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"echo", "hello"}, "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, string(res.Stdout), "hello")
	assert.NotEmpty(t, res.RunID)
	assert.False(t, res.TimedOut)
}

func TestRun_SentinelExitCode(t *testing.T) {
	r := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"sh", "-c", "exit 255"}, "")
	require.NoError(t, err)
	assert.Equal(t, 255, res.ExitCode)
	assert.False(t, res.Signaled(), "signal %q", res.Signal)
}

func TestRun_CapturesStderrSeparately(t *testing.T) {
	r := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"sh", "-c", "echo diag >&2; exit 3"}, "")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Empty(t, res.Stdout)
	assert.Equal(t, "diag\n", string(res.Stderr))
}

func TestRun_Signaled(t *testing.T) {
	r := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"sh", "-c", "kill -ABRT $$"}, "")
	require.NoError(t, err)
	require.True(t, res.Signaled(), "exit code %d", res.ExitCode)
	assert.Equal(t, -1, res.ExitCode)
	assert.Equal(t, "aborted", res.Signal)
}

func TestRun_NonZeroExit(t *testing.T) {
	r := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"sh", "-c", "exit 1"}, "")
	require.NoError(t, err)
	assert.NotZero(t, res.ExitCode)
}

func TestRun_BinaryNotFound(t *testing.T) {
	r := newTestRunner(t)
	_, err := r.Run(context.Background(), []string{"nonexistent-binary-xyz-123"}, "")
	assert.ErrorContains(t, err, "nonexistent-binary-xyz-123")
}

func TestRun_EmptyArgv(t *testing.T) {
	r := newTestRunner(t)
	_, err := r.Run(context.Background(), nil, "")
	assert.Error(t, err)
}

func TestRun_CWDWithinWorkspace(t *testing.T) {
	r := newTestRunner(t)
	require.NoError(t, os.Mkdir(filepath.Join(r.Workspace, "subdir"), 0o755))

	res, err := r.Run(context.Background(), []string{"pwd"}, "subdir")
	require.NoError(t, err)
	assert.Contains(t, string(res.Stdout), "subdir")
}

func TestRun_CWDOutsideWorkspace(t *testing.T) {
	r := newTestRunner(t)
	for _, cwd := range []string{"../", "/tmp"} {
		_, err := r.Run(context.Background(), []string{"echo"}, cwd)
		assert.ErrorContains(t, err, "outside workspace", "cwd %q", cwd)
	}
}

func TestRun_Timeout(t *testing.T) {
	r := newTestRunner(t)
	r.Timeout = 100 * time.Millisecond

	start := time.Now()
	res, err := r.Run(context.Background(), []string{"sleep", "10"}, "")
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Less(t, time.Since(start), 5*time.Second, "bounded by the timeout")
}

func TestRun_OutputTruncation(t *testing.T) {
	r := newTestRunner(t)
	r.MaxOutput = 100

	res, err := r.Run(context.Background(), []string{"sh", "-c", "dd if=/dev/zero bs=200 count=1 2>/dev/null"}, "")
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.LessOrEqual(t, len(res.Stdout), r.MaxOutput)
}
