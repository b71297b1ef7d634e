package shell

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalExecutor_Run(t *testing.T) {
	exec := NewLocalExecutor()

	res, err := exec.Run(context.Background(), Command{Script: "echo hello"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.True(t, res.Success())
	assert.Equal(t, "hello\n", res.Output)
}

func TestLocalExecutor_Run_NonZeroExit(t *testing.T) {
	exec := NewLocalExecutor()

	res, err := exec.Run(context.Background(), Command{Script: "echo failing; exit 3"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.Success())
	assert.Equal(t, "failing\n", res.Output)
}

func TestLocalExecutor_Run_CombinedOutput(t *testing.T) {
	exec := NewLocalExecutor()

	res, err := exec.Run(context.Background(), Command{Script: "echo out; echo err 1>&2"})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "out")
	assert.Contains(t, res.Output, "err")
}

func TestLocalExecutor_Run_Dir(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "marker"), []byte("x"), 0644))

	exec := NewLocalExecutor()
	res, err := exec.Run(context.Background(), Command{Script: "ls", Dir: tmpDir})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "marker")
}

func TestLocalExecutor_Run_Env(t *testing.T) {
	exec := NewLocalExecutor()

	res, err := exec.Run(context.Background(), Command{
		Script: "echo $STEP_GREETING",
		Env:    []string{"STEP_GREETING=bonjour"},
	})
	require.NoError(t, err)
	assert.Equal(t, "bonjour\n", res.Output)
}

func TestLocalExecutor_Run_Timeout(t *testing.T) {
	exec := NewLocalExecutor()

	res, err := exec.Run(context.Background(), Command{
		Script:  "sleep 5",
		Timeout: 50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Equal(t, -1, res.ExitCode)
}

func TestLocalExecutor_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := NewLocalExecutor()
	res, err := exec.Run(ctx, Command{Script: "sleep 5"})
	require.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "'plain'", Quote("plain"))
	assert.Equal(t, "'ray[rllib]==1.0.0'", Quote("ray[rllib]==1.0.0"))
	assert.Equal(t, `'it'\''s'`, Quote("it's"))

	exec := NewLocalExecutor()
	res, err := exec.Run(context.Background(), Command{Script: "echo " + Quote("a'b $HOME `id`")})
	require.NoError(t, err)
	assert.Equal(t, "a'b $HOME `id`\n", res.Output)
}

func TestMockExecutor_Records(t *testing.T) {
	mock := &MockExecutor{Output: "ok"}

	res, err := mock.Run(context.Background(), Command{Script: "echo one"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "ok", res.Output)

	_, err = mock.Run(context.Background(), Command{Script: "echo two", Dir: "/tmp"})
	require.NoError(t, err)

	assert.Equal(t, []string{"echo one", "echo two"}, mock.Scripts())
	assert.Equal(t, "/tmp", mock.RecordedCommands[1].Dir)
}

func TestMockExecutor_FailOn(t *testing.T) {
	mock := &MockExecutor{
		FailOn: map[string]int{"pytest": 1},
	}

	res, err := mock.Run(context.Background(), Command{Script: "pip install numpy"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)

	res, err = mock.Run(context.Background(), Command{Script: "python -m pytest"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExitCode)
}

func TestMockExecutor_Err(t *testing.T) {
	boom := errors.New("spawn failed")
	mock := &MockExecutor{Err: boom}

	res, err := mock.Run(context.Background(), Command{Script: "echo"})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, -1, res.ExitCode)
}
