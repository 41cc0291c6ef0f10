package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const windowsOS = "windows"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == windowsOS {
		t.Skip("Skipping shell script test on Windows")
	}
}

// writeScript writes an executable shell script into a temporary directory
func writeScript(t *testing.T, body string) string {
	t.Helper()
	scriptPath := filepath.Join(t.TempDir(), "script.sh")
	// #nosec G306 -- test file permissions are acceptable for temporary test files
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/bin/sh\n"+body), 0755))
	return scriptPath
}

func strPtr(s string) *string {
	return &s
}

// TestNewProcessExecutor tests the creation of a new process executor
func TestNewProcessExecutor(t *testing.T) {
	executor := NewProcessExecutor()
	require.NotNil(t, executor)
	assert.NotNil(t, executor.clock)
	assert.NotNil(t, executor.commandRunner)
	assert.Equal(t, os.Stderr, executor.stderr)
}

// TestExecute_BinarySuccess tests successful execution of a binary
func TestExecute_BinarySuccess(t *testing.T) {
	skipOnWindows(t)
	executor := NewProcessExecutor()

	result, err := executor.Execute(context.Background(), &ProcessSpec{
		Path: "/bin/echo",
		Args: []string{"hello world"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello world\n", result.Stdout)
}

// TestExecute_WithArgs tests execution with command-line arguments
func TestExecute_WithArgs(t *testing.T) {
	skipOnWindows(t)
	executor := NewProcessExecutor()
	script := writeScript(t, "echo $1 $2\n")

	result, err := executor.Execute(context.Background(), &ProcessSpec{
		Path: script,
		Args: []string{"list", "extra"},
	})
	require.NoError(t, err)
	assert.Equal(t, "list extra\n", result.Stdout)
}

// TestExecute_WithStdin tests that stdin is delivered to the child
func TestExecute_WithStdin(t *testing.T) {
	skipOnWindows(t)
	executor := NewProcessExecutor()
	script := writeScript(t, "cat\n")

	input := "{\"id\":\"a\"}\n{\"id\":\"b\"}\n"
	result, err := executor.Execute(context.Background(), &ProcessSpec{
		Path:  script,
		Stdin: strPtr(input),
	})
	require.NoError(t, err)
	assert.Equal(t, input, result.Stdout)
}

// TestExecute_EmptyStdin tests that an empty stdin string reaches EOF immediately
func TestExecute_EmptyStdin(t *testing.T) {
	skipOnWindows(t)
	executor := NewProcessExecutor()
	script := writeScript(t, "cat\necho done\n")

	result, err := executor.Execute(context.Background(), &ProcessSpec{
		Path:  script,
		Stdin: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "done\n", result.Stdout)
}

// TestExecute_Env tests that the environment is replaced when set
func TestExecute_Env(t *testing.T) {
	skipOnWindows(t)
	executor := NewProcessExecutor()
	script := writeScript(t, "echo \"$_PAL_PALETTE:$PAL_NAME\"\n")

	result, err := executor.Execute(context.Background(), &ProcessSpec{
		Path: script,
		Env:  []string{"_PAL_PALETTE=ssh", "PAL_NAME=web01"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ssh:web01\n", result.Stdout)
}

// TestExecute_Dir tests that the working directory is honoured
func TestExecute_Dir(t *testing.T) {
	skipOnWindows(t)
	executor := NewProcessExecutor()
	script := writeScript(t, "pwd\n")
	dir := t.TempDir()

	result, err := executor.Execute(context.Background(), &ProcessSpec{
		Path: script,
		Dir:  dir,
	})
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(strings.TrimSpace(result.Stdout))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// TestExecute_NonZeroExitCode tests that a failing process is not an error
func TestExecute_NonZeroExitCode(t *testing.T) {
	skipOnWindows(t)
	var stderr bytes.Buffer
	executor := NewProcessExecutorWithRunner(clockwork.NewRealClock(), NewExecCommandRunner(), &stderr)
	script := writeScript(t, "echo partial\necho error message >&2\nexit 42\n")

	result, err := executor.Execute(context.Background(), &ProcessSpec{Path: script})
	require.NoError(t, err)
	assert.Equal(t, 42, result.ExitCode)
	assert.Equal(t, "partial\n", result.Stdout)
	assert.Equal(t, "error message\n", stderr.String())
}

// TestExecute_CommandNotFound tests execution of a missing binary
func TestExecute_CommandNotFound(t *testing.T) {
	executor := NewProcessExecutor()

	result, err := executor.Execute(context.Background(), &ProcessSpec{
		Path: filepath.Join(t.TempDir(), "does-not-exist"),
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "failed to start")
}

// TestExecute_ContextCancellation tests that a cancelled context kills the child
func TestExecute_ContextCancellation(t *testing.T) {
	skipOnWindows(t)
	executor := NewProcessExecutor()
	script := writeScript(t, "exec sleep 10\n")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := executor.Execute(ctx, &ProcessSpec{Path: script})
	require.NoError(t, err)
	assert.NotEqual(t, 0, result.ExitCode)
	assert.Less(t, time.Since(start), 5*time.Second)
}

// mockCommand is a scripted Command for exercising executor error paths
type mockCommand struct {
	stdout   string
	pipeErr  error
	startErr error
	waitErr  error
	env      []string
	dir      string
	stdin    io.Reader
	released bool
}

func (m *mockCommand) StdoutPipe() (io.ReadCloser, error) {
	if m.pipeErr != nil {
		return nil, m.pipeErr
	}
	return io.NopCloser(strings.NewReader(m.stdout)), nil
}

func (m *mockCommand) SetStdin(r io.Reader) { m.stdin = r }
func (m *mockCommand) SetStderr(io.Writer) {}
func (m *mockCommand) SetEnv(env []string) { m.env = env }
func (m *mockCommand) SetDir(dir string) { m.dir = dir }
func (m *mockCommand) Start() error { return m.startErr }
func (m *mockCommand) Wait() error { return m.waitErr }
func (m *mockCommand) Release() error {
	m.released = true
	return nil
}

var _ Command = &mockCommand{}

type mockCommandRunner struct {
	cmd  *mockCommand
	name string
	args []string
}

func (m *mockCommandRunner) CommandContext(_ context.Context, name string, arg ...string) Command {
	m.name = name
	m.args = arg
	return m.cmd
}

var _ CommandRunner = &mockCommandRunner{}

// TestExecute_Duration tests that duration is measured with the injected clock
func TestExecute_Duration(t *testing.T) {
	fakeClock := clockwork.NewFakeClock()
	runner := &mockCommandRunner{cmd: &mockCommand{stdout: "ok"}}
	executor := NewProcessExecutorWithRunner(fakeClock, runner, io.Discard)

	result, err := executor.Execute(context.Background(), &ProcessSpec{Path: "plugin", Args: []string{"list"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Stdout)
	assert.Equal(t, time.Duration(0), result.Duration)
	assert.Equal(t, "plugin", runner.name)
	assert.Equal(t, []string{"list"}, runner.args)
}

// TestExecute_PipeError tests error handling for pipe creation failures
func TestExecute_PipeError(t *testing.T) {
	runner := &mockCommandRunner{cmd: &mockCommand{pipeErr: errors.New("no pipes")}}
	executor := NewProcessExecutorWithRunner(clockwork.NewFakeClock(), runner, io.Discard)

	_, err := executor.Execute(context.Background(), &ProcessSpec{Path: "plugin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create stdout pipe")
}

// TestExecute_WaitError tests that non-exit wait failures surface as errors
func TestExecute_WaitError(t *testing.T) {
	runner := &mockCommandRunner{cmd: &mockCommand{waitErr: errors.New("wait broke")}}
	executor := NewProcessExecutorWithRunner(clockwork.NewFakeClock(), runner, io.Discard)

	result, err := executor.Execute(context.Background(), &ProcessSpec{Path: "plugin"})
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Contains(t, err.Error(), "failed to wait on plugin")
}

// TestStartDetached tests that a detached process is started and released
func TestStartDetached(t *testing.T) {
	cmd := &mockCommand{}
	runner := &mockCommandRunner{cmd: cmd}
	executor := NewProcessExecutorWithRunner(clockwork.NewFakeClock(), runner, io.Discard)

	err := executor.StartDetached(&ProcessSpec{
		Path: "/usr/bin/pal",
		Args: []string{"cache-regen", "ssh", "fzf"},
		Env:  []string{"A=1"},
		Dir:  "/tmp",
	})
	require.NoError(t, err)
	assert.True(t, cmd.released)
	assert.Equal(t, []string{"A=1"}, cmd.env)
	assert.Equal(t, "/tmp", cmd.dir)
	assert.Equal(t, []string{"cache-regen", "ssh", "fzf"}, runner.args)
}

// TestStartDetached_StartError tests that start failures are reported
func TestStartDetached_StartError(t *testing.T) {
	cmd := &mockCommand{startErr: errors.New("denied")}
	executor := NewProcessExecutorWithRunner(clockwork.NewFakeClock(), &mockCommandRunner{cmd: cmd}, io.Discard)

	err := executor.StartDetached(&ProcessSpec{Path: "pal"})
	require.Error(t, err)
	assert.False(t, cmd.released)
}

// TestStartDetached_Real tests detaching a real short-lived process
func TestStartDetached_Real(t *testing.T) {
	skipOnWindows(t)
	marker := filepath.Join(t.TempDir(), "marker")
	script := writeScript(t, "touch \""+marker+"\"\n")

	require.NoError(t, NewProcessExecutor().StartDetached(&ProcessSpec{Path: script}))

	assert.Eventually(t, func() bool {
		return Exists(marker)
	}, 5*time.Second, 20*time.Millisecond)
}
