// Package core implements the functionality shared across all pal components.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// CommandRunner is an interface for running commands, allowing for testing with mocks
type CommandRunner interface {
	CommandContext(ctx context.Context, name string, arg ...string) Command
}

// Command is an interface for exec.Cmd, allowing for testing with mocks
type Command interface {
	StdoutPipe() (io.ReadCloser, error)
	SetStdin(io.Reader)
	SetStderr(io.Writer)
	SetEnv([]string)
	SetDir(string)
	Start() error
	Wait() error
	Release() error
}

// execCommand wraps exec.Cmd to implement Command interface
type execCommand struct {
	*exec.Cmd
}

func (e *execCommand) SetStdin(r io.Reader) {
	e.Stdin = r
}

func (e *execCommand) SetStderr(w io.Writer) {
	e.Stderr = w
}

func (e *execCommand) SetEnv(env []string) {
	e.Env = env
}

func (e *execCommand) SetDir(dir string) {
	e.Dir = dir
}

// Explicitly forward methods from *exec.Cmd to satisfy the Command interface
// (even though they're already available through embedding, this makes it explicit for the linter)
func (e *execCommand) Start() error {
	return e.Cmd.Start()
}

func (e *execCommand) Wait() error {
	return e.Cmd.Wait()
}

func (e *execCommand) StdoutPipe() (io.ReadCloser, error) {
	return e.Cmd.StdoutPipe()
}

// Release detaches a started process; the parent will not wait for it.
func (e *execCommand) Release() error {
	if e.Process == nil {
		return fmt.Errorf("process not started")
	}
	return e.Process.Release()
}

// Interface guard for execCommand
var _ Command = &execCommand{}

// execCommandRunner wraps exec.CommandContext to implement CommandRunner
type execCommandRunner struct{}

func (e *execCommandRunner) CommandContext(ctx context.Context, name string, arg ...string) Command {
	return &execCommand{Cmd: exec.CommandContext(ctx, name, arg...)}
}

// Interface guard for execCommandRunner
var _ CommandRunner = &execCommandRunner{}

// NewExecCommandRunner returns the CommandRunner backed by os/exec.
func NewExecCommandRunner() CommandRunner {
	return &execCommandRunner{}
}

// ProcessSpec describes one child process invocation.
type ProcessSpec struct {
	Path  string
	Args  []string
	Stdin *string  // nil leaves the child's stdin unconnected
	Env   []string // nil inherits the parent environment
	Dir   string
}

// ProcessResult represents the result of a process execution
type ProcessResult struct {
	Stdout   string        `json:"stdout"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// ProcessExecutor runs plugin and frontend processes to completion. There is
// no timeout: a spawned process always runs until it exits.
type ProcessExecutor struct {
	clock         clockwork.Clock
	commandRunner CommandRunner
	stderr        io.Writer
}

// NewProcessExecutor creates a new executor with a real clock that passes
// child stderr through to ours.
func NewProcessExecutor() *ProcessExecutor {
	return NewProcessExecutorWithRunner(clockwork.NewRealClock(), &execCommandRunner{}, os.Stderr)
}

// NewProcessExecutorWithRunner creates a new executor with a custom clock, command runner and stderr sink.
// This is useful for testing with a fake clock and mocked command execution
func NewProcessExecutorWithRunner(clock clockwork.Clock, runner CommandRunner, stderr io.Writer) *ProcessExecutor {
	return &ProcessExecutor{
		clock:         clock,
		commandRunner: runner,
		stderr:        stderr,
	}
}

// Execute runs the process described by spec and captures its stdout. A
// non-zero exit is reported through ProcessResult.ExitCode, not as an error;
// errors are reserved for failures to start or wait on the process.
func (e *ProcessExecutor) Execute(ctx context.Context, spec *ProcessSpec) (*ProcessResult, error) {
	start := e.clock.Now()

	cmd := e.commandRunner.CommandContext(ctx, spec.Path, spec.Args...)
	if spec.Stdin != nil {
		cmd.SetStdin(strings.NewReader(*spec.Stdin))
	}
	if spec.Env != nil {
		cmd.SetEnv(spec.Env)
	}
	if spec.Dir != "" {
		cmd.SetDir(spec.Dir)
	}
	cmd.SetStderr(e.stderr)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	err = cmd.Start()
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", spec.Path, err)
	}

	var stdoutBuf strings.Builder
	done := make(chan error, 1)

	go func() {
		_, copyErr := io.Copy(&stdoutBuf, stdout)
		done <- copyErr
	}()

	// Wait for output reading to complete before Wait closes the pipe
	copyErr := <-done

	err = cmd.Wait()

	result := &ProcessResult{
		Stdout:   stdoutBuf.String(),
		Duration: e.clock.Since(start),
	}

	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			result.ExitCode = exitError.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("failed to wait on %s: %w", spec.Path, err)
	}

	if copyErr != nil {
		return result, fmt.Errorf("failed to read output of %s: %w", spec.Path, copyErr)
	}

	return result, nil
}

// StartDetached starts a process with all stdio discarded and does not wait
// for it. The child outlives the caller's context.
func (e *ProcessExecutor) StartDetached(spec *ProcessSpec) error {
	// #nosec G204 -- spec comes from pal itself (its own executable path)
	cmd := e.commandRunner.CommandContext(context.Background(), spec.Path, spec.Args...)
	if spec.Env != nil {
		cmd.SetEnv(spec.Env)
	}
	if spec.Dir != "" {
		cmd.SetDir(spec.Dir)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", spec.Path, err)
	}
	return cmd.Release()
}
