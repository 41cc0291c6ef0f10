// Package testing provides fixtures shared by pal's package tests: plugin
// directories, shell scripts standing in for external programs, and
// capture of the process's standard streams.
package testing

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dorcha-inc/pal/internal/core"
)

// CapturedOutput redirects os.Stdout and os.Stderr into pipes until Stop.
// Both pipes are drained while capturing, so large outputs do not block
// the writer.
type CapturedOutput struct {
	OriginalStdout *os.File
	OriginalStderr *os.File

	stdoutW *os.File
	stderrW *os.File
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	wg      sync.WaitGroup
	errs    [2]error
}

// NewCapturedOutput starts capturing both streams.
func NewCapturedOutput() (*CapturedOutput, error) {
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		core.LogDeferredError(stdoutR.Close)
		core.LogDeferredError(stdoutW.Close)
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	c := &CapturedOutput{
		OriginalStdout: os.Stdout,
		OriginalStderr: os.Stderr,
		stdoutW:        stdoutW,
		stderrW:        stderrW,
	}
	c.wg.Add(2)
	go c.drain(stdoutR, &c.stdout, 0)
	go c.drain(stderrR, &c.stderr, 1)

	os.Stdout = stdoutW
	os.Stderr = stderrW
	return c, nil
}

func (c *CapturedOutput) drain(r *os.File, buf *bytes.Buffer, slot int) {
	defer c.wg.Done()
	defer core.LogDeferredError(r.Close)
	_, c.errs[slot] = io.Copy(buf, r)
}

// Stop restores the original streams and returns what was written.
func (c *CapturedOutput) Stop() (string, string, error) {
	os.Stdout = c.OriginalStdout
	os.Stderr = c.OriginalStderr

	core.LogDeferredError(c.stdoutW.Close)
	core.LogDeferredError(c.stderrW.Close)
	c.wg.Wait()

	if c.errs[0] != nil {
		return "", "", fmt.Errorf("failed to read captured stdout: %w", c.errs[0])
	}
	if c.errs[1] != nil {
		return "", "", fmt.Errorf("failed to read captured stderr: %w", c.errs[1])
	}
	return c.stdout.String(), c.stderr.String(), nil
}
