package plugin

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/dorcha-inc/pal/internal/core"
)

// ShebangError is returned when a plugin command is not executable and
// its first line does not name an interpreter.
type ShebangError struct {
	Path string `json:"path"`
	Line string `json:"line"`
}

// Error returns the error message for the ShebangError
func (e *ShebangError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("%s is not executable and has no shebang line", e.Path)
	}
	return fmt.Sprintf("%s is not executable and %q is not a shebang line", e.Path, e.Line)
}

// NewShebangError creates a new ShebangError
func NewShebangError(path, line string) *ShebangError {
	return &ShebangError{Path: path, Line: line}
}

// Interface guard for ShebangError
var _ error = &ShebangError{}

// ParseShebang reads the interpreter line of the script at path and returns
// the interpreter followed by its arguments, e.g. ["/usr/bin/env", "python3"].
func ParseShebang(path string) ([]string, error) {
	// #nosec G304 -- path is a plugin command inside its plugin directory
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer core.LogDeferredError(file.Close)

	scanner := bufio.NewScanner(file)
	scanner.Scan()
	line := strings.TrimSpace(scanner.Text())

	rest, ok := strings.CutPrefix(line, "#!")
	if !ok {
		return nil, NewShebangError(path, line)
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil, NewShebangError(path, line)
	}
	return fields, nil
}

// scriptArgv returns how to spawn script: directly when it is executable
// or missing, else through the interpreter named on its shebang line. A
// missing file is left for the spawn to report.
func scriptArgv(script string) (string, []string, error) {
	info, err := os.Stat(script)
	if err != nil || info.IsDir() || core.IsExecutable(info) {
		return script, nil, nil
	}
	interpreter, err := ParseShebang(script)
	if err != nil {
		return "", nil, err
	}
	return interpreter[0], append(interpreter[1:], script), nil
}
