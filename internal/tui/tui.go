// Package tui provides the terminal output of pal's management commands:
// spinners while plugin repositories update, check marks for results and
// rendered configuration. It detects terminal capabilities and falls back to
// plain text when output is piped.
//
// Standard output belongs to the palette being run, so everything here
// writes to standard error, except RenderMarkdown whose result the caller
// prints.
//
// Environment Variables:
//   - NO_COLOR or PAL_NO_COLOR: Disable colors (https://no-color.org/)
//   - TERM=dumb: Disable colors
//   - PAL_QUIET: Disable progress and informational output
//
// Example usage:
//
//	tui.Progress("Updating 3 repositories...")
//	tui.ProgressSuccess("Updated 3 repositories")
//	tui.Success("%s at %s", repo, commit)
package tui

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dorcha-inc/pal/internal/core"
)

const (
	envQuiet = core.EnvPrefix + "QUIET"

	symbolSuccess = "✓"
	symbolFailure = "✗"
)

var (
	colorGreen = lipgloss.ANSIColor(2)
	colorRed   = lipgloss.ANSIColor(1)
	colorBlue  = lipgloss.ANSIColor(4)
	colorGray  = lipgloss.ANSIColor(8)
)

// UI provides terminal output with automatic TTY detection
type UI struct {
	// stdoutIsTTY indicates if stdout is connected to a terminal
	stdoutIsTTY bool
	// stderrIsTTY indicates if stderr is connected to a terminal
	stderrIsTTY bool
	// enabled indicates if progress output should be shown (TTY + not quiet)
	enabled bool
	// colorEnabled indicates if colors should be used
	colorEnabled bool

	mu             sync.Mutex
	currentSpinner *spinnerState
	// markdownRenderer for rendering markdown content
	markdownRenderer *glamour.TermRenderer
}

type spinnerState struct {
	started time.Time
	ticker  clockwork.Ticker
	message string
	done    chan struct{}
	stopped chan struct{}
}

var (
	defaultUI    *UI
	spinnerClock clockwork.Clock = clockwork.NewRealClock()
	spinnerKind                  = spinner.MiniDot

	// stderrRenderer detects color support on stderr, so styles work even
	// when stdout is piped
	stderrRenderer = lipgloss.NewRenderer(os.Stderr)

	successStyle = lipgloss.NewStyle().Renderer(stderrRenderer).Foreground(colorGreen).Bold(true)
	failureStyle = lipgloss.NewStyle().Renderer(stderrRenderer).Foreground(colorRed).Bold(true)
	spinnerStyle = lipgloss.NewStyle().Renderer(stderrRenderer).Foreground(colorBlue)
	dimStyle     = lipgloss.NewStyle().Renderer(stderrRenderer).Foreground(colorGray)
)

func init() {
	defaultUI = New()
}

// New creates a new UI instance with automatic TTY detection
func New() *UI {
	stdoutIsTTY := IsTerminal(os.Stdout)
	stderrIsTTY := IsTerminal(os.Stderr)

	colorEnabled := stderrIsTTY && !isColorDisabled()

	ui := &UI{
		stdoutIsTTY:  stdoutIsTTY,
		stderrIsTTY:  stderrIsTTY,
		enabled:      stderrIsTTY && !isDisabled(),
		colorEnabled: colorEnabled,
	}

	if colorEnabled && stdoutIsTTY {
		width := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			ui.markdownRenderer = renderer
		}
	}

	return ui
}

// IsTerminal checks if a file descriptor is connected to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// isDisabled checks if output is disabled via PAL_QUIET
func isDisabled() bool {
	if val := os.Getenv(envQuiet); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
		return true
	}
	return false
}

// isColorDisabled checks if colors are explicitly disabled
func isColorDisabled() bool {
	if core.GetEnv("NO_COLOR") != "" {
		return true
	}
	return os.Getenv("TERM") == "dumb"
}

// Enabled returns whether progress output should be shown
func (u *UI) Enabled() bool {
	return u.enabled
}

// ColorEnabled returns whether colors should be used
func (u *UI) ColorEnabled() bool {
	return u.colorEnabled
}

// StdoutIsTTY returns whether stdout is a terminal
func (u *UI) StdoutIsTTY() bool {
	return u.stdoutIsTTY
}

// StderrIsTTY returns whether stderr is a terminal
func (u *UI) StderrIsTTY() bool {
	return u.stderrIsTTY
}

func (u *UI) render(style lipgloss.Style, s string) string {
	if !u.colorEnabled {
		return s
	}
	return style.Render(s)
}

func (u *UI) printFrame(s *spinnerState) {
	frame := int(spinnerClock.Since(s.started)/spinnerKind.FPS) % len(spinnerKind.Frames)
	char := spinnerKind.Frames[frame]
	if !u.colorEnabled {
		char = "..."
	}
	fmt.Fprintf(os.Stderr, "\r%s %s", u.render(spinnerStyle, char), s.message)
}

// Progress shows message behind an animated spinner until ProgressSuccess
// or ProgressFailure. A new message replaces the running spinner.
func (u *UI) Progress(message string) {
	if !u.enabled {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.currentSpinner != nil {
		if u.currentSpinner.message == message {
			return
		}
		u.stopSpinner()
	}

	s := &spinnerState{
		started: spinnerClock.Now(),
		message: message,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		ticker:  spinnerClock.NewTicker(spinnerKind.FPS),
	}
	u.currentSpinner = s
	u.printFrame(s)

	go func() {
		defer close(s.stopped)
		for {
			select {
			case <-s.ticker.Chan():
				u.mu.Lock()
				if u.currentSpinner == s {
					u.printFrame(s)
				}
				u.mu.Unlock()
			case <-s.done:
				return
			}
		}
	}()
}

// stopSpinner ends the animation and clears its line. u.mu is held.
func (u *UI) stopSpinner() *spinnerState {
	s := u.currentSpinner
	if s == nil {
		return nil
	}
	s.ticker.Stop()
	close(s.done)
	u.currentSpinner = nil
	fmt.Fprint(os.Stderr, "\r", ansi.EraseLine(2))
	return s
}

func (u *UI) finishProgress(style lipgloss.Style, symbol, message string) {
	if !u.enabled {
		return
	}

	u.mu.Lock()
	s := u.stopSpinner()
	u.mu.Unlock()

	if s == nil {
		zap.L().Error("Progress finished without a spinner")
		return
	}
	<-s.stopped

	if message == "" {
		message = s.message
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", u.render(style, symbol), message)
}

// ProgressSuccess stops the spinner and shows message behind a check mark.
// An empty message repeats the progress message.
func (u *UI) ProgressSuccess(message string) {
	u.finishProgress(successStyle, symbolSuccess, message)
}

// ProgressFailure stops the spinner and shows message behind a cross.
func (u *UI) ProgressFailure(message string) {
	u.finishProgress(failureStyle, symbolFailure, message)
}

// Success prints a result line behind a check mark. Unlike progress it is
// printed whether or not stderr is a terminal.
func (u *UI) Success(format string, args ...any) {
	if isDisabled() {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", u.render(successStyle, symbolSuccess), fmt.Sprintf(format, args...))
}

// Failure prints a result line behind a cross. It is never suppressed.
func (u *UI) Failure(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", u.render(failureStyle, symbolFailure), fmt.Sprintf(format, args...))
}

// Info prints an informational message to stderr
// Writes to stderr even when not a TTY (e.g., when piping output)
// Respects PAL_QUIET environment variable
func (u *UI) Info(format string, args ...any) {
	if isDisabled() {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

// Dim renders s in a muted color when colors are enabled.
func (u *UI) Dim(s string) string {
	return u.render(dimStyle, s)
}

// RenderMarkdown renders markdown content using glamour
// Returns plain text if stdout is not a TTY or if rendering fails
func (u *UI) RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		return "", fmt.Errorf("width must be greater than 0")
	}

	if !u.stdoutIsTTY || !u.colorEnabled {
		return content, nil
	}

	renderer := u.markdownRenderer
	if renderer == nil {
		var err error
		renderer, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content, err
		}
	}

	return renderer.Render(content)
}

// RenderCode renders code as a highlighted block of lang on a terminal and
// returns it unchanged otherwise.
func (u *UI) RenderCode(lang, code string) string {
	if !u.stdoutIsTTY || !u.colorEnabled {
		return code
	}
	rendered, err := u.RenderMarkdown("```"+lang+"\n"+code+"\n```\n", 80)
	if err != nil {
		zap.L().Debug("Falling back to plain output", zap.Error(err))
		return code
	}
	return rendered
}

// Default returns the default UI instance
func Default() *UI {
	return defaultUI
}

// Reset resets the default UI instance (useful for testing)
func Reset() {
	defaultUI = New()
}

// Info prints an informational message using the default UI
func Info(format string, args ...any) {
	defaultUI.Info(format, args...)
}

// Progress prints a progress message using the default UI
func Progress(message string) {
	defaultUI.Progress(message)
}

// ProgressSuccess stops spinner and shows success using the default UI
func ProgressSuccess(message string) {
	defaultUI.ProgressSuccess(message)
}

// ProgressFailure stops spinner and shows failure using the default UI
func ProgressFailure(message string) {
	defaultUI.ProgressFailure(message)
}

// Success prints a result line using the default UI
func Success(format string, args ...any) {
	defaultUI.Success(format, args...)
}

// Failure prints a failed result line using the default UI
func Failure(format string, args ...any) {
	defaultUI.Failure(format, args...)
}

// Dim renders s muted using the default UI
func Dim(s string) string {
	return defaultUI.Dim(s)
}

// RenderMarkdown renders markdown content using the default UI
func RenderMarkdown(content string, width int) (string, error) {
	return defaultUI.RenderMarkdown(content, width)
}

// RenderCode renders a code block using the default UI
func RenderCode(lang, code string) string {
	return defaultUI.RenderCode(lang, code)
}
