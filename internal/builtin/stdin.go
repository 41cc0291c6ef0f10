package builtin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dorcha-inc/pal/internal/item"
)

// Terminal is the line-oriented console the stdin frontend talks through.
// Standard output stays reserved for plugin output.
type Terminal struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a terminal over in and out. A nil in opens the
// controlling terminal on first use; a nil out writes to standard error.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{out: out}
	if in != nil {
		t.in = bufio.NewReader(in)
	}
	if t.out == nil {
		t.out = os.Stderr
	}
	return t
}

// openInput prefers standard input when it is a terminal, then /dev/tty,
// then standard input whatever it is.
func openInput() io.Reader {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return os.Stdin
	}
	tty, err := os.Open("/dev/tty")
	if err != nil {
		zap.L().Debug("No controlling terminal, reading from stdin", zap.Error(err))
		return os.Stdin
	}
	return tty
}

// Ask writes prompt and reads one line. End of input yields "".
func (t *Terminal) Ask(prompt string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.in == nil {
		t.in = bufio.NewReader(openInput())
	}
	if _, err := fmt.Fprint(t.out, prompt); err != nil {
		return "", err
	}
	line, err := t.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Println writes a line to the terminal.
func (t *Terminal) Println(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintln(t.out, line)
}

type stdinFrontend struct {
	term *Terminal
}

func newStdin(t *Terminal) *Handler {
	s := &stdinFrontend{term: t}
	return &Handler{
		Manifest: map[string]any{},
		Ops: map[string]OpFunc{
			OpRun:    s.run,
			OpPrompt: s.prompt,
		},
	}
}

// run shows a numbered menu and reads the chosen number. Anything that is
// not a valid number selects nothing.
func (s *stdinFrontend) run(_ context.Context, req *Request) (string, error) {
	items := item.ParseStream(req.InputText())
	if len(items) == 0 {
		return "", nil
	}
	for i, it := range items {
		line := fmt.Sprintf("%3d. %s", i+1, ansi.Strip(label(it)))
		if desc := it.String(item.FieldDesc); desc != "" {
			line += "  " + ansi.Strip(desc)
		}
		s.term.Println(line)
	}

	answer, err := s.term.Ask(fmt.Sprintf("Select [1-%d]: ", len(items)))
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || n < 1 || n > len(items) {
		return "", nil
	}
	return items[n-1].Encode()
}

func (s *stdinFrontend) prompt(_ context.Context, req *Request) (string, error) {
	return s.term.Ask(req.InputText() + "> ")
}
