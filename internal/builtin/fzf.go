package builtin

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dorcha-inc/pal/internal/core"
	"github.com/dorcha-inc/pal/internal/item"
)

// fzf exit code when the user aborts with esc or ctrl-c.
const fzfExitInterrupted = 130

var fzfListArgs = []string{"--ansi", "--no-sort", "--layout=reverse", "--delimiter=\t", "--with-nth=2"}

type fzf struct {
	executor *core.ProcessExecutor
	self     string
}

func newFzf(executor *core.ProcessExecutor, self string) *Handler {
	f := &fzf{executor: executor, self: self}
	return &Handler{
		Manifest: map[string]any{ConfigBin: "fzf"},
		Ops: map[string]OpFunc{
			OpRun:      f.run,
			OpPrompt:   f.prompt,
			OpInputRun: f.inputRun,
		},
		Display: f,
		Input:   InputReload,
	}
}

// FormatFzfLine renders an item as `<json>\t<display>\t<keywords>`. Only the
// display column is shown; the JSON column is what a selection returns.
func FormatFzfLine(it item.Item) (string, error) {
	encoded, err := it.Encode()
	if err != nil {
		return "", err
	}
	display := label(it)
	if g := glyph(it); g != "" {
		display = g + " " + display
	}
	if desc := it.String(item.FieldDesc); desc != "" {
		display += " \x1b[2m" + desc + "\x1b[0m"
	}
	display = strings.NewReplacer("\t", " ", "\n", " ").Replace(display)
	keywords := strings.Join(it.Strings(item.FieldKeywords), " ")
	return encoded + "\t" + display + "\t" + keywords, nil
}

func (f *fzf) FormatDisplay(items []item.Item) string {
	var b strings.Builder
	for _, it := range items {
		line, err := FormatFzfLine(it)
		if err != nil {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func (f *fzf) SelectDisplay(ctx context.Context, req *Request, display string, _ []item.Item) (string, error) {
	result, err := f.executor.Execute(ctx, &core.ProcessSpec{
		Path:  bin(req.Config(), "fzf"),
		Args:  fzfListArgs,
		Stdin: &display,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run fzf: %w", err)
	}
	if result.ExitCode != 0 {
		return "", nil
	}
	return selectedJSON(result.Stdout), nil
}

// selectedJSON extracts the JSON column of the line fzf printed.
func selectedJSON(stdout string) string {
	field, _, _ := strings.Cut(firstLine(stdout), "\t")
	return field
}

func (f *fzf) run(ctx context.Context, req *Request) (string, error) {
	items := item.ParseStream(req.InputText())
	return f.SelectDisplay(ctx, req, f.FormatDisplay(items), items)
}

func (f *fzf) prompt(ctx context.Context, req *Request) (string, error) {
	result, err := f.executor.Execute(ctx, &core.ProcessSpec{
		Path: bin(req.Config(), "fzf"),
		Args: []string{"--disabled", "--print-query", "--prompt=" + req.InputText() + "> "},
	})
	if err != nil {
		return "", fmt.Errorf("failed to run fzf: %w", err)
	}
	if result.ExitCode == fzfExitInterrupted {
		return "", nil
	}
	return firstLine(result.Stdout), nil
}

// inputRun opens fzf with no items and re-lists the active palette through
// `pal _input-list` on every change of the query.
func (f *fzf) inputRun(ctx context.Context, req *Request) (string, error) {
	frontend := core.FirstNonEmpty(req.Inv.Frontend(), "fzf")
	reload := fmt.Sprintf("change:reload:printf '%%s' {q} | %s _input-list %s %s || true",
		selfCommand(f.self, req.Inv.ConfigPath()), shellQuote(req.Inv.Palette()), shellQuote(frontend))

	args := append(append([]string{}, fzfListArgs...), "--disabled", "--prompt="+req.InputText()+"> ", "--bind", reload)
	empty := ""
	result, err := f.executor.Execute(ctx, &core.ProcessSpec{
		Path:  bin(req.Config(), "fzf"),
		Args:  args,
		Stdin: &empty,
		Env:   callbackEnv(req),
	})
	if err != nil {
		return "", fmt.Errorf("failed to run fzf: %w", err)
	}
	if result.ExitCode != 0 {
		return "", nil
	}
	return selectedJSON(result.Stdout), nil
}

// callbackEnv is the environment of a frontend that runs pal again, so the
// nested invocation sees the active frontend.
func callbackEnv(req *Request) []string {
	return append(os.Environ(), req.Inv.Environ("")...)
}

// selfCommand is the shell command that re-enters pal with the active
// config.
func selfCommand(self, configPath string) string {
	cmd := shellQuote(core.FirstNonEmpty(self, "pal"))
	if configPath != "" {
		cmd += " --config " + shellQuote(configPath)
	}
	return cmd
}
