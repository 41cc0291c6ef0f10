package builtin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dorcha-inc/pal/internal/core"
	"github.com/dorcha-inc/pal/internal/item"
)

// Rofi script mode environment.
const (
	RofiRetvEnv = "ROFI_RETV"
	RofiInfoEnv = "ROFI_INFO"
)

// ROFI_RETV values.
const (
	RofiRetvInitial  = "0"
	RofiRetvSelected = "1"
	RofiRetvCustom   = "2"
)

var pangoEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

type rofi struct {
	executor *core.ProcessExecutor
	self     string
}

func newRofi(executor *core.ProcessExecutor, self string) *Handler {
	r := &rofi{executor: executor, self: self}
	return &Handler{
		Manifest: map[string]any{ConfigBin: "rofi"},
		Ops: map[string]OpFunc{
			OpRun:      r.run,
			OpPrompt:   r.prompt,
			OpInputRun: r.inputRun,
		},
		Display: r,
		Input:   InputScript,
	}
}

// FormatRofiLine renders an item as a rofi dmenu row with Pango markup. With
// info set the item JSON is attached as row info for script mode.
func FormatRofiLine(it item.Item, info bool) string {
	display := pangoEscaper.Replace(label(it))
	if g := glyph(it); g != "" {
		display = pangoEscaper.Replace(g) + " " + display
	}
	if desc := it.String(item.FieldDesc); desc != "" {
		display += ` <span size="small" alpha="50%">` + pangoEscaper.Replace(desc) + `</span>`
	}
	display = strings.ReplaceAll(display, "\n", " ")

	var opts []string
	if name := iconName(it); name != "" {
		opts = append(opts, "icon\x1f"+name)
	}
	if kw := it.Strings(item.FieldKeywords); len(kw) > 0 {
		opts = append(opts, "meta\x1f"+strings.Join(kw, " "))
	}
	if info {
		if encoded, err := it.Encode(); err == nil {
			opts = append(opts, "info\x1f"+encoded)
		}
	}
	if len(opts) == 0 {
		return display
	}
	return display + "\x00" + strings.Join(opts, "\x1f")
}

func formatRofi(items []item.Item, info bool) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString(FormatRofiLine(it, info))
		b.WriteByte('\n')
	}
	return b.String()
}

// RofiScriptHeader is the mode options block a script prints before its
// rows. reset clears the filter after a custom entry re-listed the rows.
func RofiScriptHeader(message string, reset bool) string {
	header := "\x00prompt\x1f" + message + "> \n\x00markup-rows\x1ftrue\n"
	if reset {
		header += "\x00keep-filter\x1ffalse\n"
	}
	return header
}

// RofiScriptRows renders items for script mode.
func RofiScriptRows(items []item.Item) string {
	return formatRofi(items, true)
}

func (r *rofi) FormatDisplay(items []item.Item) string {
	return formatRofi(items, false)
}

func (r *rofi) SelectDisplay(ctx context.Context, req *Request, display string, items []item.Item) (string, error) {
	result, err := r.executor.Execute(ctx, &core.ProcessSpec{
		Path:  bin(req.Config(), "rofi"),
		Args:  []string{"-dmenu", "-i", "-p", "pal", "-show-icons", "-markup-rows", "-format", "i"},
		Stdin: &display,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run rofi: %w", err)
	}
	if result.ExitCode != 0 {
		return "", nil
	}
	idx, err := strconv.Atoi(strings.TrimSpace(result.Stdout))
	if err != nil || idx < 0 || idx >= len(items) {
		return "", nil
	}
	return items[idx].Encode()
}

func (r *rofi) run(ctx context.Context, req *Request) (string, error) {
	items := item.ParseStream(req.InputText())
	return r.SelectDisplay(ctx, req, r.FormatDisplay(items), items)
}

func (r *rofi) prompt(ctx context.Context, req *Request) (string, error) {
	empty := ""
	result, err := r.executor.Execute(ctx, &core.ProcessSpec{
		Path:  bin(req.Config(), "rofi"),
		Args:  []string{"-dmenu", "-p", req.InputText()},
		Stdin: &empty,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run rofi: %w", err)
	}
	if result.ExitCode != 0 {
		return "", nil
	}
	return strings.TrimSpace(result.Stdout), nil
}

// inputRun opens rofi in script mode with `pal _rofi-input` as the script.
// Listing and picking both happen in the script, so there is no output.
func (r *rofi) inputRun(ctx context.Context, req *Request) (string, error) {
	script := fmt.Sprintf("%s _rofi-input %s", selfCommand(r.self, req.Inv.ConfigPath()), shellQuote(req.Inv.Palette()))
	_, err := r.executor.Execute(ctx, &core.ProcessSpec{
		Path: bin(req.Config(), "rofi"),
		Args: []string{"-show", "pal", "-modi", "pal:" + script, "-show-icons"},
		Env:  callbackEnv(req),
	})
	if err != nil {
		return "", fmt.Errorf("failed to run rofi: %w", err)
	}
	return "", nil
}
