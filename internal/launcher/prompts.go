package launcher

import (
	"context"
	"errors"
	"strings"

	"github.com/dorcha-inc/pal/internal/builtin"
	"github.com/dorcha-inc/pal/internal/invocation"
	"github.com/dorcha-inc/pal/internal/item"
	"github.com/dorcha-inc/pal/internal/prompt"
)

// frontendAsker asks prompts through a frontend: text prompts use its
// prompt operation and choices its run operation.
type frontendAsker struct {
	l        *Launcher
	inv      invocation.Context
	frontend string
}

func (l *Launcher) asker(inv invocation.Context, frontend string) *frontendAsker {
	return &frontendAsker{l: l, inv: inv, frontend: frontend}
}

func (a *frontendAsker) Text(ctx context.Context, message string) (string, error) {
	f, err := a.l.resolveFrontend(ctx, a.inv, a.frontend)
	if err != nil {
		return "", err
	}
	out, err := a.l.invoker.Invoke(ctx, a.inv.WithFrontend(f.id), f.handle, builtin.OpPrompt, &message)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\r\n"), nil
}

func (a *frontendAsker) Choose(ctx context.Context, _ string, options []item.Item) (string, error) {
	selected, err := a.l.Select(ctx, a.inv, a.frontend, options)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return "", nil
		}
		return "", err
	}
	return selected.String(item.FieldID), nil
}

// Interface guard
var _ prompt.Asker = &frontendAsker{}

// ResolvePrompts asks the prompts declared by it through frontend (or the
// invocation's frontend, or the default) and substitutes the answers.
func (l *Launcher) ResolvePrompts(ctx context.Context, inv invocation.Context, frontend string, it item.Item) (item.Item, error) {
	return prompt.Resolve(ctx, l.asker(inv, frontend), it)
}

// RunPrompts asks an ad hoc prompt chain and returns the answers.
func (l *Launcher) RunPrompts(ctx context.Context, inv invocation.Context, frontend string, specs []prompt.Spec) (map[string]string, error) {
	return prompt.Run(ctx, l.asker(inv, frontend), specs)
}
