package plugin

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/dorcha-inc/pal/internal/core"
	"github.com/dorcha-inc/pal/internal/invocation"
)

// listOperation is the only operation that runs inside palette resolution.
// The palette chain is exported to it alone.
const listOperation = "list"

// Dispatcher runs builtin handles in process.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv invocation.Context, h *Handle, operation string, input *string) (string, error)
}

// Invoker calls operations on resolved handles.
type Invoker struct {
	executor *core.ProcessExecutor
	builtins Dispatcher
	environ  func() []string
}

// NewInvoker creates an invoker. Child processes inherit the parent
// environment plus the invocation context.
func NewInvoker(executor *core.ProcessExecutor, builtins Dispatcher) *Invoker {
	return &Invoker{executor: executor, builtins: builtins, environ: os.Environ}
}

// Invoke runs operation on h. input is written to the plugin's standard
// input; when nil the effective configuration is sent instead. The output
// is returned as text.
func (i *Invoker) Invoke(ctx context.Context, inv invocation.Context, h *Handle, operation string, input *string) (string, error) {
	if h.IsBuiltin() {
		zap.L().Debug("Dispatching builtin", zap.String("plugin", h.Builtin), zap.String("operation", operation))
		return i.builtins.Dispatch(ctx, inv, h, operation, input)
	}

	configJSON, err := h.ConfigJSON()
	if err != nil {
		return "", err
	}
	if input == nil {
		input = &configJSON
	}

	exported := inv
	if operation != listOperation {
		exported = inv.WithoutChain()
	}
	args := append(append([]string{}, h.Args...), operation)
	result, err := i.executor.Execute(ctx, &core.ProcessSpec{
		Path:  h.Executable,
		Args:  args,
		Stdin: input,
		Env:   append(i.environ(), exported.Environ(configJSON)...),
	})
	if err != nil {
		core.LogPluginInvocation(h.Location, operation, 0, err)
		return "", NewExecutionError(h.Executable, operation, -1, err)
	}
	if result.ExitCode != 0 {
		execErr := NewExecutionError(h.Executable, operation, result.ExitCode, nil)
		core.LogPluginInvocation(h.Location, operation, result.Duration.Seconds(), execErr)
		return "", execErr
	}

	core.LogPluginInvocation(h.Location, operation, result.Duration.Seconds(), nil)
	return result.Stdout, nil
}
