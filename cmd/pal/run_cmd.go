package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dorcha-inc/pal/internal/item"
	"github.com/dorcha-inc/pal/internal/prompt"
)

// newRunCmd creates the run command, which is also what pal does without a
// subcommand
func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run [frontend] [palette]",
		Short: "Select an item from a palette and pick it",
		Long: `List a palette, show its items through a frontend and pick the selected
item. Without arguments the default palette and frontend are used. A single
argument names a frontend when one with that id is configured, otherwise a
palette.

Examples:
  pal run
  pal run bookmarks
  pal run rofi bookmarks`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args)
		},
	}
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	frontend, palette := a.splitRunArgs(args)
	out, err := a.launcher.Run(cmd.Context(), a.inv, frontend, palette)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

// splitRunArgs maps `[frontend] [palette]` onto ids.
func (a *app) splitRunArgs(args []string) (frontend, palette string) {
	switch len(args) {
	case 0:
		return "", ""
	case 1:
		if _, ok := a.cfg.FrontendSpec(args[0]); ok {
			return args[0], ""
		}
		return "", args[0]
	default:
		return args[0], args[1]
	}
}

// newListCmd creates the list command
func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [palette]",
		Short: "Print the items of a palette",
		Long: `Print the items of a palette as newline-delimited JSON, one item per line.
Without an argument the default palette is listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var palette string
			if len(args) == 1 {
				palette = args[0]
			}
			items, err := a.launcher.List(cmd.Context(), a.inv, palette, nil)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), item.EncodeStream(items))
			return err
		},
	}
}

// newActionCmd creates the action command
func newActionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "action NAME",
		Short: "Run an action on a value read from standard input",
		Long: `Run an action with the value read from standard input. A directory of that
name under the user plugins/actions directory is used when present, otherwise
the action is fetched from the default action repository.

Examples:
  echo https://go.dev | pal action open`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readInput(cmd)
			if err != nil {
				return err
			}
			out, err := a.launcher.Action(cmd.Context(), a.inv, args[0], value)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
}

// newPromptCmd creates the prompt command
func newPromptCmd(a *app) *cobra.Command {
	var frontend string

	cmd := &cobra.Command{
		Use:   "prompt [SPEC]",
		Short: "Ask a chain of prompts",
		Long: `Ask the prompts described by SPEC, a JSON prompt object or array of them,
through a frontend. SPEC is read from standard input when omitted. A single
answer is printed as is; several are printed as a JSON object keyed by prompt
in declaration order.

Examples:
  pal prompt '{"key":"name","message":"Name"}'
  pal prompt '[{"key":"env","type":"choice","options":["dev","prod"]},{"key":"tag"}]'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 1 {
				raw = args[0]
			} else {
				var err error
				if raw, err = readInput(cmd); err != nil {
					return err
				}
			}
			specs, err := prompt.ParseSpecs(raw)
			if err != nil {
				return err
			}

			answers, err := a.launcher.RunPrompts(cmd.Context(), a.inv, frontend, specs)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), prompt.FormatAnswers(specs, answers))
			return err
		},
	}

	cmd.Flags().StringVar(&frontend, "frontend", "", "Frontend to ask through (default: the configured default)")

	return cmd
}

// readInput reads standard input with one trailing newline removed.
func readInput(cmd *cobra.Command) (string, error) {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read standard input: %w", err)
	}
	value := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(value, "\r"), nil
}
