package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dorcha-inc/pal/internal/builtin"
	"github.com/dorcha-inc/pal/internal/core"
)

// Commands that frontends run while they are open: fzf re-lists an input
// palette on every keystroke and rofi runs pal as a script mode.

// newInputListCmd creates the hidden _input-list command
func newInputListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:    "_input-list PALETTE FRONTEND",
		Short:  "List an input palette for the query on standard input",
		Hidden: true,
		Args:   cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readInput(cmd)
			if err != nil {
				return err
			}
			out, err := a.launcher.InputList(cmd.Context(), a.inv, args[0], args[1], query)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
}

// newRofiInputCmd creates the hidden _rofi-input command. rofi passes the
// entered text as an argument and the row state in ROFI_RETV and ROFI_INFO.
func newRofiInputCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:    "_rofi-input PALETTE [SELECTED]",
		Short:  "Run an input palette as a rofi script mode",
		Hidden: true,
		Args:   cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query string
			if len(args) == 2 {
				query = args[1]
			}
			retv, _ := core.LookupEnv(a.environ, builtin.RofiRetvEnv)
			info, _ := core.LookupEnv(a.environ, builtin.RofiInfoEnv)

			out, err := a.launcher.RofiInput(cmd.Context(), a.inv, args[0], retv, query, info)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
}
