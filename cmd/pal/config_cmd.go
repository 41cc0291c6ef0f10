package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dorcha-inc/pal/internal/config"
	"github.com/dorcha-inc/pal/internal/core"
	"github.com/dorcha-inc/pal/internal/tui"
)

// newInitCmd creates the init command
func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example config file",
		Long: `Write an annotated example configuration to the user config file, or to the
--config path when one is given. An existing file is kept unless --force is set.`,
		Args: cobra.NoArgs,
		// init must work when the current config does not load
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initLogging(a.logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := core.ExpandHome(a.configPath)
			if path == "" {
				var err error
				if path, err = config.UserConfigFile(); err != nil {
					return err
				}
			}
			if err := config.WriteExample(path, force); err != nil {
				return err
			}
			tui.Success("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")

	return cmd
}

// newShowConfigCmd creates the show-config command
func newShowConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show-config",
		Short: "Print the merged configuration",
		Long: `Print the configuration pal runs with, after merging every config file, PAL_
environment variables and flags, as YAML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			if a.cfg.Path != "" {
				tui.Info("# %s\n", a.cfg.Path)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), tui.RenderCode("yaml", string(out)))
			return err
		},
	}
}
