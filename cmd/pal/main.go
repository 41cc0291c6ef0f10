package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dorcha-inc/pal/internal/builtin"
	"github.com/dorcha-inc/pal/internal/cache"
	"github.com/dorcha-inc/pal/internal/config"
	"github.com/dorcha-inc/pal/internal/core"
	"github.com/dorcha-inc/pal/internal/invocation"
	"github.com/dorcha-inc/pal/internal/launcher"
	"github.com/dorcha-inc/pal/internal/remote"
	"github.com/dorcha-inc/pal/internal/tui"
)

var (
	version = "dev"
	// build time date
	buildDate = "unknown"
)

const (
	flagConfig    = "config"
	flagLogLevel  = "log-level"
	flagPrettyLog = "pretty-log"

	keyLogLevel = config.SectionGeneral + ".log_level"
)

// app holds the flags and the state built from them before a command runs.
// Fields left empty are filled from the standard locations in setup.
type app struct {
	configPath string
	logLevel   string
	prettyLog  bool

	environ    []string
	newLoader  func() *config.Loader
	git        remote.GitRunner
	dataDir    string
	cacheDir   string
	actionsDir string
	self       string
	terminal   *builtin.Terminal
	detacher   launcher.Detacher

	cfg      *config.Config
	inv      invocation.Context
	fetcher  *remote.Fetcher
	cache    *cache.Manager
	launcher *launcher.Launcher
}

func newApp() *app {
	return &app{
		environ:   os.Environ(),
		newLoader: config.NewLoader,
		git:       remote.NewExecGitRunner(),
	}
}

// setup loads the configuration and builds the launcher. A --config path
// wins over the config exported by a parent pal.
func (a *app) setup(cmd *cobra.Command) error {
	a.inv = invocation.FromEnviron(a.environ)
	path := a.configPath
	if path == "" {
		path = a.inv.ConfigPath()
	}

	overrides := map[string]any{}
	if cmd.Flags().Changed(flagLogLevel) {
		overrides[keyLogLevel] = a.logLevel
	}
	cfg, err := a.newLoader().Load(path, overrides)
	if err != nil {
		return err
	}
	if err := a.initLogging(cfg.General.LogLevel); err != nil {
		return err
	}
	a.cfg = cfg
	a.inv = a.inv.WithConfig(cfg.Path, cfg.Dir)

	if err := a.resolveDirs(); err != nil {
		return err
	}
	a.fetcher = remote.NewFetcher(filepath.Join(a.dataDir, "plugins"), a.git)
	a.cache = cache.NewManager(a.cacheDir, clockwork.NewRealClock())
	if a.self == "" {
		if self, err := os.Executable(); err == nil {
			a.self = self
		} else {
			zap.L().Warn("Cannot locate the pal executable, cache regeneration disabled", zap.Error(err))
		}
	}
	a.launcher = launcher.New(launcher.Options{
		Config:     cfg,
		Fetcher:    a.fetcher,
		Cache:      a.cache,
		Detacher:   a.detacher,
		Self:       a.self,
		ActionsDir: a.actionsDir,
		Terminal:   a.terminal,
	})
	return nil
}

// initLogging starts the logger. The development encoder is used with
// --pretty-log or when stderr is a terminal.
func (a *app) initLogging(level string) error {
	return core.Init(level, a.prettyLog || tui.IsTerminal(os.Stderr))
}

func (a *app) resolveDirs() error {
	var err error
	if a.dataDir == "" {
		if a.dataDir, err = config.UserDataDir(); err != nil {
			return err
		}
	}
	if a.cacheDir == "" {
		if a.cacheDir, err = config.UserCacheDir(); err != nil {
			return err
		}
	}
	if a.actionsDir == "" {
		dir, err := config.UserConfigDir()
		if err != nil {
			return err
		}
		a.actionsDir = filepath.Join(dir, "plugins", "actions")
	}
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pal [frontend] [palette]",
		Short: "Pluggable command launcher",
		Long: `pal lists items from a palette, lets you pick one through a frontend such as
fzf or rofi, and hands the pick back to the palette or to an action.

Palettes, frontends and actions are plugins: built in, local directories, or
directories of GitHub repositories fetched on first use.`,
		Version:       fmt.Sprintf("%s (built: %s)", version, buildDate),
		Args:          cobra.MaximumNArgs(2),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, flagConfig, "", "Path to a pal config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, flagLogLevel, "", "Log level ("+core.JoinMapKeys(config.ValidLogLevels())+")")
	rootCmd.PersistentFlags().BoolVar(&a.prettyLog, flagPrettyLog, false, "Use pretty-printed logs instead of JSON")

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newListCmd(a))
	rootCmd.AddCommand(newActionCmd(a))
	rootCmd.AddCommand(newPromptCmd(a))
	rootCmd.AddCommand(newPluginsCmd(a))
	rootCmd.AddCommand(newUpdateCmd(a))
	rootCmd.AddCommand(newInitCmd(a))
	rootCmd.AddCommand(newShowConfigCmd(a))
	rootCmd.AddCommand(newCacheCmd(a))
	rootCmd.AddCommand(newCacheRegenCmd(a))
	rootCmd.AddCommand(newInputListCmd(a))
	rootCmd.AddCommand(newRofiInputCmd(a))

	return rootCmd
}

// execute runs the command line and returns the exit code. A cancelled
// selection exits 1 without a message.
func execute(ctx context.Context, a *app, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, launcher.ErrCancelled) {
			return 1
		}
		core.MustFprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, newApp(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
