// Package cli provides the command-line interface for entconsole.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/entconsole/internal/cli/commands"
	"github.com/leapstack-labs/entconsole/internal/cli/config"
	"github.com/leapstack-labs/entconsole/internal/render"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "entconsole [profile]",
		Short: "entconsole - interactive entity query console",
		Long: `entconsole runs entity queries, native SQL selects, updates and deletes
against a configured data store, and describes the entity types declared
in the profile's schema manifest.

The profile argument names an entry under "profiles" in entconsole.yaml.
Without it, default_profile is used, or the only profile configured.`,
		Version: Version,
		Args:    cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}

			// Flag groups are otherwise checked after this hook runs
			if err := cmd.ValidateFlagGroups(); err != nil {
				return err
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return startupError("failed to load configuration", err)
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			if cfg.File != "" {
				logger.Debug("using config file", "path", cfg.File)
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var profile string
			if len(args) == 1 {
				profile = args[0]
			}
			return runConsole(cmd, profile)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./entconsole.yaml)")
	flags.String("log-file", "", "Duplicate all console output to this file")
	flags.String("history-file", "", "Line history file for interactive sessions (default: ~/.entconsole_history)")
	flags.StringP("format", "f", "", "Result format (record|table|json|csv|md)")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.Bool("show-sql", false, "Print every SQL statement sent to the database")
	flags.Bool("profile-queries", false, "Print the elapsed time of every SQL statement")
	flags.Bool("monitor-queries", false, "Report per-statement execution counts on exit")
	rootCmd.MarkFlagsMutuallyExclusive("show-sql", "profile-queries", "monitor-queries")

	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return render.Styles(), cobra.ShellCompDirectiveNoFileComp
	})
	rootCmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		cfgPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(cfgPath, nil)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return cfg.ProfileNames(), cobra.ShellCompDirectiveNoFileComp
	}

	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit, BuildDate))
	rootCmd.AddCommand(commands.NewPasswordCommand(config.OpenKeyring))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return execute(NewRootCmd(), os.Stderr)
}

func execute(rootCmd *cobra.Command, stderr io.Writer) int {
	if f, ok := stderr.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		pterm.DisableColor()
	}

	cmd, err := rootCmd.ExecuteC()
	code := exitCode(err)
	if code == ExitOK {
		return code
	}

	reportError(stderr, err)
	if code == ExitUsage {
		_, _ = fmt.Fprint(stderr, cmd.UsageString())
	}
	return code
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	// Return default config if none in context
	return &config.Config{Format: config.DefaultFormat}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for entconsole.

To load completions:

Bash:
  $ source <(entconsole completion bash)

Zsh:
  $ entconsole completion zsh > "${fpath[1]}/_entconsole"

Fish:
  $ entconsole completion fish | source

PowerShell:
  PS> entconsole completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
