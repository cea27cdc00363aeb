// Package cli provides the command-line interface for rowshape.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rowshape/internal/cli/commands"
	"github.com/leapstack-labs/rowshape/internal/cli/config"
	"github.com/leapstack-labs/rowshape/pkg/adapter"

	// Register the built-in database adapters.
	_ "github.com/leapstack-labs/rowshape/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/rowshape/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/rowshape/pkg/adapters/sqlite"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

// Version information (set at build time).
var Version = "0.1.0"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rowshape",
		Short: "rowshape - decode query rows into shaped values",
		Long: `rowshape runs SQL queries and decodes the result rows through a generic
shape-negotiating engine: scalars, optionals, arrays, JSON documents and
named-field records all come back as plain Go values.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			if cfg.Verbose {
				if used := config.GetConfigFileUsed(); used != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", used)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./rowshape.yaml)")
	pf.StringP("adapter", "a", "", "Database adapter (duckdb|postgres|sqlite)")
	pf.String("path", "", "Database file path for file-based adapters (\":memory:\" for in-memory)")
	pf.String("host", "", "Database host")
	pf.Int("port", 0, "Database port")
	pf.String("database", "", "Database name")
	pf.String("username", "", "Database username")
	pf.String("password", "", "Database password")
	pf.StringP("output", "o", "", "Output format (table|json)")
	pf.BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("adapter", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return adapter.List(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewQueryCommand(
		func() *config.Config { return cfg },
		func() *slog.Logger { return logger },
	))
	rootCmd.AddCommand(commands.NewVersionCommand(Version))

	return rootCmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
