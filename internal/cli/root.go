// Package cli provides the command-line interface for isekaicomp.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/seera-networks/ISEKAI-comp/internal/cli/commands"
	"github.com/seera-networks/ISEKAI-comp/internal/cli/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "isekaicomp",
		Short: "isekaicomp - Column Computation Engine",
		Long: `isekaicomp evaluates serialized computation graphs over tabular data.

Graphs are JSON documents describing column transformations, aggregations,
and statistical models. Columns are read from a CSV file or SQLite table,
requested outputs are evaluated lazily with shared nodes computed once.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := slog.New(slog.DiscardHandler)
			if cfg.Verbose {
				logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
					Level: slog.LevelDebug,
				}))
			}

			ctx := commands.WithConfig(cmd.Context(), cfg)
			ctx = commands.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: isekaicomp.yaml)")
	rootCmd.PersistentFlags().String("source-type", config.DefaultSourceType, "data source type: csv, sqlite")
	rootCmd.PersistentFlags().String("source-path", "", "path to the CSV file or SQLite database")
	rootCmd.PersistentFlags().String("source-table", "", "table name (sqlite sources)")
	rootCmd.PersistentFlags().StringP("output", "o", config.DefaultOutput, "output format: table, json")
	rootCmd.PersistentFlags().Int("parallelism", config.DefaultParallelism, "maximum concurrent node evaluations")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")

	_ = rootCmd.RegisterFlagCompletionFunc("source-type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"csv", "sqlite"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewColumnsCommand())
	rootCmd.AddCommand(commands.NewGraphCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version))

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
