// Package commands implements the isekaicomp subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/seera-networks/ISEKAI-comp/internal/cli/config"
	"github.com/seera-networks/ISEKAI-comp/internal/provider"
)

// configKey is used to store config in context.
type configKey struct{}

// loggerKey is used to store logger in context.
type loggerKey struct{}

// WithConfig stores the loaded config in the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithLogger stores the logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// getConfig retrieves the config stored by the root command.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

// getLogger retrieves the logger stored by the root command.
func getLogger(cmd *cobra.Command) *slog.Logger {
	if logger, ok := cmd.Context().Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.New(slog.DiscardHandler)
}

// openProvider constructs the column provider described by the config.
func openProvider(cmd *cobra.Command) (provider.Provider, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.SourcePath == "" {
		return nil, fmt.Errorf("no data source configured: set --source-path or source_path in the config file")
	}
	return provider.New(provider.Config{
		Type:  cfg.SourceType,
		Path:  cfg.SourcePath,
		Table: cfg.SourceTable,
	}, getLogger(cmd))
}
