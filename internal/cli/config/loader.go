// Package config loads CLI configuration from files, environment
// variables, and flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all CLI configuration options.
type Config struct {
	SourceType   string `koanf:"source_type"`
	SourcePath   string `koanf:"source_path"`
	SourceTable  string `koanf:"source_table"`
	OutputFormat string `koanf:"output"`
	Parallelism  int    `koanf:"parallelism"`
	Verbose      bool   `koanf:"verbose"`
}

// Default configuration values.
const (
	DefaultSourceType  = "csv"
	DefaultOutput      = "table"
	DefaultParallelism = 4
)

var configFileUsed string

// GetConfigFileUsed returns the path of the config file that was loaded,
// or empty if none was found.
func GetConfigFileUsed() string {
	return configFileUsed
}

// findConfigFile finds the config file to use.
// Priority: explicit path > isekaicomp.yaml > isekaicomp.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"isekaicomp.yaml", "isekaicomp.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"source_type": DefaultSourceType,
		"output":      DefaultOutput,
		"parallelism": DefaultParallelism,
		"verbose":     false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (ISEKAI_ prefix)
	// Transform: ISEKAI_SOURCE_PATH -> source_path
	if err := k.Load(env.Provider("ISEKAI_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "ISEKAI_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Parallelism < 1 {
		return nil, fmt.Errorf("parallelism must be at least 1, got %d", cfg.Parallelism)
	}

	return &cfg, nil
}
