package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceType, cfg.SourceType)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultParallelism, cfg.Parallelism)
	assert.False(t, cfg.Verbose)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isekaicomp.yaml")
	content := "source_type: sqlite\nsource_path: data.db\nsource_table: obs\nparallelism: 8\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.SourceType)
	assert.Equal(t, "data.db", cfg.SourcePath)
	assert.Equal(t, "obs", cfg.SourceTable)
	assert.Equal(t, 8, cfg.Parallelism)
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isekaicomp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source_path: from-file.csv\n"), 0644))

	t.Setenv("ISEKAI_SOURCE_PATH", "from-env.csv")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env.csv", cfg.SourcePath)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("ISEKAI_OUTPUT", "json")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", DefaultOutput, "")
	flags.String("source-path", "", "")
	require.NoError(t, flags.Parse([]string{"--output=table", "--source-path=flag.csv"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.OutputFormat)
	assert.Equal(t, "flag.csv", cfg.SourcePath)
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	t.Setenv("ISEKAI_OUTPUT", "json")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", DefaultOutput, "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestLoad_RejectsBadParallelism(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isekaicomp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parallelism: 0\n"), 0644))

	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}
