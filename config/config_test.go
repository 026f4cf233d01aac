package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRootCommand(t *testing.T) *cobra.Command {
	t.Helper()
	viper.Reset()
	ClearConfigCache()
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "assemble"}
	InitFlags(cmd)
	return cmd
}

func TestLoadConfigs_Defaults(t *testing.T) {
	cwd := t.TempDir()
	config := LoadConfigs(newRootCommand(t), cwd)

	assert.Equal(t, "dracula", config.Theme)
	assert.True(t, config.EnableCache)
	assert.Equal(t, "http://localhost:8888/assemble", config.ServerConfig.BaseURL)
	assert.Equal(t, 30*time.Second, config.ServerConfig.RequestTimeout)
	assert.Equal(t, time.Second, config.SubmissionConfig.PollInterval)
	assert.Equal(t, 3, config.SubmissionConfig.MaxSliceRetries)
	assert.Equal(t, 500*time.Millisecond, config.SubmissionConfig.AuthPollInterval)
	assert.Equal(t, filepath.Join(cwd, ".cache", "assemble", "history.db"), config.HistoryPath)
}

func TestLoadConfigs_FileThenEnvThenFlags(t *testing.T) {
	cwd := t.TempDir()
	content := "theme: monokai\nserver_config:\n  base_url: http://notebooks:9999/assemble\nsubmission_config:\n  poll_interval: 2s\n  max_slice_retries: 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(cwd, "assemble-config.yml"), []byte(content), 0644))

	cmd := newRootCommand(t)
	config := LoadConfigs(cmd, cwd)
	assert.Equal(t, "monokai", config.Theme)
	assert.Equal(t, "http://notebooks:9999/assemble", config.ServerConfig.BaseURL)
	assert.Equal(t, 2*time.Second, config.SubmissionConfig.PollInterval)
	assert.Equal(t, 5, config.SubmissionConfig.MaxSliceRetries)
	assert.Equal(t, 30*time.Second, config.ServerConfig.RequestTimeout)

	t.Setenv("ASSEMBLE_BASE_URL", "http://env:1/assemble")
	cmd = newRootCommand(t)
	config = LoadConfigs(cmd, cwd)
	assert.Equal(t, "http://env:1/assemble", config.ServerConfig.BaseURL)

	cmd = newRootCommand(t)
	require.NoError(t, cmd.PersistentFlags().Set("base_url", "http://flag:2/assemble"))
	config = LoadConfigs(cmd, cwd)
	assert.Equal(t, "http://flag:2/assemble", config.ServerConfig.BaseURL)
}

func TestLoadConfigs_TokenFromJupyterEnv(t *testing.T) {
	t.Setenv("JUPYTER_TOKEN", "abc123")
	config := LoadConfigs(newRootCommand(t), t.TempDir())
	assert.Equal(t, "abc123", config.ServerConfig.Token)
}

func TestLoadConfigs_DotEnv(t *testing.T) {
	cwd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, ".env"), []byte("ASSEMBLE_LOG_LEVEL=debug\n"), 0644))
	t.Cleanup(func() { _ = os.Unsetenv("ASSEMBLE_LOG_LEVEL") })

	config := LoadConfigs(newRootCommand(t), cwd)
	assert.Equal(t, "debug", config.LogLevel)
}

func TestWriteDefaultConfig(t *testing.T) {
	cwd := t.TempDir()

	path, err := WriteDefaultConfig(cwd, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "assemble-config.yml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "poll_interval: 1s")

	_, err = WriteDefaultConfig(cwd, false)
	assert.Error(t, err)

	_, err = WriteDefaultConfig(cwd, true)
	assert.NoError(t, err)

	config := LoadConfigs(newRootCommand(t), cwd)
	assert.Equal(t, DefaultConfig.SubmissionConfig.AuthTimeout, config.SubmissionConfig.AuthTimeout)
	assert.Equal(t, DefaultConfig.ServerConfig.BaseURL, config.ServerConfig.BaseURL)
}

func TestGetConfigFileType(t *testing.T) {
	assert.Equal(t, "json", GetConfigFileType("assemble-config.json"))
	assert.Equal(t, "yaml", GetConfigFileType("assemble-config.yml"))
	assert.Equal(t, "", GetConfigFileType("assemble-config.toml"))
}

func TestServerConfig_Timeout(t *testing.T) {
	tests := []struct {
		name   string
		config *ServerConfig
		want   time.Duration
	}{
		{name: "configured", config: &ServerConfig{RequestTimeout: 5 * time.Second}, want: 5 * time.Second},
		{name: "zero falls back", config: &ServerConfig{}, want: 30 * time.Second},
		{name: "negative falls back", config: &ServerConfig{RequestTimeout: -time.Second}, want: 30 * time.Second},
		{name: "missing section falls back", config: nil, want: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.Timeout())
		})
	}
}

func TestLoadConfigWithCache(t *testing.T) {
	cwd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, "assemble-config.yml"), []byte("theme: github\n"), 0644))

	cmd := newRootCommand(t)
	first := LoadConfigWithCache(cmd, cwd)
	second := LoadConfigWithCache(cmd, cwd)

	assert.Same(t, first, second)
	assert.Equal(t, 1, GetConfigCacheStats()["cached_files"])
}
