package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/meysamhadeli/assemble/constants/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const configName = "assemble-config"

// configCacheEntry holds cached configuration with metadata
type configCacheEntry struct {
	config  *Config
	modTime time.Time
}

// Global cache for configuration files
var (
	configCache = make(map[string]*configCacheEntry)
	cacheMutex  sync.RWMutex
)

// Config represents the structure of the configuration file
type Config struct {
	Version          string            `mapstructure:"version"`
	Theme            string            `mapstructure:"theme"`
	EnableCache      bool              `mapstructure:"enable_cache"`
	LogLevel         string            `mapstructure:"log_level"`
	HistoryPath      string            `mapstructure:"history_path"`
	ServerConfig     *ServerConfig     `mapstructure:"server_config"`
	SubmissionConfig *SubmissionConfig `mapstructure:"submission_config"`
}

// ServerConfig locates the feature-repository service.
type ServerConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Token          string        `mapstructure:"token"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Timeout is RequestTimeout, or the default when it is unset or not positive.
func (s *ServerConfig) Timeout() time.Duration {
	if s == nil || s.RequestTimeout <= 0 {
		return DefaultConfig.ServerConfig.RequestTimeout
	}
	return s.RequestTimeout
}

// SubmissionConfig tunes the submission workflow.
type SubmissionConfig struct {
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	MaxSliceRetries  int           `mapstructure:"max_slice_retries"`
	AuthPollInterval time.Duration `mapstructure:"auth_poll_interval"`
	AuthTimeout      time.Duration `mapstructure:"auth_timeout"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:     "0.1.0",
	Theme:       "dracula",
	EnableCache: true,
	LogLevel:    "warn",
	HistoryPath: filepath.Join(".cache", "assemble", "history.db"),
	ServerConfig: &ServerConfig{
		BaseURL:        "http://localhost:8888/assemble",
		Token:          "",
		RequestTimeout: 30 * time.Second,
	},
	SubmissionConfig: &SubmissionConfig{
		PollInterval:     time.Second,
		MaxSliceRetries:  3,
		AuthPollInterval: 500 * time.Millisecond,
		AuthTimeout:      5 * time.Minute,
	},
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from .env, file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Could not load .env file: %v", err)))
	}

	// Set default values using Viper
	setDefaults()

	// Explicitly bind environment variables to config keys
	bindEnv()

	// Check if the user provided a config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	} else if path := findConfigFile(cwd); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	}

	// Bind CLI flags to override config values
	bindFlags(rootCmd)

	// Unmarshal the configuration into the Config struct
	if err := viper.Unmarshal(&config); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	if config.HistoryPath != "" && !filepath.IsAbs(config.HistoryPath) {
		config.HistoryPath = filepath.Join(cwd, config.HistoryPath)
	}

	return config
}

// findConfigFile returns the first assemble-config.{yml,yaml,json} in dir, or "".
func findConfigFile(dir string) string {
	for _, ext := range []string{".yml", ".yaml", ".json"} {
		path := filepath.Join(dir, configName+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("enable_cache", DefaultConfig.EnableCache)
	viper.SetDefault("log_level", DefaultConfig.LogLevel)
	viper.SetDefault("history_path", DefaultConfig.HistoryPath)
	viper.SetDefault("server_config.base_url", DefaultConfig.ServerConfig.BaseURL)
	viper.SetDefault("server_config.token", DefaultConfig.ServerConfig.Token)
	viper.SetDefault("server_config.request_timeout", DefaultConfig.ServerConfig.RequestTimeout)
	viper.SetDefault("submission_config.poll_interval", DefaultConfig.SubmissionConfig.PollInterval)
	viper.SetDefault("submission_config.max_slice_retries", DefaultConfig.SubmissionConfig.MaxSliceRetries)
	viper.SetDefault("submission_config.auth_poll_interval", DefaultConfig.SubmissionConfig.AuthPollInterval)
	viper.SetDefault("submission_config.auth_timeout", DefaultConfig.SubmissionConfig.AuthTimeout)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("theme", "ASSEMBLE_THEME")
	_ = viper.BindEnv("enable_cache", "ASSEMBLE_ENABLE_CACHE")
	_ = viper.BindEnv("log_level", "ASSEMBLE_LOG_LEVEL")
	_ = viper.BindEnv("history_path", "ASSEMBLE_HISTORY_PATH")
	_ = viper.BindEnv("server_config.base_url", "ASSEMBLE_BASE_URL")
	_ = viper.BindEnv("server_config.token", "ASSEMBLE_TOKEN", "JUPYTER_TOKEN")
	_ = viper.BindEnv("server_config.request_timeout", "ASSEMBLE_REQUEST_TIMEOUT")
	_ = viper.BindEnv("submission_config.poll_interval", "ASSEMBLE_POLL_INTERVAL")
	_ = viper.BindEnv("submission_config.max_slice_retries", "ASSEMBLE_MAX_SLICE_RETRIES")
	_ = viper.BindEnv("submission_config.auth_poll_interval", "ASSEMBLE_AUTH_POLL_INTERVAL")
	_ = viper.BindEnv("submission_config.auth_timeout", "ASSEMBLE_AUTH_TIMEOUT")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	bindFlag(rootCmd, "theme", "theme")
	bindFlag(rootCmd, "enable_cache", "enable_cache")
	bindFlag(rootCmd, "log_level", "log_level")
	bindFlag(rootCmd, "history_path", "history_path")
	bindFlag(rootCmd, "server_config.base_url", "base_url")
	bindFlag(rootCmd, "server_config.token", "token")
	bindFlag(rootCmd, "server_config.request_timeout", "request_timeout")
	bindFlag(rootCmd, "submission_config.poll_interval", "poll_interval")
	bindFlag(rootCmd, "submission_config.max_slice_retries", "max_slice_retries")
}

// bindFlag finds a persistent flag from the command itself or from one of its parents.
func bindFlag(cmd *cobra.Command, key, name string) {
	flag := cmd.PersistentFlags().Lookup(name)
	if flag == nil {
		flag = cmd.InheritedFlags().Lookup(name)
	}
	if flag == nil {
		return
	}
	_ = viper.BindPFlag(key, flag)
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Set the syntax highlighting theme for code shown in prompts. (e.g., 'dracula', 'monokai', 'github')")
	rootCmd.PersistentFlags().Bool("enable_cache", DefaultConfig.EnableCache, "Enable or disable the parse cache used when slicing code")
	rootCmd.PersistentFlags().String("log_level", DefaultConfig.LogLevel, "Log level: 'trace', 'debug', 'info', 'warn', 'error' or 'disabled'")
	rootCmd.PersistentFlags().String("history_path", DefaultConfig.HistoryPath, "Path of the local database remembering submitted features")

	// Feature-repository service
	rootCmd.PersistentFlags().String("base_url", DefaultConfig.ServerConfig.BaseURL, "The base URL of the assemble server extension.")
	rootCmd.PersistentFlags().String("token", DefaultConfig.ServerConfig.Token, "The Jupyter server token sent with every request.")
	rootCmd.PersistentFlags().Duration("request_timeout", DefaultConfig.ServerConfig.RequestTimeout, "Timeout of a single request to the server.")

	// Submission workflow
	rootCmd.PersistentFlags().Duration("poll_interval", DefaultConfig.SubmissionConfig.PollInterval, "Wait between two submission status checks.")
	rootCmd.PersistentFlags().Int("max_slice_retries", DefaultConfig.SubmissionConfig.MaxSliceRetries, "How many times analysis may be retried with sliced code.")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}

// LoadConfigWithCache loads configuration with caching support
func LoadConfigWithCache(rootCmd *cobra.Command, cwd string) *Config {
	configFilePath := cfgFile
	if configFilePath == "" {
		configFilePath = findConfigFile(cwd)
	}

	// If no config file exists, return default configuration loading
	if configFilePath == "" {
		return LoadConfigs(rootCmd, cwd)
	}

	fileInfo, err := os.Stat(configFilePath)
	if err != nil {
		return LoadConfigs(rootCmd, cwd)
	}

	// Check cache first
	cacheMutex.RLock()
	if cached, exists := configCache[configFilePath]; exists && fileInfo.ModTime().Equal(cached.modTime) {
		cacheMutex.RUnlock()
		return cached.config
	}
	cacheMutex.RUnlock()

	config := LoadConfigs(rootCmd, cwd)

	cacheMutex.Lock()
	configCache[configFilePath] = &configCacheEntry{
		config:  config,
		modTime: fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return config
}

// ClearConfigCache clears all cached configuration files
func ClearConfigCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	configCache = make(map[string]*configCacheEntry)
}

// GetConfigCacheStats returns statistics about the configuration cache
func GetConfigCacheStats() map[string]interface{} {
	cacheMutex.RLock()
	defer cacheMutex.RUnlock()

	entries := make([]string, 0, len(configCache))
	for path := range configCache {
		entries = append(entries, path)
	}

	return map[string]interface{}{
		"cached_files":  len(configCache),
		"cache_entries": entries,
	}
}

// fileDocument is the on-disk shape written by WriteDefaultConfig; durations are kept human readable.
type fileDocument struct {
	Theme        string `yaml:"theme"`
	EnableCache  bool   `yaml:"enable_cache"`
	LogLevel     string `yaml:"log_level"`
	HistoryPath  string `yaml:"history_path"`
	ServerConfig struct {
		BaseURL        string `yaml:"base_url"`
		Token          string `yaml:"token"`
		RequestTimeout string `yaml:"request_timeout"`
	} `yaml:"server_config"`
	SubmissionConfig struct {
		PollInterval     string `yaml:"poll_interval"`
		MaxSliceRetries  int    `yaml:"max_slice_retries"`
		AuthPollInterval string `yaml:"auth_poll_interval"`
		AuthTimeout      string `yaml:"auth_timeout"`
	} `yaml:"submission_config"`
}

func toFileDocument(config Config) fileDocument {
	var doc fileDocument
	doc.Theme = config.Theme
	doc.EnableCache = config.EnableCache
	doc.LogLevel = config.LogLevel
	doc.HistoryPath = config.HistoryPath
	if config.ServerConfig != nil {
		doc.ServerConfig.BaseURL = config.ServerConfig.BaseURL
		doc.ServerConfig.Token = config.ServerConfig.Token
		doc.ServerConfig.RequestTimeout = config.ServerConfig.RequestTimeout.String()
	}
	if config.SubmissionConfig != nil {
		doc.SubmissionConfig.PollInterval = config.SubmissionConfig.PollInterval.String()
		doc.SubmissionConfig.MaxSliceRetries = config.SubmissionConfig.MaxSliceRetries
		doc.SubmissionConfig.AuthPollInterval = config.SubmissionConfig.AuthPollInterval.String()
		doc.SubmissionConfig.AuthTimeout = config.SubmissionConfig.AuthTimeout.String()
	}
	return doc
}

// WriteDefaultConfig writes the default configuration as YAML to dir/assemble-config.yml and returns its path.
func WriteDefaultConfig(dir string, force bool) (string, error) {
	path := filepath.Join(dir, configName+".yml")
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("configuration file already exists: %s", path)
	}

	data, err := yaml.Marshal(toFileDocument(DefaultConfig))
	if err != nil {
		return "", fmt.Errorf("failed to encode configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write configuration file: %w", err)
	}
	return path, nil
}
