// Package config handles configuration loading for TenderSwarm.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for TenderSwarm.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Server    ServerConfig    `mapstructure:"server"`
	Swarm     SwarmConfig     `mapstructure:"swarm"`
	State     StateConfig     `mapstructure:"state"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey        string `mapstructure:"api_key"`
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// SwarmConfig holds pipeline defaults.
type SwarmConfig struct {
	// DemoMode defaults runs to simulated payments and cheap models.
	DemoMode bool `mapstructure:"demo_mode"`
	// ContractAddress is the default escrow contract.
	ContractAddress string `mapstructure:"contract_address"`
	// BatchDelay paces tender batches.
	BatchDelay time.Duration `mapstructure:"batch_delay"`
	// EvalDelay paces evaluation between submissions.
	EvalDelay time.Duration `mapstructure:"eval_delay"`
	// DebugLog is the debug log path. Empty disables debug logging.
	DebugLog string `mapstructure:"debug_log"`
}

// StateConfig holds run persistence settings.
type StateConfig struct {
	// DBPath is the sqlite database location.
	DBPath string `mapstructure:"db_path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, TENDERSWARM_*)
// 2. Project config (.tenderswarm.yaml in current directory or parent)
// 3. User config (~/.config/tenderswarm/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("TENDERSWARM")

	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.use_aws_bedrock", "CLAUDE_CODE_USE_BEDROCK")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")
	v.BindEnv("anthropic.aws_profile", "AWS_PROFILE")
	v.BindEnv("server.addr", "TENDERSWARM_ADDR")
	v.BindEnv("swarm.demo_mode", "TENDERSWARM_DEMO")
	v.BindEnv("state.db_path", "TENDERSWARM_DB")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("swarm.demo_mode", true)
	v.SetDefault("swarm.contract_address", "0x0000000000000000000000000000000000000000")
	v.SetDefault("swarm.batch_delay", "500ms")
	v.SetDefault("swarm.eval_delay", "200ms")
	v.SetDefault("swarm.debug_log", "")

	v.SetDefault("state.db_path", defaultDBPath())
}

func defaultDBPath() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "tenderswarm", "runs.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".tenderswarm", "runs.db")
	}
	return filepath.Join(home, ".local", "share", "tenderswarm", "runs.db")
}

// getUserConfigDir returns the XDG config directory for TenderSwarm.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "tenderswarm")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "tenderswarm")
	}
	return filepath.Join(home, ".config", "tenderswarm")
}

// findProjectConfig searches for .tenderswarm.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".tenderswarm.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	v.Unmarshal(cfg)
	return cfg
}
