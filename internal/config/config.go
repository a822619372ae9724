package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Share   ShareConfig   `mapstructure:"share"`
	Player  PlayerConfig  `mapstructure:"player"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StorageConfig holds the durable store configuration.
type StorageConfig struct {
	DataDir      string `mapstructure:"data_dir"`       // library db + handle scratch files
	QuotaBytes   int64  `mapstructure:"quota_bytes"`    // total blob budget, 0 = unlimited
	MaxFileBytes int64  `mapstructure:"max_file_bytes"` // per-file ceiling, 0 = unlimited
}

// ShareConfig holds the share receiver configuration.
type ShareConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	MaxRequestBytes int64  `mapstructure:"max_request_bytes"`
}

// PlayerConfig holds media player configuration.
type PlayerConfig struct {
	Command   string   `mapstructure:"command"`
	Args      []string `mapstructure:"args"`
	StartFlag string   `mapstructure:"start_flag"` // e.g. "--start=" or "--start-time="
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir:      defaultDataDir(),
			QuotaBytes:   0,
			MaxFileBytes: 2 * 1024 * 1024 * 1024,
		},
		Share: ShareConfig{
			ListenAddr:      "127.0.0.1:8847",
			MaxRequestBytes: 4 * 1024 * 1024 * 1024,
		},
		Player: PlayerConfig{
			Command: "",
			Args:    []string{},
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultDataDir returns the default data directory for the current OS.
func defaultDataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "lfstream")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "lfstream")
	}
}

// defaultLogPath returns the default log file path for the current OS.
func defaultLogPath() string {
	return filepath.Join(defaultDataDir(), "lfstream.log")
}

// defaultConfigPath returns the default config directory for the current OS.
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "lfstream")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "lfstream")
	}
}

// LoadConfig loads configuration from file and environment.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("LFSTREAM")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// FileUsed returns the path of the loaded config file, or "" when no file was
// found and the defaults are in effect.
func FileUsed() string {
	return viper.ConfigFileUsed()
}

// SaveConfig writes the current configuration to the config file.
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set("storage.data_dir", cfg.Storage.DataDir)
	viper.Set("storage.quota_bytes", cfg.Storage.QuotaBytes)
	viper.Set("storage.max_file_bytes", cfg.Storage.MaxFileBytes)
	viper.Set("share.listen_addr", cfg.Share.ListenAddr)
	viper.Set("share.max_request_bytes", cfg.Share.MaxRequestBytes)
	viper.Set("player.command", cfg.Player.Command)
	viper.Set("player.args", cfg.Player.Args)
	viper.Set("player.start_flag", cfg.Player.StartFlag)
	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
