package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/harrisonrobin/tasks/pkg/kv"
)

const (
	xdgAppName = "tasks"
	configFile = "config.yaml"
	envPrefix  = "TASKS"

	DefaultServer  = "http://localhost:3000"
	DefaultTimeout = 10 * time.Second
)

type Config struct {
	Server   string        `mapstructure:"server"`
	Store    string        `mapstructure:"store"`
	DataDir  string        `mapstructure:"data_dir"`
	Timeout  time.Duration `mapstructure:"timeout"`
	LogLevel string        `mapstructure:"log_level"`
	LogFile  string        `mapstructure:"log_file"`
}

// Dir returns the directory holding the config file and, by default, the
// local state.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config file, if any, with TASKS_* environment variables
// taking precedence.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit file path. A missing file yields the
// defaults.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, filepath.Dir(path))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values a client cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server) == "" {
		return errors.New("config: server is required")
	}
	switch c.Store {
	case kv.BackendFile, kv.BackendSQLite:
	default:
		return fmt.Errorf("config: unknown store %q (want %s or %s)", c.Store, kv.BackendFile, kv.BackendSQLite)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes cfg to path as YAML.
func SaveFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigPermissions(0600)
	v.Set("server", cfg.Server)
	v.Set("store", cfg.Store)
	v.Set("data_dir", cfg.DataDir)
	v.Set("timeout", cfg.Timeout.String())
	v.Set("log_level", cfg.LogLevel)
	v.Set("log_file", cfg.LogFile)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("server", DefaultServer)
	v.SetDefault("store", kv.BackendFile)
	v.SetDefault("data_dir", dir)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
