package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BATTERY_GUARDIAN_LOGGING_LEVEL.
const EnvPrefix = "BATTERY_GUARDIAN"

// Config holds the runtime settings of Battery Guardian. The engine behavior
// itself (thresholds, interval, remote request) lives in the engine document.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Storage StorageConfig `mapstructure:"storage"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Server  ServerConfig  `mapstructure:"server"`
	Sensor  SensorConfig  `mapstructure:"sensor"`
	Paths   PathsConfig   `mapstructure:"paths"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig defines the check history database.
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// HTTPConfig defines the outbound notification client.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// ServerConfig defines the local status API.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// SensorConfig selects the power supply to read.
type SensorConfig struct {
	SysfsPath string `mapstructure:"sysfs_path"`
	Battery   string `mapstructure:"battery"`
}

// PathsConfig locates the engine documents.
type PathsConfig struct {
	ConfigurationsDir string `mapstructure:"configurations_dir"`
}

// Load reads settings from file, .env and environment variables.
// A missing settings file is not an error.
func Load(cfgFile string) (*Config, error) {
	if _, err := loadDotenvIfExists(".env"); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".battery-guardian"))
		v.AddConfigPath(".")
		v.SetConfigName("settings")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.path", filepath.Join(home, ".battery-guardian", "history.db"))
	v.SetDefault("http.timeout", "10s")
	v.SetDefault("http.user_agent", "Battery-Guardian/1.0")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.listen", "127.0.0.1:8086")
	v.SetDefault("sensor.sysfs_path", "/sys/class/power_supply")
	v.SetDefault("sensor.battery", "")
	v.SetDefault("paths.configurations_dir", "")

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// ConfigurationsDir returns the directory engine documents are resolved against.
// It defaults to "configurations" next to the executable.
func (c *Config) ConfigurationsDir() string {
	if c.Paths.ConfigurationsDir != "" {
		return c.Paths.ConfigurationsDir
	}
	exe, err := os.Executable()
	if err != nil {
		return "configurations"
	}
	return filepath.Join(filepath.Dir(exe), "configurations")
}

// ResolveDocument returns the path of an engine document. Absolute paths are
// used as is; relative ones are looked up in the configurations directory.
func (c *Config) ResolveDocument(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.ConfigurationsDir(), name)
}

func loadDotenvIfExists(filename string) (bool, error) {
	if _, err := os.Stat(filename); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, godotenv.Load(filename)
}
