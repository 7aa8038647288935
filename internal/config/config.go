// Package config loads droidprune settings. Environment variables
// (DROIDPRUNE_*) override droidprune.yaml, which overrides the built-in
// defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. DROIDPRUNE_ADB_PATH.
	EnvPrefix = "DROIDPRUNE"
	fileName  = "droidprune"
)

// Config holds every tunable setting.
type Config struct {
	ADBPath          string        `mapstructure:"adb_path"`
	Serial           string        `mapstructure:"serial"`
	BackupsDir       string        `mapstructure:"backups_dir"`
	DBPath           string        `mapstructure:"db_path"`
	ReleaseLatestURL string        `mapstructure:"release_latest_url"`
	ReleasePageURL   string        `mapstructure:"release_page_url"`
	PackageInfoURL   string        `mapstructure:"package_info_url"`
	CommandTimeout   time.Duration `mapstructure:"command_timeout"`
	UpdateTimeout    time.Duration `mapstructure:"update_timeout"`
	LogLevel         string        `mapstructure:"log_level"`
	LogFile          string        `mapstructure:"log_file"`
}

// Dir returns the droidprune config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/droidprune if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "droidprune"), nil
}

// DefaultBackupsDir is <Documents or home>/AndroidDebloater/backups.
func DefaultBackupsDir() string {
	base, err := os.UserHomeDir()
	if err != nil {
		base = "."
	}
	if docs := filepath.Join(base, "Documents"); isDir(docs) {
		base = docs
	}
	return filepath.Join(base, "AndroidDebloater", "backups")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Default returns the built-in configuration.
func Default() *Config {
	dbPath := "droidprune.db"
	if dir, err := Dir(); err == nil {
		dbPath = filepath.Join(dir, "droidprune.db")
	}
	return &Config{
		BackupsDir:       DefaultBackupsDir(),
		DBPath:           dbPath,
		ReleaseLatestURL: "https://github.com/oop7/Android-debloater/releases/latest",
		ReleasePageURL:   "https://github.com/oop7/Android-debloater/releases",
		PackageInfoURL:   "https://www.google.com/search?q=%s",
		CommandTimeout:   2 * time.Minute,
		UpdateTimeout:    10 * time.Second,
		LogLevel:         "warn",
	}
}

// Load reads cfgFile, or droidprune.yaml from Dir() and the working
// directory when cfgFile is empty. A missing default file is not an error;
// a missing cfgFile is.
func Load(cfgFile string) (*Config, error) {
	return load(cfgFile, false)
}

// LoadOrDefault is Load for a cfgFile that may not exist yet: a missing
// file yields the defaults with environment overrides applied.
func LoadOrDefault(cfgFile string) (*Config, error) {
	return load(cfgFile, true)
}

func load(cfgFile string, allowMissing bool) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || (allowMissing && errors.Is(err, fs.ErrNotExist))
		if !missing {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// SaveTo writes cfg as YAML to path, creating the parent directory.
func SaveTo(cfg *Config, path string) error {
	v := viper.New()
	setDefaults(v, cfg)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// DefaultPath is the config file Load reads when no path is given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName+".yaml"), nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("adb_path", cfg.ADBPath)
	v.SetDefault("serial", cfg.Serial)
	v.SetDefault("backups_dir", cfg.BackupsDir)
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("release_latest_url", cfg.ReleaseLatestURL)
	v.SetDefault("release_page_url", cfg.ReleasePageURL)
	v.SetDefault("package_info_url", cfg.PackageInfoURL)
	v.SetDefault("command_timeout", cfg.CommandTimeout)
	v.SetDefault("update_timeout", cfg.UpdateTimeout)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_file", cfg.LogFile)
}
