// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/stratastor/logger"
	"github.com/stratastor/nekrosis/internal/common"
	"github.com/stratastor/nekrosis/internal/constants"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	instance   *Config
	once       sync.Once
	configPath string // Tracks where the config was loaded from
)

type Config struct {
	Logger struct {
		LogLevel     string `mapstructure:"logLevel" yaml:"logLevel"`
		EnableSentry bool   `mapstructure:"enableSentry" yaml:"enableSentry"`
		SentryDSN    string `mapstructure:"sentryDSN" yaml:"sentryDSN"`
	} `mapstructure:"logger" yaml:"logger"`

	Electron struct {
		SearchRoot string   `mapstructure:"searchRoot" yaml:"searchRoot"`
		Exclusions []string `mapstructure:"exclusions" yaml:"exclusions"`
	} `mapstructure:"electron" yaml:"electron"`

	Install struct {
		LabelPrefix string `mapstructure:"labelPrefix" yaml:"labelPrefix"`
		PayloadDir  string `mapstructure:"payloadDir" yaml:"payloadDir"` // empty: per-platform default
	} `mapstructure:"install" yaml:"install"`

	Export struct {
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"export" yaml:"export"`
}

// LoadConfig loads the configuration with precedence rules. Only the first
// call reads from disk.
func LoadConfig(configFilePath string) *Config {
	once.Do(func() {
		l, err := logger.NewTag(logger.Config{LogLevel: "warn"}, "config")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}

		cfg, path, err := load(configFilePath)
		if err != nil {
			if nkerrors.HasCode(err, nkerrors.ConfigNotFound) {
				l.Debug("Config file not found, using defaults", "path", path)
			} else {
				l.Error("Error reading config file, using defaults", "err", err)
			}
		}
		instance = cfg
		configPath = path
		l.Debug("Loaded configuration", "path", path, "config", fmt.Sprintf("%+v", *cfg))
	})

	return instance
}

// load resolves the config path and reads it. A non-nil Config carrying the
// defaults is returned even when reading fails.
func load(configFilePath string) (*Config, string, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolvePath(configFilePath)
	if err != nil {
		return defaults(v), "", err
	}
	v.SetConfigFile(path)

	var readErr error
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			readErr = nkerrors.New(nkerrors.ConfigNotFound, path)
		} else {
			readErr = nkerrors.Wrap(err, nkerrors.ConfigLoadFailed).WithMetadata("path", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return defaults(v), path, nkerrors.Wrap(err, nkerrors.ConfigInvalid).WithMetadata("path", path)
	}
	return &cfg, path, readErr
}

func resolvePath(configFilePath string) (string, error) {
	path := configFilePath
	if path == "" {
		path = os.Getenv(constants.EnvConfigPath)
	}
	if path == "" {
		dir, err := common.GetConfigDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(dir, constants.ConfigFileName)
	}

	path, err := common.ExpandPath(path)
	if err != nil {
		return "", err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.logLevel", "info")
	v.SetDefault("logger.enableSentry", false)
	v.SetDefault("logger.sentryDSN", "")

	v.SetDefault("electron.searchRoot", "/Applications")
	v.SetDefault("electron.exclusions", []string{"/Applications/Visual Studio Code.app"})

	v.SetDefault("install.labelPrefix", "com.nekrosis")
	v.SetDefault("install.payloadDir", "")

	v.SetDefault("export.format", "plist")
}

func defaults(v *viper.Viper) *Config {
	var cfg Config
	cfg.Logger.LogLevel = v.GetString("logger.logLevel")
	cfg.Logger.EnableSentry = v.GetBool("logger.enableSentry")
	cfg.Logger.SentryDSN = v.GetString("logger.sentryDSN")
	cfg.Electron.SearchRoot = v.GetString("electron.searchRoot")
	cfg.Electron.Exclusions = v.GetStringSlice("electron.exclusions")
	cfg.Install.LabelPrefix = v.GetString("install.labelPrefix")
	cfg.Install.PayloadDir = v.GetString("install.payloadDir")
	cfg.Export.Format = v.GetString("export.format")
	return &cfg
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return defaults(v)
}

// SaveConfig persists the current configuration. An empty path writes to
// the default location for the running user.
func SaveConfig(path string) error {
	cfg := GetConfig()

	if path == "" {
		dir, err := common.GetConfigDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, constants.ConfigFileName)
	}
	if err := save(cfg, path); err != nil {
		return err
	}

	configPath = path
	return nil
}

func save(cfg *Config, path string) error {
	if err := common.EnsureDir(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	configYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return nkerrors.Wrap(err, nkerrors.ConfigMarshalFailed)
	}

	if err := os.WriteFile(path, configYAML, 0o644); err != nil {
		return nkerrors.Wrap(err, nkerrors.ConfigWriteFailed).WithMetadata("path", path)
	}
	return nil
}

// GetLoadedConfigPath returns the path of the currently loaded configuration file.
func GetLoadedConfigPath() string {
	return configPath
}

// GetConfig returns the current configuration instance.
func GetConfig() *Config {
	if instance == nil {
		return LoadConfig("")
	}
	return instance
}

func NewLoggerConfig(cfg *Config) logger.Config {
	if cfg == nil {
		return logger.Config{
			LogLevel:     "info",
			EnableSentry: false,
			SentryDSN:    "",
		}
	}

	return logger.Config{
		LogLevel:     cfg.Logger.LogLevel,
		EnableSentry: cfg.Logger.EnableSentry,
		SentryDSN:    cfg.Logger.SentryDSN,
	}
}
