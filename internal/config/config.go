// Package config loads application configuration for the foundry CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application-level configuration.
type Config struct {
	// TemplatesDir overrides the default template search roots.
	TemplatesDir string `mapstructure:"templates_dir"`
	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`
	Engine   Engine `mapstructure:"engine"`
}

// Engine configures the external rendering engine invocation.
type Engine struct {
	Command string        `mapstructure:"command"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from an explicit file, or from the standard
// search paths (~/.config/foundry, /etc/foundry) when path is empty.
// Environment variables prefixed FOUNDRY_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("templates_dir", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("engine.command", "copier")
	v.SetDefault("engine.timeout", 10*time.Minute)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			v.AddConfigPath(filepath.Join(home, ".config", "foundry"))
		}
		v.AddConfigPath(filepath.Join(string(filepath.Separator), "etc", "foundry"))
	}

	v.SetEnvPrefix("FOUNDRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}
