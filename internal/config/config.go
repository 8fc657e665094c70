package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	API      APIConfig
	Database DatabaseConfig
	Session  SessionConfig
	UI       UIConfig
}

// APIConfig holds the trip backend settings.
type APIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// DatabaseConfig holds sqlite settings for the local session store.
type DatabaseConfig struct {
	Path string
}

// SessionConfig holds the fallback identity used when no session row exists.
type SessionConfig struct {
	DefaultUserID string `mapstructure:"default_user_id"`
	DefaultRole   string `mapstructure:"default_role"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat string `mapstructure:"date_format"`
	Timezone   string
}

// Load reads configuration from file and env. Env var overrides use prefix TRIPLINE_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("api.base_url", "https://api.fmalogistics.example")
	v.SetDefault("api.timeout_seconds", 15)
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "tripline", "tripline.db"))
	v.SetDefault("session.default_user_id", "")
	v.SetDefault("session.default_role", "admin")
	v.SetDefault("ui.date_format", "January 2, 2006")
	v.SetDefault("ui.timezone", "Africa/Lagos")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("TRIPLINE_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "tripline"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("TRIPLINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
