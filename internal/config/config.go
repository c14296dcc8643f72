package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "BUILDTRACK"

// Config holds the settings shared by the client commands and the
// reference server.
type Config struct {
	APIURL      string `mapstructure:"api_url"`
	Token       string `mapstructure:"token"`
	DBPath      string `mapstructure:"db_path"`
	Addr        string `mapstructure:"addr"`
	JournalPath string `mapstructure:"journal_path"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		APIURL: "http://localhost:8080",
		DBPath: "./buildtrack.db",
		Addr:   ":8080",
	}
}

// Load reads ~/.buildtrack/config.yaml when present and applies
// BUILDTRACK_* environment overrides on top.
func Load() (*Config, error) {
	return LoadFile(GlobalConfigPath())
}

// LoadFile is Load with an explicit config file. A missing file is not an
// error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("api_url", def.APIURL)
	v.SetDefault("token", def.Token)
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("addr", def.Addr)
	v.SetDefault("journal_path", def.JournalPath)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.APIURL = strings.TrimSuffix(cfg.APIURL, "/")
	return cfg, nil
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".buildtrack", "config.yaml")
}
