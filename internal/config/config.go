package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/shelfview/internal/util"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "shelfview", "config.yml")
}

// Load reads the config from SHELFVIEW_CONFIG or the default path.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("SHELFVIEW_CONFIG"))
}

// LoadFrom reads the config from path (the default path when empty), layered
// over defaults and SHELFVIEW_* environment variables. A missing file is not
// an error.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.token_env", "SHELFVIEW_TOKEN")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.rate_per_second", 10)
	v.SetDefault("api.image_base", "")
	v.SetDefault("browse.page_size", 18)
	v.SetDefault("browse.debounce", "250ms")
	v.SetDefault("browse.search_type", "title")
	v.SetDefault("browse.sort", "recent")
	v.SetDefault("mutation.max_retries", 2)
	v.SetDefault("mutation.retry_delay", "2s")
	v.SetDefault("mutation.settle_delay", "1s")
	v.SetDefault("session.path", defaultSessionPath())
	v.SetDefault("downloads.dir", defaultDownloadsDir())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetEnvPrefix("SHELFVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultPath()
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		// A missing file just means defaults.
		if !os.IsNotExist(err) {
			if _, isCfgNotFound := err.(viper.ConfigFileNotFoundError); !isCfgNotFound {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Session.Path = util.ExpandHome(cfg.Session.Path)
	cfg.Downloads.Dir = util.ExpandHome(cfg.Downloads.Dir)
	cfg.Log.File = util.ExpandHome(cfg.Log.File)

	return &cfg, nil
}

// Save writes the config to path, or the default path when empty.
// Durations are written in their string form so the file stays editable.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return cfg.Encode(f)
}

// Encode writes the config as YAML with 2-space indentation.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.document()); err != nil {
		return err
	}
	return enc.Close()
}

// document is the YAML form of the config.
func (c *Config) document() map[string]any {
	return map[string]any{
		"api": map[string]any{
			"base_url":        c.API.BaseURL,
			"token_env":       c.API.TokenEnv,
			"timeout":         c.API.Timeout.String(),
			"rate_per_second": c.API.RatePerSecond,
			"image_base":      c.API.ImageBase,
		},
		"browse": map[string]any{
			"page_size":   c.Browse.PageSize,
			"debounce":    c.Browse.Debounce.String(),
			"search_type": c.Browse.SearchType,
			"sort":        c.Browse.Sort,
		},
		"mutation": map[string]any{
			"max_retries":  c.Mutation.MaxRetries,
			"retry_delay":  c.Mutation.RetryDelay.String(),
			"settle_delay": c.Mutation.SettleDelay.String(),
		},
		"session":   map[string]any{"path": c.Session.Path},
		"downloads": map[string]any{"dir": c.Downloads.Dir},
		"log":       map[string]any{"level": c.Log.Level, "file": c.Log.File},
	}
}

func defaultSessionPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "shelfview", "session.yml")
}

func defaultDownloadsDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Downloads", "shelfview")
}
