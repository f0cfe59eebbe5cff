package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the top-level shelfview configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Browse    BrowseConfig    `mapstructure:"browse"`
	Mutation  MutationConfig  `mapstructure:"mutation"`
	Session   SessionConfig   `mapstructure:"session"`
	Downloads DownloadsConfig `mapstructure:"downloads"`
	Log       LogConfig       `mapstructure:"log"`
}

// APIConfig holds catalog API connection settings.
type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	TokenEnv      string        `mapstructure:"token_env"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	ImageBase     string        `mapstructure:"image_base"` // empty: base_url without /api
}

// BrowseConfig tunes the catalog browser.
type BrowseConfig struct {
	PageSize   int           `mapstructure:"page_size"`
	Debounce   time.Duration `mapstructure:"debounce"`
	SearchType string        `mapstructure:"search_type"` // title, author or isbn
	Sort       string        `mapstructure:"sort"`
}

// MutationConfig holds the retry and verification timings for
// state-changing requests.
type MutationConfig struct {
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	SettleDelay time.Duration `mapstructure:"settle_delay"`
}

// SessionConfig locates the session file.
type SessionConfig struct {
	Path string `mapstructure:"path"`
}

// DownloadsConfig locates saved templates and exports.
type DownloadsConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig controls the structured log.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // empty disables logging
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url must not be empty"))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, fmt.Errorf("api.timeout must not be negative (got %s)", c.API.Timeout))
	}
	if c.API.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("api.rate_per_second must not be negative (got %v)", c.API.RatePerSecond))
	}
	if c.Browse.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("browse.page_size must be positive (got %d)", c.Browse.PageSize))
	}
	if c.Browse.Debounce < 0 {
		errs = append(errs, fmt.Errorf("browse.debounce must not be negative (got %s)", c.Browse.Debounce))
	}
	switch c.Browse.SearchType {
	case "", "title", "author", "isbn":
	default:
		errs = append(errs, fmt.Errorf("browse.search_type must be title, author or isbn (got %q)", c.Browse.SearchType))
	}
	if c.Mutation.MaxRetries < 0 || c.Mutation.MaxRetries > 2 {
		errs = append(errs, fmt.Errorf("mutation.max_retries must be between 0 and 2 (got %d)", c.Mutation.MaxRetries))
	}
	if c.Mutation.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("mutation.retry_delay must not be negative (got %s)", c.Mutation.RetryDelay))
	}
	if c.Mutation.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("mutation.settle_delay must not be negative (got %s)", c.Mutation.SettleDelay))
	}
	return errors.Join(errs...)
}
