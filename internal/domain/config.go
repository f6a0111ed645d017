// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// Config is the top-level application configuration, unmarshaled from
// config.toml with environment overrides applied.
type Config struct {
	Version string

	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"baseUrl"`

	LogLevel      string `mapstructure:"logLevel"`
	LogPath       string `mapstructure:"logPath"`
	LogMaxSize    int    `mapstructure:"logMaxSize"`
	LogMaxBackups int    `mapstructure:"logMaxBackups"`

	DataDir string `mapstructure:"dataDir"`

	MetricsEnabled bool   `mapstructure:"metricsEnabled"`
	MetricsHost    string `mapstructure:"metricsHost"`
	MetricsPort    int    `mapstructure:"metricsPort"`

	// Search behaviour
	SearchCacheTTLMinutes    int  `mapstructure:"searchCacheTtlMinutes"`
	AvailabilityTTLDays      int  `mapstructure:"availabilityTtlDays"`
	ResolveCacheTTLSeconds   int  `mapstructure:"resolveCacheTtlSeconds"`
	ProviderTimeoutSeconds   int  `mapstructure:"providerTimeoutSeconds"`
	DefaultCooldownSeconds   int  `mapstructure:"defaultCooldownSeconds"`
	MaxResults               int  `mapstructure:"maxResults"`
	MaxResultsPerProvider    int  `mapstructure:"maxResultsPerProvider"`
	CompactMode              bool `mapstructure:"compactMode"`
	AvailabilityFlushMinutes int  `mapstructure:"availabilityFlushMinutes"`
	CacheSweepMinutes        int  `mapstructure:"cacheSweepMinutes"`

	OpenSubtitles OpenSubtitlesConfig `mapstructure:"opensubtitles"`
	Podnapisi     PodnapisiConfig     `mapstructure:"podnapisi"`
	SubDL         SubDLConfig         `mapstructure:"subdl"`
}

// OpenSubtitlesConfig configures the OpenSubtitles provider.
type OpenSubtitlesConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"apiKey"`
	BaseURL string `mapstructure:"baseUrl"`
}

// PodnapisiConfig configures the Podnapisi provider.
type PodnapisiConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"baseUrl"`
}

// SubDLConfig configures the SubDL provider.
type SubDLConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"apiKey"`
	BaseURL string `mapstructure:"baseUrl"`
}
