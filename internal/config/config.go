package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the pagebuilder configuration file.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Source   SourceConfig   `yaml:"source"`
	Output   OutputConfig   `yaml:"output"`
	Render   RenderConfig   `yaml:"render"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	History  HistoryConfig  `yaml:"history"`
	Events   EventsConfig   `yaml:"events"`
	Preview  PreviewConfig  `yaml:"preview"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

// SiteConfig holds the site-wide collaborators shared by every page of a batch.
type SiteConfig struct {
	Title   string       `yaml:"title"`
	BaseURL string       `yaml:"base_url,omitempty"`
	Nav     []NavItem    `yaml:"nav,omitempty"`
	Chrome  ChromeConfig `yaml:"chrome,omitempty"`
}

// NavItem is one node of the site navigation tree.
type NavItem struct {
	Title    string    `yaml:"title"`
	Href     string    `yaml:"href,omitempty"`
	Children []NavItem `yaml:"children,omitempty"`
}

// ChromeConfig points at pre-rendered HTML fragments placed around each page body.
// Paths are relative to the config file directory unless absolute.
type ChromeConfig struct {
	Head   string `yaml:"head,omitempty"`
	Header string `yaml:"header,omitempty"`
	Footer string `yaml:"footer,omitempty"`
}

type SourceConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions,omitempty"`
	Exclude    []string `yaml:"exclude,omitempty"` // glob patterns on the relative path
}

type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"`
	// Incremental skips writing pages whose fingerprint matches the manifest.
	Incremental bool `yaml:"incremental"`
}

// RenderConfig controls the batch renderer.
type RenderConfig struct {
	PageNavMaxLevel int    `yaml:"page_nav_max_level"`
	Concurrency     int    `yaml:"concurrency"`
	PageTimeout     string `yaml:"page_timeout,omitempty"`
}

// PageTimeoutDuration returns the parsed per-page timeout, zero when unset.
func (r RenderConfig) PageTimeoutDuration() time.Duration {
	return parseDurationOr(r.PageTimeout, 0)
}

type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace,omitempty"`
	Path      string `yaml:"path,omitempty"`
}

// HistoryConfig configures the sqlite build history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// EventsConfig configures publishing link integrity events to NATS JetStream.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	// KVBucket stores the latest broken-anchor list per page.
	KVBucket string `yaml:"kv_bucket,omitempty"`
	// MaxRetries per delivery; zero keeps the default of 2, negative disables retries.
	MaxRetries int    `yaml:"max_retries,omitempty"`
	Backoff    string `yaml:"backoff,omitempty"` // fixed, linear or exponential
}

type PreviewConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Debounce string `yaml:"debounce,omitempty"`
}

// DebounceDuration returns the parsed watch debounce.
func (p PreviewConfig) DebounceDuration() time.Duration {
	return parseDurationOr(p.Debounce, defaultDebounce)
}

type ScheduleConfig struct {
	Interval string `yaml:"interval,omitempty"`
}

// IntervalDuration returns the parsed rebuild interval.
func (s ScheduleConfig) IntervalDuration() time.Duration {
	return parseDurationOr(s.Interval, defaultScheduleInterval)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// Load reads, expands, defaults and validates the configuration at configPath.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes raw YAML after environment expansion, then applies defaults and validation.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := NewDefaultApplier().ApplyDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns a fully defaulted configuration without reading a file.
func Default() *Config {
	cfg := &Config{}
	_ = NewDefaultApplier().ApplyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		Site: SiteConfig{
			Title:   "Project Documentation",
			BaseURL: "https://docs.example.com",
			Nav: []NavItem{
				{Title: "Home", Href: "/index.html"},
				{Title: "Guides", Children: []NavItem{
					{Title: "DevOps", Href: "/guides/devops.html"},
					{Title: "Testing", Href: "/guides/testing.html"},
				}},
			},
			Chrome: ChromeConfig{
				Header: "_chrome/header.html",
				Footer: "_chrome/footer.html",
			},
		},
		Source:   SourceConfig{Directory: "./docs", Extensions: defaultExtensions()},
		Output:   OutputConfig{Directory: "./site", Clean: true, Incremental: true},
		Render:   RenderConfig{PageNavMaxLevel: defaultPageNavMaxLevel, Concurrency: 4, PageTimeout: "30s"},
		Logging:  LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Metrics:  MetricsConfig{Enabled: false, Namespace: defaultMetricsNamespace, Path: "/metrics"},
		History:  HistoryConfig{Enabled: true, Path: defaultHistoryPath},
		Events:   EventsConfig{Enabled: false, NATSURL: "${NATS_URL}", Subject: defaultEventsSubject, KVBucket: defaultEventsKVBucket, Backoff: "linear"},
		Preview:  PreviewConfig{Host: defaultPreviewHost, Port: defaultPreviewPort, Debounce: "300ms"},
		Schedule: ScheduleConfig{Interval: "15m"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
