package config

import (
	"runtime"
	"strings"
	"time"
)

const (
	defaultSiteTitle        = "Documentation"
	defaultSourceDir        = "./docs"
	defaultOutputDir        = "./site"
	defaultPageNavMaxLevel  = 3
	defaultMetricsNamespace = "pagebuilder"
	defaultMetricsPath      = "/metrics"
	defaultHistoryPath      = ".pagebuilder/history.db"
	defaultNATSURL          = "nats://127.0.0.1:4222"
	defaultEventsSubject    = "pagebuilder.link_integrity"
	defaultEventsKVBucket   = "pagebuilder_links"
	defaultPreviewHost      = "127.0.0.1"
	defaultPreviewPort      = 1313
	defaultDebounce         = 300 * time.Millisecond
	defaultScheduleInterval = 15 * time.Minute
)

func defaultExtensions() []string {
	return []string{".md", ".markdown", ".html"}
}

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

type SiteDefaultApplier struct{}

func (SiteDefaultApplier) Domain() string { return "site" }

func (SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	if strings.TrimSpace(cfg.Site.Title) == "" {
		cfg.Site.Title = defaultSiteTitle
	}
	return nil
}

type SourceDefaultApplier struct{}

func (SourceDefaultApplier) Domain() string { return "source" }

func (SourceDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Source.Directory == "" {
		cfg.Source.Directory = defaultSourceDir
	}
	if len(cfg.Source.Extensions) == 0 {
		cfg.Source.Extensions = defaultExtensions()
	}
	for i, ext := range cfg.Source.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Source.Extensions[i] = ext
	}
	return nil
}

type OutputDefaultApplier struct{}

func (OutputDefaultApplier) Domain() string { return "output" }

func (OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = defaultOutputDir
	}
	return nil
}

// RenderDefaultApplier bounds page nav depth to 1..6 and concurrency to at least one.
type RenderDefaultApplier struct{}

func (RenderDefaultApplier) Domain() string { return "render" }

func (RenderDefaultApplier) ApplyDefaults(cfg *Config) error {
	switch {
	case cfg.Render.PageNavMaxLevel <= 0:
		cfg.Render.PageNavMaxLevel = defaultPageNavMaxLevel
	case cfg.Render.PageNavMaxLevel > 6:
		cfg.Render.PageNavMaxLevel = 6
	}
	if cfg.Render.Concurrency <= 0 {
		cfg.Render.Concurrency = runtime.NumCPU()
	}
	return nil
}

type LoggingDefaultApplier struct{}

func (LoggingDefaultApplier) Domain() string { return "logging" }

func (LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

// ObservabilityDefaultApplier covers metrics, history and events.
type ObservabilityDefaultApplier struct{}

func (ObservabilityDefaultApplier) Domain() string { return "observability" }

func (ObservabilityDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = defaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
	if cfg.History.Path == "" {
		cfg.History.Path = defaultHistoryPath
	}
	if cfg.Events.NATSURL == "" {
		cfg.Events.NATSURL = defaultNATSURL
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = defaultEventsSubject
	}
	if cfg.Events.KVBucket == "" {
		cfg.Events.KVBucket = defaultEventsKVBucket
	}
	return nil
}

type PreviewDefaultApplier struct{}

func (PreviewDefaultApplier) Domain() string { return "preview" }

func (PreviewDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Preview.Host == "" {
		cfg.Preview.Host = defaultPreviewHost
	}
	if cfg.Preview.Port == 0 {
		cfg.Preview.Port = defaultPreviewPort
	}
	if cfg.Preview.Debounce == "" {
		cfg.Preview.Debounce = defaultDebounce.String()
	}
	if cfg.Schedule.Interval == "" {
		cfg.Schedule.Interval = defaultScheduleInterval.String()
	}
	return nil
}
