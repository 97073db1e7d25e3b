package config

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/pagebuilder/internal/foundation"
)

var (
	supportedExtensions = []string{".md", ".markdown", ".html", ".htm"}
	backoffModes        = []string{"fixed", "linear", "exponential"}
)

var configValidators = foundation.NewValidatorChain(
	validateDirectories,
	validateSource,
	validateDurations,
	validateObservability,
	func(cfg *Config) foundation.ValidationResult { return validateNav(cfg.Site.Nav, "site.nav") },
)

// ValidateConfig checks a defaulted configuration and reports every problem at once.
func ValidateConfig(cfg *Config) error {
	return configValidators.Validate(cfg).ToError()
}

func validateDirectories(cfg *Config) foundation.ValidationResult {
	return foundation.Check(filepath.Clean(cfg.Source.Directory) != filepath.Clean(cfg.Output.Directory),
		"output.directory", "distinct", "source.directory and output.directory must differ: %s", cfg.Source.Directory)
}

func validateSource(cfg *Config) foundation.ValidationResult {
	result := foundation.Valid()
	extension := foundation.OneOf("source.extensions", supportedExtensions)
	for _, ext := range cfg.Source.Extensions {
		r := extension(ext)
		for i := range r.Errors {
			r.Errors[i].Message = fmt.Sprintf("unsupported extension %q", ext)
		}
		result = result.Combine(r)
	}
	for _, pattern := range cfg.Source.Exclude {
		_, err := path.Match(pattern, "")
		result = result.Combine(foundation.Check(err == nil, "source.exclude", "pattern", "bad pattern %q: %v", pattern, err))
	}
	return result
}

func validateDurations(cfg *Config) foundation.ValidationResult {
	return validateDuration("render.page_timeout", cfg.Render.PageTimeout).
		Combine(validateDuration("preview.debounce", cfg.Preview.Debounce)).
		Combine(validateDuration("schedule.interval", cfg.Schedule.Interval))
}

func validateDuration(field, raw string) foundation.ValidationResult {
	if raw == "" {
		return foundation.Valid()
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return foundation.Invalid(foundation.NewValidationError(field, "duration", fmt.Sprintf("invalid duration %q", raw)))
	}
	return foundation.Check(d >= 0, field, "duration", "must not be negative")
}

func validateObservability(cfg *Config) foundation.ValidationResult {
	result := foundation.InRange("preview.port", 0, 65535)(cfg.Preview.Port)
	if cfg.Metrics.Enabled {
		result = result.Combine(foundation.Check(strings.HasPrefix(cfg.Metrics.Path, "/"),
			"metrics.path", "format", "must start with '/': %s", cfg.Metrics.Path))
	}
	if cfg.Events.Enabled {
		result = result.Combine(foundation.Check(strings.TrimSpace(cfg.Events.Subject) != "",
			"events.subject", "required", "is required when events are enabled"))
	}
	if cfg.Events.Backoff != "" {
		result = result.Combine(foundation.OneOf("events.backoff", backoffModes)(cfg.Events.Backoff))
	}
	return result
}

func validateNav(items []NavItem, path string) foundation.ValidationResult {
	result := foundation.Valid()
	for i, item := range items {
		p := fmt.Sprintf("%s[%d]", path, i)
		result = result.
			Combine(foundation.Check(strings.TrimSpace(item.Title) != "", p, "required", "title is required")).
			Combine(foundation.Check(item.Href != "" || len(item.Children) > 0, p, "target", "either href or children is required")).
			Combine(validateNav(item.Children, p+".children"))
	}
	return result
}
