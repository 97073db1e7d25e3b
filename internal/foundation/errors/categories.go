package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryParse covers malformed source documents.
	CategoryParse ErrorCategory = "parse"
	// CategoryRender covers node kinds the renderer does not know. It signals a bug.
	CategoryRender ErrorCategory = "render"
	// CategoryLinkIntegrity covers anchors that are referenced but never defined.
	CategoryLinkIntegrity ErrorCategory = "link_integrity"

	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryEvents     ErrorCategory = "events"
	CategoryHistory    ErrorCategory = "history"

	CategoryBuild    ErrorCategory = "build"
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the batch
	SeverityError   ErrorSeverity = "error"   // Fails the current page
	SeverityWarning ErrorSeverity = "warning" // Page is still written
	SeverityInfo    ErrorSeverity = "info"
)

// Well known context keys.
const (
	KeyFile   = "file"
	KeyLine   = "line"
	KeyAnchor = "anchor"
	KeyKind   = "kind"
	KeyPath   = "path"
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// GetInt retrieves an int context value.
func (c ErrorContext) GetInt(key string) (int, bool) {
	if value, exists := c.Get(key); exists {
		if n, ok := value.(int); ok {
			return n, true
		}
	}
	return 0, false
}

// Merge combines two contexts, with other taking precedence.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	result := make(ErrorContext, len(c)+len(other))
	maps.Copy(result, c)
	maps.Copy(result, other)
	return result
}

func (c ErrorContext) clone() ErrorContext {
	if c == nil {
		return nil
	}
	out := make(ErrorContext, len(c))
	maps.Copy(out, c)
	return out
}
