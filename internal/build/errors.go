package build

import "errors"

// Sentinel errors for batch-level failures. They are wrapped with context at the call site.
var (
	ErrDiscovery = errors.New("pagebuilder: discovery error")
	ErrOutput    = errors.New("pagebuilder: output error")
)
