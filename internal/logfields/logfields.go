// Package logfields holds the canonical slog attribute keys used across pagebuilder.
package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBatchID    = "batch_id"
	KeyPage       = "page"
	KeyOutput     = "output"
	KeyAnchor     = "anchor"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPages      = "pages"
	KeyPath       = "path"
	KeyCategory   = "category"
	KeyAddr       = "addr"
	KeyError      = "error"
)

func BatchID(id string) slog.Attr     { return slog.String(KeyBatchID, id) }
func Page(path string) slog.Attr      { return slog.String(KeyPage, path) }
func Output(path string) slog.Attr    { return slog.String(KeyOutput, path) }
func Anchor(a string) slog.Attr       { return slog.String(KeyAnchor, a) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Pages(n int) slog.Attr           { return slog.Int(KeyPages, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
