// Package metrics records batch and page metrics for pagebuilder.
//
// Components receive a Recorder. NoopRecorder is the default so call sites never
// check for nil; PrometheusRecorder is injected when metrics.enabled is set and
// its registry is exposed through HTTPHandler by the preview and serve commands.
package metrics
