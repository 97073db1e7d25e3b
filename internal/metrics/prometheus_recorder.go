package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name when no namespace is configured.
const DefaultNamespace = "pagebuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration    *prom.HistogramVec
	batchDuration    prom.Histogram
	pageDuration     prom.Histogram
	pageResults      *prom.CounterVec
	errors           *prom.CounterVec
	batchOutcome     *prom.CounterVec
	batchConcurrency prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil registry gets a fresh one so tests never collide on the default registerer.
func NewPrometheusRecorder(reg *prom.Registry, namespace string) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual batch stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		batchDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Total batch duration",
			Buckets:   prom.DefBuckets,
		}),
		pageDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "page_duration_seconds",
			Help:      "Time to render, assemble and write one page",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		pageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "page_results_total",
			Help:      "Page results by outcome",
		}, []string{"result"}),
		errors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Collected errors by category",
		}, []string{"category"}),
		batchOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "batch_outcomes_total",
			Help:      "Batch outcomes by final status",
		}, []string{"outcome"}),
		batchConcurrency: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_concurrency",
			Help:      "Page worker limit of the last batch",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.batchDuration, pr.pageDuration, pr.pageResults, pr.errors, pr.batchOutcome, pr.batchConcurrency)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBatchDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.batchDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePageDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.pageDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.pageResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncErrors(category string) {
	if p == nil {
		return
	}
	p.errors.WithLabelValues(category).Inc()
}

func (p *PrometheusRecorder) IncBatchOutcome(outcome BatchOutcome) {
	if p == nil {
		return
	}
	p.batchOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetBatchConcurrency(n int) {
	if p == nil {
		return
	}
	p.batchConcurrency.Set(float64(n))
}
