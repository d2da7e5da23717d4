package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	stageDuration    *prom.HistogramVec
	pipelineDuration prom.Histogram
	stageResults     *prom.CounterVec
	runOutcome       *prom.CounterVec
	publishRetries   prom.Counter
	versionCount     prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docship",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.pipelineDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docship",
			Name:      "pipeline_duration_seconds",
			Help:      "Total pipeline run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docship",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docship",
			Name:      "run_outcomes_total",
			Help:      "Pipeline run outcomes by final status",
		}, []string{"outcome"})
		pr.publishRetries = prom.NewCounter(prom.CounterOpts{
			Namespace: "docship",
			Name:      "publish_retries_total",
			Help:      "Publish upload retries after transient failures",
		})
		pr.versionCount = prom.NewGauge(prom.GaugeOpts{
			Namespace: "docship",
			Name:      "version_count",
			Help:      "Number of versions in the frozen build plan",
		})
		reg.MustRegister(pr.stageDuration, pr.pipelineDuration, pr.stageResults, pr.runOutcome, pr.publishRetries, pr.versionCount)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePipelineDuration(d time.Duration) {
	if p == nil || p.pipelineDuration == nil {
		return
	}
	p.pipelineDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncPublishRetry() {
	if p == nil || p.publishRetries == nil {
		return
	}
	p.publishRetries.Inc()
}

func (p *PrometheusRecorder) SetVersionCount(n int) {
	if p == nil || p.versionCount == nil {
		return
	}
	p.versionCount.Set(float64(n))
}
