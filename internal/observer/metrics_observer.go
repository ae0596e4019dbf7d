package observer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "image_detector"

// MetricsObserver exports event counts and analysis latency to Prometheus.
type MetricsObserver struct {
	analyses *prometheus.CounterVec
	duration prometheus.Histogram
	uploads  *prometheus.CounterVec
	fetches  *prometheus.CounterVec
}

// NewMetricsObserver creates the collectors and registers them on reg.
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	o := &MetricsObserver{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "analyses_total",
			Help:      "Analysis requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "analysis_duration_seconds",
			Help:      "Round trip time of successful analyses.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40},
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "uploads_total",
			Help:      "Selected files by validation outcome.",
		}, []string{"outcome"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "remote_fetches_total",
			Help:      "Remote image downloads by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{o.analyses, o.duration, o.uploads, o.fetches} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	switch event.EventType {
	case AnalysisStarted:
		o.analyses.WithLabelValues("started").Inc()
	case AnalysisCompleted:
		o.analyses.WithLabelValues("completed").Inc()
		o.duration.Observe(event.ProcessingTime.Seconds())
	case AnalysisFailed:
		o.analyses.WithLabelValues("failed").Inc()
	case ImageAccepted:
		o.uploads.WithLabelValues("accepted").Inc()
	case ImageRejected:
		o.uploads.WithLabelValues("rejected").Inc()
	case ImageFetched:
		o.fetches.WithLabelValues("ok").Inc()
	case ImageFetchFailed:
		o.fetches.WithLabelValues("failed").Inc()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}
