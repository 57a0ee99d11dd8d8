// Package metrics defines the Prometheus collectors policyscan exports.
package metrics

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector. Register each instance on its own
// registry so tests can build as many as they like.
type Metrics struct {
    HTTPRequestsTotal   *prometheus.CounterVec
    HTTPRequestDuration *prometheus.HistogramVec
    DetectionsTotal     *prometheus.CounterVec
    ExtractionsTotal    *prometheus.CounterVec
    AnalysesTotal       *prometheus.CounterVec
    AnalysisDuration    prometheus.Histogram
    CacheEntries        prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
    f := promauto.With(reg)
    return &Metrics{
        HTTPRequestsTotal: f.NewCounterVec(
            prometheus.CounterOpts{
                Name: "policyscan_http_requests_total",
                Help: "Total number of HTTP requests.",
            },
            []string{"method", "path", "status"},
        ),
        HTTPRequestDuration: f.NewHistogramVec(
            prometheus.HistogramOpts{
                Name:    "policyscan_http_request_duration_seconds",
                Help:    "Duration of HTTP requests.",
                Buckets: prometheus.DefBuckets,
            },
            []string{"method", "path", "status"},
        ),
        DetectionsTotal: f.NewCounterVec(
            prometheus.CounterOpts{
                Name: "policyscan_detections_total",
                Help: "Policy detection checks by outcome.",
            },
            []string{"result"}, // policy, not_policy
        ),
        ExtractionsTotal: f.NewCounterVec(
            prometheus.CounterOpts{
                Name: "policyscan_extractions_total",
                Help: "Policy text extractions by outcome.",
            },
            []string{"result"}, // ok, insufficient, no_content
        ),
        AnalysesTotal: f.NewCounterVec(
            prometheus.CounterOpts{
                Name: "policyscan_analyses_total",
                Help: "Analyses by source and status.",
            },
            []string{"source", "status"}, // source: cache, model
        ),
        AnalysisDuration: f.NewHistogram(
            prometheus.HistogramOpts{
                Name:    "policyscan_analysis_duration_seconds",
                Help:    "Duration of model-backed analyses.",
                Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
            },
        ),
        CacheEntries: f.NewGauge(
            prometheus.GaugeOpts{
                Name: "policyscan_cache_entries",
                Help: "Cached analyses after the last purge.",
            },
        ),
    }
}
