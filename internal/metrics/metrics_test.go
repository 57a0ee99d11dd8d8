package metrics

import (
    "testing"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/testutil"
)

// Separate registries keep instances independent.
func TestNew_IndependentRegistries(t *testing.T) {
    a := New(prometheus.NewRegistry())
    b := New(prometheus.NewRegistry())

    a.DetectionsTotal.WithLabelValues("policy").Inc()
    a.DetectionsTotal.WithLabelValues("policy").Inc()
    b.DetectionsTotal.WithLabelValues("policy").Inc()

    if got := testutil.ToFloat64(a.DetectionsTotal.WithLabelValues("policy")); got != 2 {
        t.Fatalf("a=%v want 2", got)
    }
    if got := testutil.ToFloat64(b.DetectionsTotal.WithLabelValues("policy")); got != 1 {
        t.Fatalf("b=%v want 1", got)
    }
}

func TestNew_RegistersAllCollectors(t *testing.T) {
    reg := prometheus.NewRegistry()
    m := New(reg)
    m.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200").Inc()
    m.HTTPRequestDuration.WithLabelValues("GET", "/health", "200").Observe(0.01)
    m.ExtractionsTotal.WithLabelValues("ok").Inc()
    m.AnalysesTotal.WithLabelValues("model", "ok").Inc()
    m.AnalysisDuration.Observe(1.5)
    m.CacheEntries.Set(3)
    m.DetectionsTotal.WithLabelValues("not_policy").Inc()

    if n, err := testutil.GatherAndCount(reg); err != nil || n != 7 {
        t.Fatalf("GatherAndCount=%d, %v want 7", n, err)
    }
}
