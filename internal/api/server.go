package api

import (
    "context"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "github.com/hyperifyio/policyscan/internal/app"
    "github.com/hyperifyio/policyscan/internal/metrics"
    "github.com/hyperifyio/policyscan/internal/score"
)

// Service is the subset of app.Service the API exposes.
type Service interface {
    Check(ctx context.Context, rawURL string) (bool, error)
    Extract(ctx context.Context, rawURL string) (string, error)
    Analyze(ctx context.Context, rawURL string, force bool) (*app.Result, error)
    CachedAnalysis(ctx context.Context, rawURL string) (*score.Analysis, error)
    CacheAnalysis(ctx context.Context, rawURL string, a *score.Analysis) error
    IncrementAnalysisCount(ctx context.Context) error
    Stats(ctx context.Context) (app.Stats, error)
}

var _ Service = (*app.Service)(nil)

// Server is the HTTP API for policy detection and analysis.
type Server struct {
    router   chi.Router
    svc      Service
    metrics  *metrics.Metrics
    gatherer prometheus.Gatherer
}

// NewServer wires routes. m and g may be nil, which disables request
// metrics and the /metrics endpoint respectively.
func NewServer(svc Service, m *metrics.Metrics, g prometheus.Gatherer) *Server {
    s := &Server{svc: svc, metrics: m, gatherer: g}
    s.setupRoutes()
    return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
    s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
    r := chi.NewRouter()
    r.Use(middleware.RequestID)
    r.Use(middleware.RealIP)
    r.Use(RequestLogger)
    r.Use(middleware.Recoverer)
    if s.metrics != nil {
        r.Use(Instrument(s.metrics))
    }
    // Analyses wait on the model; leave headroom over the scorer retry.
    r.Use(middleware.Timeout(90 * time.Second))

    r.Get("/health", s.handleHealth)
    if s.gatherer != nil {
        r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
    }

    r.Route("/api", func(r chi.Router) {
        r.Post("/check", s.handleCheck)
        r.Post("/extract", s.handleExtract)
        r.Post("/analyze", s.handleAnalyze)
        r.Get("/analysis", s.handleGetAnalysis)
        r.Put("/analysis", s.handlePutAnalysis)
        r.Post("/stats/increment", s.handleIncrementStats)
        r.Get("/stats", s.handleStats)
    })

    s.router = r
}
