package app

import (
    "context"
    "errors"
    "fmt"
    "net/url"
    "strings"
    "sync"
    "time"

    "github.com/rs/zerolog/log"
    "golang.org/x/time/rate"

    "github.com/hyperifyio/policyscan/internal/cache"
    "github.com/hyperifyio/policyscan/internal/extract"
    "github.com/hyperifyio/policyscan/internal/fetch"
    "github.com/hyperifyio/policyscan/internal/metrics"
    "github.com/hyperifyio/policyscan/internal/policy"
    "github.com/hyperifyio/policyscan/internal/score"
    "github.com/hyperifyio/policyscan/internal/stats"
)

// ErrUnsupportedPage is returned for addresses that are not http(s) pages.
var ErrUnsupportedPage = errors.New("Cannot analyze this page type")

// Source loads a page by URL. fetch.Client and browser.Renderer satisfy it.
type Source interface {
    Fetch(ctx context.Context, rawURL string) (fetch.Page, error)
}

// Scorer turns policy text into an analysis.
type Scorer interface {
    Score(ctx context.Context, text string) (*score.Analysis, error)
}

// StatsStore records usage counters.
type StatsStore interface {
    IncrementAnalysisCount(ctx context.Context) error
    Snapshot(ctx context.Context) (stats.Snapshot, error)
}

// Deps wires the collaborators of a Service. Only Source is required for
// detection and extraction; Scorer for analyses.
type Deps struct {
    Source  Source
    Parser  extract.Parser
    Scorer  Scorer
    Cache   cache.Store
    Stats   StatsStore
    Metrics *metrics.Metrics
    // RateInterval is the minimum spacing between model-backed analyses of
    // the same host. Zero disables limiting.
    RateInterval time.Duration
}

// Result is the outcome of Analyze.
type Result struct {
    URL      string          `json:"url"`
    Analysis *score.Analysis `json:"analysis"`
    Cached   bool            `json:"cached"`
    Grade    string          `json:"grade"`
}

// Service runs detection, extraction and analysis for pages.
type Service struct {
    deps Deps

    mu       sync.Mutex
    limiters map[string]*rate.Limiter
}

func NewService(d Deps) *Service {
    if d.Parser == nil {
        d.Parser = extract.HTMLParser{}
    }
    return &Service{deps: d, limiters: map[string]*rate.Limiter{}}
}

func checkURL(rawURL string) (*url.URL, error) {
    u, err := url.Parse(strings.TrimSpace(rawURL))
    if err != nil || !fetch.IsHTTPURL(u) {
        return nil, ErrUnsupportedPage
    }
    return u, nil
}

// Load fetches and parses the page at rawURL.
func (s *Service) Load(ctx context.Context, rawURL string) (policy.Document, error) {
    if _, err := checkURL(rawURL); err != nil {
        return nil, err
    }
    if s.deps.Source == nil {
        return nil, errors.New("no page source configured")
    }
    page, err := s.deps.Source.Fetch(ctx, rawURL)
    if err != nil {
        return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
    }
    // Final URL after redirects drives the URL pattern check.
    doc, err := s.deps.Parser.Parse(page.URL, page.Body)
    if err != nil {
        return nil, fmt.Errorf("parse %s: %w", page.URL, err)
    }
    return doc, nil
}

// Check reports whether the page at rawURL looks like a privacy policy.
func (s *Service) Check(ctx context.Context, rawURL string) (bool, error) {
    doc, err := s.Load(ctx, rawURL)
    if err != nil {
        return false, err
    }
    return s.CheckDocument(doc), nil
}

// CheckDocument classifies an already parsed page.
func (s *Service) CheckDocument(doc policy.Document) bool {
    ok := policy.DetectPolicy(doc)
    if m := s.deps.Metrics; m != nil {
        result := "not_policy"
        if ok {
            result = "policy"
        }
        m.DetectionsTotal.WithLabelValues(result).Inc()
    }
    log.Debug().Str("url", doc.URL()).Bool("policy", ok).Msg("detection")
    return ok
}

// Extract returns the normalized policy text of the page at rawURL.
func (s *Service) Extract(ctx context.Context, rawURL string) (string, error) {
    doc, err := s.Load(ctx, rawURL)
    if err != nil {
        return "", err
    }
    return s.ExtractDocument(doc)
}

// ExtractDocument extracts policy text from an already parsed page.
func (s *Service) ExtractDocument(doc policy.Document) (string, error) {
    text, err := policy.ExtractPolicyText(doc)
    if m := s.deps.Metrics; m != nil {
        result := "ok"
        switch {
        case errors.Is(err, policy.ErrInsufficientContent):
            result = "insufficient"
        case errors.Is(err, policy.ErrNoContentFound):
            result = "no_content"
        }
        m.ExtractionsTotal.WithLabelValues(result).Inc()
    }
    if err != nil {
        log.Debug().Err(err).Str("url", doc.URL()).Msg("extraction failed")
        return "", err
    }
    return text, nil
}

// Analyze returns the analysis for rawURL, served from cache unless force is
// set.
func (s *Service) Analyze(ctx context.Context, rawURL string, force bool) (*Result, error) {
    if _, err := checkURL(rawURL); err != nil {
        return nil, err
    }
    if res, ok := s.cached(ctx, rawURL, force); ok {
        return res, nil
    }
    doc, err := s.Load(ctx, rawURL)
    if err != nil {
        return nil, err
    }
    return s.analyze(ctx, rawURL, doc)
}

// AnalyzeDocument analyzes an already parsed page, caching under rawURL.
func (s *Service) AnalyzeDocument(ctx context.Context, rawURL string, doc policy.Document, force bool) (*Result, error) {
    if res, ok := s.cached(ctx, rawURL, force); ok {
        return res, nil
    }
    return s.analyze(ctx, rawURL, doc)
}

func (s *Service) cached(ctx context.Context, rawURL string, force bool) (*Result, bool) {
    if force {
        return nil, false
    }
    a, err := s.CachedAnalysis(ctx, rawURL)
    if err != nil {
        log.Warn().Err(err).Str("url", rawURL).Msg("cache lookup failed")
        return nil, false
    }
    if a == nil {
        return nil, false
    }
    s.countAnalysis("cache", "ok")
    return &Result{URL: rawURL, Analysis: a, Cached: true, Grade: score.Grade(a.PrivacyScore)}, true
}

func (s *Service) analyze(ctx context.Context, rawURL string, doc policy.Document) (*Result, error) {
    if s.deps.Scorer == nil {
        return nil, score.ErrNotConfigured
    }
    text, err := s.ExtractDocument(doc)
    if err != nil {
        s.countAnalysis("model", "no_policy")
        return nil, err
    }
    if err := s.wait(ctx, rawURL); err != nil {
        return nil, err
    }
    start := time.Now()
    a, err := s.deps.Scorer.Score(ctx, text)
    if m := s.deps.Metrics; m != nil {
        m.AnalysisDuration.Observe(time.Since(start).Seconds())
    }
    if err != nil {
        s.countAnalysis("model", "error")
        return nil, fmt.Errorf("analyze %s: %w", rawURL, err)
    }
    s.countAnalysis("model", "ok")
    log.Info().Str("url", rawURL).Int("score", a.PrivacyScore).Str("risk", string(a.RiskLevel)).Dur("took", time.Since(start)).Msg("analysis complete")

    if err := s.CacheAnalysis(ctx, rawURL, a); err != nil {
        log.Warn().Err(err).Str("url", rawURL).Msg("cache write failed")
    }
    if err := s.IncrementAnalysisCount(ctx); err != nil {
        log.Warn().Err(err).Msg("stats update failed")
    }
    return &Result{URL: rawURL, Analysis: a, Grade: score.Grade(a.PrivacyScore)}, nil
}

func (s *Service) countAnalysis(source, status string) {
    if m := s.deps.Metrics; m != nil {
        m.AnalysesTotal.WithLabelValues(source, status).Inc()
    }
}

// wait blocks until the per-host limiter admits another analysis.
func (s *Service) wait(ctx context.Context, rawURL string) error {
    if s.deps.RateInterval <= 0 {
        return nil
    }
    host := rawURL
    if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
        host = strings.ToLower(u.Host)
    }
    s.mu.Lock()
    l, ok := s.limiters[host]
    if !ok {
        l = rate.NewLimiter(rate.Every(s.deps.RateInterval), 1)
        s.limiters[host] = l
    }
    s.mu.Unlock()
    return l.Wait(ctx)
}

// CachedAnalysis returns the fresh cached analysis for rawURL, or nil.
func (s *Service) CachedAnalysis(ctx context.Context, rawURL string) (*score.Analysis, error) {
    if s.deps.Cache == nil {
        return nil, nil
    }
    e, ok, err := s.deps.Cache.Get(ctx, rawURL)
    if err != nil || !ok {
        return nil, err
    }
    return e.Analysis, nil
}

// CacheAnalysis stores an analysis for rawURL after normalizing it.
func (s *Service) CacheAnalysis(ctx context.Context, rawURL string, a *score.Analysis) error {
    if a == nil {
        return errors.New("nil analysis")
    }
    if s.deps.Cache == nil {
        return nil
    }
    a.Normalize()
    return s.deps.Cache.Put(ctx, rawURL, a)
}

// IncrementAnalysisCount bumps the lifetime analysis counter.
func (s *Service) IncrementAnalysisCount(ctx context.Context) error {
    if s.deps.Stats == nil {
        return nil
    }
    return s.deps.Stats.IncrementAnalysisCount(ctx)
}

// Stats is the usage snapshot plus cache occupancy.
type Stats struct {
    stats.Snapshot
    CachedAnalyses int `json:"cachedAnalyses"`
    MemoryCache    int `json:"memoryCache"`
}

// Stats returns usage counters and cache sizes. A service without a stats
// store reports zero counters.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
    var out Stats
    if s.deps.Stats != nil {
        snap, err := s.deps.Stats.Snapshot(ctx)
        if err != nil {
            return out, err
        }
        out.Snapshot = snap
    }
    if s.deps.Cache != nil {
        n, err := s.deps.Cache.Len(ctx)
        if err != nil {
            return out, fmt.Errorf("count cache: %w", err)
        }
        out.CachedAnalyses = n
        if m, ok := s.deps.Cache.(interface{ MemoryLen() int }); ok {
            out.MemoryCache = m.MemoryLen()
        }
    }
    return out, nil
}

// PurgeExpired drops expired cache entries and refreshes the entries gauge.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
    if s.deps.Cache == nil {
        return 0, nil
    }
    n, err := s.deps.Cache.Purge(ctx)
    if err != nil {
        return n, err
    }
    if m := s.deps.Metrics; m != nil {
        if size, err := s.deps.Cache.Len(ctx); err == nil {
            m.CacheEntries.Set(float64(size))
        }
    }
    return n, nil
}

// RunJanitor purges expired entries every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
    if interval <= 0 {
        interval = purgeIntervalDefault
    }
    t := time.NewTicker(interval)
    defer t.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-t.C:
            n, err := s.PurgeExpired(ctx)
            if err != nil {
                log.Warn().Err(err).Msg("cache purge failed")
                continue
            }
            if n > 0 {
                log.Info().Int("removed", n).Msg("purged expired analyses")
            }
        }
    }
}
