package app

import (
    "context"
    "fmt"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/rs/zerolog/log"

    "github.com/hyperifyio/policyscan/internal/browser"
    "github.com/hyperifyio/policyscan/internal/cache"
    "github.com/hyperifyio/policyscan/internal/fetch"
    "github.com/hyperifyio/policyscan/internal/llm"
    "github.com/hyperifyio/policyscan/internal/metrics"
    "github.com/hyperifyio/policyscan/internal/score"
    "github.com/hyperifyio/policyscan/internal/stats"
)

// App owns the long-lived resources behind a Service.
type App struct {
    cfg     Config
    Service *Service
    Metrics *metrics.Metrics

    closers []func() error
}

// New builds the page source, scorer, cache and stats store described by
// cfg. Metrics are registered on reg when it is non-nil.
func New(ctx context.Context, cfg Config, reg prometheus.Registerer) (*App, error) {
    ApplyDefaults(&cfg)
    a := &App{cfg: cfg}
    if reg != nil {
        a.Metrics = metrics.New(reg)
    }

    deps := Deps{Metrics: a.Metrics, RateInterval: cfg.RateInterval}

    if cfg.Render {
        r := browser.NewRenderer(browser.Options{ExecPath: cfg.ChromePath, UserAgent: cfg.UserAgent, Timeout: cfg.FetchTimeout})
        a.closers = append(a.closers, func() error { r.Close(); return nil })
        deps.Source = r
    } else {
        deps.Source = &fetch.Client{
            HTTPClient:        newHTTPClient(cfg.FetchTimeout),
            UserAgent:         cfg.UserAgent,
            MaxAttempts:       2,
            PerRequestTimeout: cfg.FetchTimeout,
            RedirectMaxHops:   5,
            MaxConcurrent:     8,
        }
    }

    if cfg.LLMAPIKey != "" || cfg.LLMBaseURL != "" {
        provider := llm.NewOpenAIProvider(cfg.LLMAPIKey, cfg.LLMBaseURL, newHTTPClient(0))
        preflight(ctx, provider, cfg)
        deps.Scorer = &score.Scorer{Client: provider, Model: cfg.LLMModel, SystemPrompt: cfg.SystemPrompt}
    }

    store, err := a.openCache(ctx)
    if err != nil {
        a.Close()
        return nil, err
    }
    deps.Cache = store

    st, err := stats.Open(ctx, cfg.StatsDB)
    if err != nil {
        a.Close()
        return nil, err
    }
    a.closers = append(a.closers, st.Close)
    deps.Stats = st

    a.Service = NewService(deps)
    if _, err := a.Service.PurgeExpired(ctx); err != nil {
        log.Warn().Err(err).Msg("initial cache purge failed")
    }
    return a, nil
}

func (a *App) openCache(ctx context.Context) (cache.Store, error) {
    cfg := a.cfg
    if cfg.RedisURL != "" {
        rs, err := cache.NewRedisStoreFromURL(ctx, cfg.RedisURL, cfg.CacheTTL)
        if err != nil {
            return nil, fmt.Errorf("redis cache: %w", err)
        }
        a.closers = append(a.closers, rs.Close)
        log.Info().Msg("using redis analysis cache")
        return rs, nil
    }
    if cfg.CacheDir == "" {
        return &cache.TieredStore{TTL: cfg.CacheTTL}, nil
    }
    if cfg.CacheClear {
        if err := cache.ClearDir(cfg.CacheDir); err != nil {
            log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
        }
    }
    return &cache.TieredStore{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms, TTL: cfg.CacheTTL}, nil
}

// preflight lists models to surface bad credentials early. It never fails
// startup.
func preflight(ctx context.Context, provider *llm.OpenAIProvider, cfg Config) {
    if cfg.LLMBaseURL == "" && !llm.LooksLikeOpenAIKey(cfg.LLMAPIKey) {
        log.Warn().Msg("LLM key does not look like an OpenAI key")
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if llm.ValidateKey(ctx, provider) {
        log.Info().Str("model", cfg.LLMModel).Msg("LLM credentials accepted")
    } else {
        log.Warn().Msg("LLM model list failed; continuing")
    }
}

// Close releases resources in reverse order of creation.
func (a *App) Close() {
    for i := len(a.closers) - 1; i >= 0; i-- {
        if err := a.closers[i](); err != nil {
            log.Debug().Err(err).Msg("close")
        }
    }
    a.closers = nil
}
