package app

import (
    "errors"
    "os"
    "strings"
    "time"
)

// Config holds runtime configuration for the application.
type Config struct {
    // Page sources
    UserAgent    string
    FetchTimeout time.Duration
    // Render pages in headless Chrome instead of a plain GET.
    Render     bool
    ChromePath string

    // LLM
    LLMBaseURL   string
    LLMModel     string
    LLMAPIKey    string
    SystemPrompt string

    // Cache
    CacheDir         string
    CacheTTL         time.Duration
    CacheClear       bool
    CacheStrictPerms bool
    // RedisURL, when set, replaces the on-disk cache with Redis.
    RedisURL string

    // Stats database path; ":memory:" when empty.
    StatsDB string

    // RateInterval spaces model-backed analyses per host.
    RateInterval time.Duration

    // Server
    ListenAddr     string
    PurgeInterval  time.Duration

    Verbose bool
}

const (
    userAgentDefault     = "policyscan/1.0 (+https://github.com/hyperifyio/policyscan)"
    cacheDirDefault      = ".policyscan-cache"
    listenAddrDefault    = ":8080"
    fetchTimeoutDefault  = 20 * time.Second
    rateIntervalDefault  = time.Second
    purgeIntervalDefault = time.Hour
    modelDefault         = "gpt-4o"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
    if cfg == nil {
        return
    }
    setIfEmpty(&cfg.LLMBaseURL, "LLM_BASE_URL")
    setIfEmpty(&cfg.LLMModel, "LLM_MODEL")
    setIfEmpty(&cfg.LLMAPIKey, "LLM_API_KEY", "OPENAI_API_KEY")
    setIfEmpty(&cfg.CacheDir, "CACHE_DIR")
    setIfEmpty(&cfg.RedisURL, "REDIS_URL")
    setIfEmpty(&cfg.StatsDB, "STATS_DB")
    setIfEmpty(&cfg.ListenAddr, "LISTEN_ADDR")
    setIfEmpty(&cfg.ChromePath, "CHROME_PATH")
    if cfg.CacheTTL == 0 {
        if d, err := time.ParseDuration(strings.TrimSpace(os.Getenv("CACHE_TTL"))); err == nil && d > 0 {
            cfg.CacheTTL = d
        }
    }
}

func setIfEmpty(dst *string, keys ...string) {
    if *dst != "" {
        return
    }
    for _, k := range keys {
        if v := strings.TrimSpace(os.Getenv(k)); v != "" {
            *dst = v
            return
        }
    }
}

// ApplyDefaults fills zero values with the built-in defaults.
func ApplyDefaults(cfg *Config) {
    if cfg.UserAgent == "" {
        cfg.UserAgent = userAgentDefault
    }
    if cfg.FetchTimeout == 0 {
        cfg.FetchTimeout = fetchTimeoutDefault
    }
    if cfg.LLMModel == "" {
        cfg.LLMModel = modelDefault
    }
    if cfg.RateInterval == 0 {
        cfg.RateInterval = rateIntervalDefault
    }
    if cfg.ListenAddr == "" {
        cfg.ListenAddr = listenAddrDefault
    }
    if cfg.PurgeInterval == 0 {
        cfg.PurgeInterval = purgeIntervalDefault
    }
}

// ValidateConfig performs minimal validation for required settings. The
// model key is only needed when analyses will be requested.
func ValidateConfig(cfg Config, needLLM bool) error {
    if needLLM && strings.TrimSpace(cfg.LLMAPIKey) == "" && strings.TrimSpace(cfg.LLMBaseURL) == "" {
        return errors.New("config: llm.key is required (or set LLM_API_KEY)")
    }
    if needLLM && strings.TrimSpace(cfg.LLMModel) == "" {
        return errors.New("config: llm.model is required (or set LLM_MODEL)")
    }
    if cfg.CacheTTL < 0 && cfg.RedisURL != "" {
        return errors.New("config: cache.ttl cannot disable expiry with redis")
    }
    if cfg.FetchTimeout < 0 || cfg.RateInterval < 0 {
        return errors.New("config: negative durations are not allowed")
    }
    return nil
}
