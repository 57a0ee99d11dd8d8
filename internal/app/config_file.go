package app

import (
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "time"

    yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags/env.
type FileConfig struct {
    LLM struct {
        BaseURL string `yaml:"base" json:"base"`
        Model   string `yaml:"model" json:"model"`
        APIKey  string `yaml:"key" json:"key"`
    } `yaml:"llm" json:"llm"`

    Fetch struct {
        UserAgent  string   `yaml:"userAgent" json:"userAgent"`
        Timeout    Duration `yaml:"timeout" json:"timeout"`
        Render     bool     `yaml:"render" json:"render"`
        ChromePath string   `yaml:"chromePath" json:"chromePath"`
    } `yaml:"fetch" json:"fetch"`

    Cache struct {
        Dir         string   `yaml:"dir" json:"dir"`
        TTL         Duration `yaml:"ttl" json:"ttl"`
        Clear       bool     `yaml:"clear" json:"clear"`
        StrictPerms bool     `yaml:"strictPerms" json:"strictPerms"`
        RedisURL    string   `yaml:"redisURL" json:"redisURL"`
    } `yaml:"cache" json:"cache"`

    Stats struct {
        DB string `yaml:"db" json:"db"`
    } `yaml:"stats" json:"stats"`

    Server struct {
        Listen        string   `yaml:"listen" json:"listen"`
        PurgeInterval Duration `yaml:"purgeInterval" json:"purgeInterval"`
    } `yaml:"server" json:"server"`

    Rate struct {
        Interval Duration `yaml:"interval" json:"interval"`
    } `yaml:"rate" json:"rate"`

    Prompts struct {
        SystemPrompt     string `yaml:"systemPrompt" json:"systemPrompt"`
        SystemPromptFile string `yaml:"systemPromptFile" json:"systemPromptFile"`
    } `yaml:"prompts" json:"prompts"`

    Verbose bool `yaml:"verbose" json:"verbose"`
}

// Duration accepts "24h" style strings in YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
    var s string
    if err := node.Decode(&s); err != nil {
        return err
    }
    return d.parse(s)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
    var s string
    if err := json.Unmarshal(b, &s); err != nil {
        return err
    }
    return d.parse(s)
}

func (d *Duration) parse(s string) error {
    if s == "" {
        *d = 0
        return nil
    }
    v, err := time.ParseDuration(s)
    if err != nil {
        return fmt.Errorf("duration %q: %w", s, err)
    }
    *d = Duration(v)
    return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := filepath.Ext(path); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        // Try YAML then JSON
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for any fields that are
// still unset. Flags are parsed first, so explicit flags win.
func ApplyFileConfig(cfg *Config, fc FileConfig) error {
    if cfg == nil {
        return nil
    }
    if cfg.LLMBaseURL == "" { cfg.LLMBaseURL = fc.LLM.BaseURL }
    if cfg.LLMModel == "" { cfg.LLMModel = fc.LLM.Model }
    if cfg.LLMAPIKey == "" { cfg.LLMAPIKey = fc.LLM.APIKey }

    if cfg.UserAgent == "" { cfg.UserAgent = fc.Fetch.UserAgent }
    if cfg.FetchTimeout == 0 { cfg.FetchTimeout = time.Duration(fc.Fetch.Timeout) }
    if !cfg.Render && fc.Fetch.Render { cfg.Render = true }
    if cfg.ChromePath == "" { cfg.ChromePath = fc.Fetch.ChromePath }

    if (cfg.CacheDir == "" || cfg.CacheDir == cacheDirDefault) && fc.Cache.Dir != "" { cfg.CacheDir = fc.Cache.Dir }
    if cfg.CacheTTL == 0 { cfg.CacheTTL = time.Duration(fc.Cache.TTL) }
    if !cfg.CacheClear && fc.Cache.Clear { cfg.CacheClear = true }
    if !cfg.CacheStrictPerms && fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }
    if cfg.RedisURL == "" { cfg.RedisURL = fc.Cache.RedisURL }

    if cfg.StatsDB == "" { cfg.StatsDB = fc.Stats.DB }
    if cfg.ListenAddr == "" { cfg.ListenAddr = fc.Server.Listen }
    if cfg.PurgeInterval == 0 { cfg.PurgeInterval = time.Duration(fc.Server.PurgeInterval) }
    if cfg.RateInterval == 0 { cfg.RateInterval = time.Duration(fc.Rate.Interval) }
    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }

    if cfg.SystemPrompt == "" {
        cfg.SystemPrompt = fc.Prompts.SystemPrompt
        if fc.Prompts.SystemPromptFile != "" {
            b, err := os.ReadFile(fc.Prompts.SystemPromptFile)
            if err != nil {
                return fmt.Errorf("read system prompt: %w", err)
            }
            cfg.SystemPrompt = string(b)
        }
    }
    return nil
}
