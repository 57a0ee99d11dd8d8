package app

import (
    "os"
    "path/filepath"
    "testing"
    "time"
)

// Intent: Implements FEATURE_CHECKLIST.md item "Environment & secrets handling — .env support".
// This test verifies that LoadEnvFiles reads KEY=VALUE pairs and populates os.Environ.
func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
    t.Setenv("FOO", "")
    t.Setenv("BAR", "")

    dir := t.TempDir()
    envPath := filepath.Join(dir, ".env.test")
    content := "\n# sample dotenv file\nFOO=alpha\nBAR=beta\n"
    if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
        t.Fatalf("write dotenv: %v", err)
    }

    if err := LoadEnvFiles(envPath); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }

    if got := os.Getenv("FOO"); got != "alpha" {
        t.Fatalf("FOO=%q, want alpha", got)
    }
    if got := os.Getenv("BAR"); got != "beta" {
        t.Fatalf("BAR=%q, want beta", got)
    }
}

// Later files override earlier ones when loading multiple dotenv files.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
    t.Setenv("K", "")
    dir := t.TempDir()
    a := filepath.Join(dir, ".env.a")
    b := filepath.Join(dir, ".env.b")
    if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil { t.Fatalf("write a: %v", err) }
    if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil { t.Fatalf("write b: %v", err) }

    if err := LoadEnvFiles(a, b); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }
    if got := os.Getenv("K"); got != "second" {
        t.Fatalf("override order failed: got %q, want second", got)
    }
}

// Values already present in the real environment are not replaced.
func TestLoadEnvFiles_RealEnvWins(t *testing.T) {
    t.Setenv("K", "from-env")
    dir := t.TempDir()
    a := filepath.Join(dir, ".env")
    if err := os.WriteFile(a, []byte("K=from-file\n"), 0o600); err != nil { t.Fatalf("write: %v", err) }
    if err := LoadEnvFiles(a, filepath.Join(dir, "missing.env")); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }
    if got := os.Getenv("K"); got != "from-env" {
        t.Fatalf("K=%q, want from-env", got)
    }
}

// Verify ApplyEnvToConfig reads key settings from environment, including the
// OPENAI_API_KEY fallback and CACHE_TTL parsing.
func TestApplyEnvToConfig_FromEnv(t *testing.T) {
    t.Setenv("LLM_API_KEY", "")
    t.Setenv("OPENAI_API_KEY", "sk-test")
    t.Setenv("CACHE_DIR", "/tmp/policyscan-cache")
    t.Setenv("REDIS_URL", "redis://localhost:6379/0")
    t.Setenv("CACHE_TTL", "2h")

    var cfg Config
    ApplyEnvToConfig(&cfg)
    if cfg.LLMAPIKey != "sk-test" {
        t.Fatalf("LLMAPIKey=%q, want fallback from OPENAI_API_KEY", cfg.LLMAPIKey)
    }
    if cfg.CacheDir != "/tmp/policyscan-cache" {
        t.Fatalf("CacheDir=%q, want /tmp/policyscan-cache", cfg.CacheDir)
    }
    if cfg.RedisURL != "redis://localhost:6379/0" {
        t.Fatalf("RedisURL=%q", cfg.RedisURL)
    }
    if cfg.CacheTTL != 2*time.Hour {
        t.Fatalf("CacheTTL=%v, want 2h", cfg.CacheTTL)
    }
}

// Explicit values are never replaced by env.
func TestApplyEnvToConfig_ExplicitWins(t *testing.T) {
    t.Setenv("LLM_MODEL", "gpt-4o-mini")
    cfg := Config{LLMModel: "custom"}
    ApplyEnvToConfig(&cfg)
    if cfg.LLMModel != "custom" {
        t.Fatalf("LLMModel=%q, want custom", cfg.LLMModel)
    }
}
