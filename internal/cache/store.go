package cache

import (
    "context"
    "crypto/sha256"
    "encoding/hex"
    "time"

    "github.com/hyperifyio/policyscan/internal/score"
)

// DefaultTTL is how long an analysis stays fresh.
const DefaultTTL = 24 * time.Hour

// KeyPrefix namespaces analysis entries in shared storage.
const KeyPrefix = "analysis_"

// Entry is one cached analysis.
type Entry struct {
    Analysis  *score.Analysis `json:"analysis"`
    Timestamp time.Time       `json:"timestamp"`
    URL       string          `json:"url"`
}

// Expired reports whether the entry is older than ttl at now.
func (e *Entry) Expired(now time.Time, ttl time.Duration) bool {
    return ttl > 0 && now.Sub(e.Timestamp) > ttl
}

// Store caches analyses by page URL. Expired entries are never returned.
type Store interface {
    Get(ctx context.Context, url string) (*Entry, bool, error)
    Put(ctx context.Context, url string, analysis *score.Analysis) error
    Delete(ctx context.Context, url string) error
    // Purge removes expired entries and returns how many were dropped.
    Purge(ctx context.Context) (int, error)
    // Len counts stored entries, expired ones included until purged.
    Len(ctx context.Context) (int, error)
}

// KeyFrom builds the storage key for a page URL.
func KeyFrom(url string) string {
    h := sha256.Sum256([]byte(url))
    return KeyPrefix + hex.EncodeToString(h[:])
}

func ttlOrDefault(ttl time.Duration) time.Duration {
    if ttl == 0 {
        return DefaultTTL
    }
    return ttl
}
