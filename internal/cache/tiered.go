package cache

import (
    "context"
    "encoding/json"
    "errors"
    "os"
    "path/filepath"
    "sync"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/hyperifyio/policyscan/internal/score"
)

// TieredStore keeps analyses in memory in front of a directory of JSON
// files, so results survive restarts. With an empty Dir it is memory only.
type TieredStore struct {
    Dir string
    // StrictPerms, when true, enforces 0700 on the cache directory and 0600
    // on files.
    StrictPerms bool
    // TTL defaults to DefaultTTL; negative disables expiry.
    TTL time.Duration
    // Now is the clock, time.Now when nil.
    Now func() time.Time

    mu  sync.RWMutex
    mem map[string]*Entry
}

var _ Store = (*TieredStore)(nil)

func (c *TieredStore) now() time.Time {
    if c.Now != nil {
        return c.Now()
    }
    return time.Now()
}

func (c *TieredStore) ensureDir() error {
    perm := os.FileMode(0o755)
    if c.StrictPerms {
        perm = 0o700
    }
    if err := os.MkdirAll(c.Dir, perm); err != nil {
        return err
    }
    if c.StrictPerms {
        if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
            _ = os.Chmod(c.Dir, 0o700)
        }
    }
    return nil
}

func (c *TieredStore) pathFor(key string) string {
    return filepath.Join(c.Dir, key+".json")
}

// Get returns a fresh entry from memory, then disk. Expired entries are
// removed on read.
func (c *TieredStore) Get(ctx context.Context, url string) (*Entry, bool, error) {
    key := KeyFrom(url)
    c.mu.RLock()
    e, ok := c.mem[key]
    c.mu.RUnlock()

    if !ok && c.Dir != "" {
        b, err := os.ReadFile(c.pathFor(key))
        if err != nil {
            if errors.Is(err, os.ErrNotExist) {
                return nil, false, nil
            }
            return nil, false, err
        }
        var disk Entry
        if err := json.Unmarshal(b, &disk); err != nil {
            log.Warn().Err(err).Str("url", url).Msg("dropping unreadable cache entry")
            _ = os.Remove(c.pathFor(key))
            return nil, false, nil
        }
        e, ok = &disk, true
        c.remember(key, e)
    }
    if !ok {
        return nil, false, nil
    }
    if e.Expired(c.now(), ttlOrDefault(c.TTL)) {
        if err := c.Delete(ctx, url); err != nil {
            return nil, false, err
        }
        return nil, false, nil
    }
    return e, true, nil
}

// Put stores analysis for url stamped with the current time.
func (c *TieredStore) Put(_ context.Context, url string, analysis *score.Analysis) error {
    key := KeyFrom(url)
    e := &Entry{Analysis: analysis, Timestamp: c.now().UTC(), URL: url}
    c.remember(key, e)
    if c.Dir == "" {
        return nil
    }
    if err := c.ensureDir(); err != nil {
        return err
    }
    b, err := json.Marshal(e)
    if err != nil {
        return err
    }
    mode := os.FileMode(0o644)
    if c.StrictPerms {
        mode = 0o600
    }
    tmp := c.pathFor(key) + ".tmp"
    if err := os.WriteFile(tmp, b, mode); err != nil {
        return err
    }
    return os.Rename(tmp, c.pathFor(key))
}

func (c *TieredStore) Delete(_ context.Context, url string) error {
    key := KeyFrom(url)
    c.mu.Lock()
    delete(c.mem, key)
    c.mu.Unlock()
    if c.Dir == "" {
        return nil
    }
    if err := os.Remove(c.pathFor(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
        return err
    }
    return nil
}

// Purge drops expired entries from memory and disk.
func (c *TieredStore) Purge(_ context.Context) (int, error) {
    ttl := ttlOrDefault(c.TTL)
    if ttl < 0 {
        return 0, nil
    }
    now := c.now()
    removed := 0
    c.mu.Lock()
    for k, e := range c.mem {
        if e.Expired(now, ttl) {
            delete(c.mem, k)
            if c.Dir == "" {
                removed++
            }
        }
    }
    c.mu.Unlock()
    if c.Dir == "" {
        return removed, nil
    }
    return PurgeDirByAge(c.Dir, ttl, now)
}

// Len counts entries on disk, or in memory when there is no directory.
func (c *TieredStore) Len(_ context.Context) (int, error) {
    if c.Dir == "" {
        return c.MemoryLen(), nil
    }
    matches, err := filepath.Glob(filepath.Join(c.Dir, KeyPrefix+"*.json"))
    if err != nil {
        return 0, err
    }
    return len(matches), nil
}

// MemoryLen reports how many entries sit in the in-memory tier.
func (c *TieredStore) MemoryLen() int {
    c.mu.RLock()
    defer c.mu.RUnlock()
    return len(c.mem)
}

func (c *TieredStore) remember(key string, e *Entry) {
    c.mu.Lock()
    if c.mem == nil {
        c.mem = make(map[string]*Entry)
    }
    c.mem[key] = e
    c.mu.Unlock()
}
