package cache

import (
    "context"
    "encoding/json"
    "errors"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/hyperifyio/policyscan/internal/score"
)

// RedisStore keeps analyses in Redis with a key expiry, so several
// instances share one cache.
type RedisStore struct {
    client *redis.Client
    ttl    time.Duration
    now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps client. A zero ttl means DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
    return &RedisStore{client: client, ttl: ttlOrDefault(ttl), now: time.Now}
}

// NewRedisStoreFromURL parses a redis:// URL and pings the server.
func NewRedisStoreFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
    opts, err := redis.ParseURL(url)
    if err != nil {
        return nil, err
    }
    client := redis.NewClient(opts)
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil, err
    }
    return NewRedisStore(client, ttl), nil
}

func (r *RedisStore) Get(ctx context.Context, url string) (*Entry, bool, error) {
    b, err := r.client.Get(ctx, KeyFrom(url)).Bytes()
    if errors.Is(err, redis.Nil) {
        return nil, false, nil
    }
    if err != nil {
        return nil, false, err
    }
    var e Entry
    if err := json.Unmarshal(b, &e); err != nil {
        return nil, false, r.Delete(ctx, url)
    }
    if e.Expired(r.now(), r.ttl) {
        return nil, false, r.Delete(ctx, url)
    }
    return &e, true, nil
}

// Put stores analysis with SET EX so Redis expires it on its own.
func (r *RedisStore) Put(ctx context.Context, url string, analysis *score.Analysis) error {
    e := Entry{Analysis: analysis, Timestamp: r.now().UTC(), URL: url}
    b, err := json.Marshal(e)
    if err != nil {
        return err
    }
    exp := r.ttl
    if exp < 0 {
        exp = 0
    }
    return r.client.Set(ctx, KeyFrom(url), b, exp).Err()
}

func (r *RedisStore) Delete(ctx context.Context, url string) error {
    return r.client.Del(ctx, KeyFrom(url)).Err()
}

// Purge is a no-op; Redis evicts expired keys itself.
func (r *RedisStore) Purge(context.Context) (int, error) { return 0, nil }

func (r *RedisStore) Len(ctx context.Context) (int, error) {
    n := 0
    iter := r.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
    for iter.Next(ctx) {
        n++
    }
    return n, iter.Err()
}

func (r *RedisStore) Close() error {
    return r.client.Close()
}
