package cache

import (
    "context"
    "os"
    "path/filepath"
    "testing"

    "github.com/hyperifyio/policyscan/internal/score"
)

func TestTieredStore_StrictPerms(t *testing.T) {
    t.Parallel()
    base := t.TempDir()
    dir := filepath.Join(base, "analyses")
    c := &TieredStore{Dir: dir, StrictPerms: true}
    url := "https://example.com/privacy"
    if err := c.Put(context.Background(), url, &score.Analysis{PrivacyScore: 1}); err != nil {
        t.Fatalf("put: %v", err)
    }
    info, err := os.Stat(dir)
    if err != nil {
        t.Fatalf("stat dir: %v", err)
    }
    if got := info.Mode() & 0o777; got != 0o700 {
        t.Fatalf("dir mode = %o, want 0700", got)
    }
    finfo, err := os.Stat(filepath.Join(dir, KeyFrom(url)+".json"))
    if err != nil {
        t.Fatalf("stat file: %v", err)
    }
    if got := finfo.Mode() & 0o777; got != 0o600 {
        t.Fatalf("file mode = %o, want 0600", got)
    }
}
