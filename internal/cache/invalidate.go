package cache

import (
    "encoding/json"
    "errors"
    "io/fs"
    "os"
    "path/filepath"
    "strings"
    "time"
)

// ClearDir removes the directory and all contents. It recreates the directory
// afterwards to leave a valid empty cache location.
func ClearDir(dir string) error {
    if strings.TrimSpace(dir) == "" {
        return errors.New("empty dir")
    }
    if err := os.RemoveAll(dir); err != nil {
        return err
    }
    return os.MkdirAll(dir, 0o755)
}

// PurgeDirByAge removes analysis files whose stored timestamp is older than
// maxAge at now. Unreadable or malformed entries are removed too.
func PurgeDirByAge(dir string, maxAge time.Duration, now time.Time) (int, error) {
    if maxAge <= 0 {
        return 0, nil
    }
    removed := 0
    err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
        if err != nil {
            if errors.Is(err, fs.ErrNotExist) {
                return nil
            }
            return err
        }
        if d.IsDir() {
            return nil
        }
        name := d.Name()
        if !strings.HasPrefix(name, KeyPrefix) || !strings.HasSuffix(name, ".json") {
            return nil
        }
        b, err := os.ReadFile(path)
        if err != nil {
            return nil
        }
        var e Entry
        if err := json.Unmarshal(b, &e); err == nil && !e.Expired(now, maxAge) {
            return nil
        }
        removed++
        _ = os.Remove(path)
        return nil
    })
    return removed, err
}
