package urlnorm

import (
    "net/url"
    "strings"
)

var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid", "mc_cid", "mc_eid"}

// Canonical lowercases scheme and host, drops the fragment and common
// tracking parameters. Remaining query parameters are sorted.
func Canonical(raw string) (string, error) {
    u, err := url.Parse(strings.TrimSpace(raw))
    if err != nil {
        return "", err
    }
    u.Fragment = ""
    u.RawFragment = ""
    u.Scheme = strings.ToLower(u.Scheme)
    u.Host = strings.ToLower(u.Host)
    if u.RawQuery != "" {
        q := u.Query()
        for _, p := range trackingParams {
            q.Del(p)
        }
        u.RawQuery = q.Encode()
    }
    return u.String(), nil
}

// Dedupe keeps the first occurrence of each canonical URL, preserving
// order. Unparseable entries are kept as given so callers can report them.
func Dedupe(urls []string) []string {
    seen := make(map[string]struct{}, len(urls))
    out := make([]string, 0, len(urls))
    for _, raw := range urls {
        key, err := Canonical(raw)
        if err != nil {
            out = append(out, raw)
            continue
        }
        if _, ok := seen[key]; ok {
            continue
        }
        seen[key] = struct{}{}
        out = append(out, key)
    }
    return out
}
