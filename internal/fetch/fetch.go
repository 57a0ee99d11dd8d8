package fetch

import (
    "context"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strings"
    "sync"
    "time"
)

// DefaultUserAgent identifies policyscan to the sites it reads.
const DefaultUserAgent = "policyscan/1.0 (+https://github.com/hyperifyio/policyscan)"

// defaultMaxBytes caps a page body at 8 MiB.
const defaultMaxBytes = 8 << 20

// ErrUnsupportedScheme is returned for anything other than http and https.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// Page is a fetched HTML document.
type Page struct {
    // URL is the final address after redirects.
    URL         string
    ContentType string
    Body        []byte
}

// Client wraps http.Client and provides timeouts and limited retry on transient errors.
type Client struct {
    HTTPClient *http.Client
    UserAgent  string
    // MaxAttempts includes the initial attempt. Minimum 1.
    MaxAttempts int
    // PerRequestTimeout bounds each request.
    PerRequestTimeout time.Duration
    // MaxBytes bounds the body size. Zero means 8 MiB.
    MaxBytes int64

    // RedirectMaxHops caps redirect following to avoid loops. Zero means default (5).
    RedirectMaxHops int
    // MaxConcurrent limits concurrent in-flight requests per client instance.
    // Zero means unlimited.
    MaxConcurrent int

    // internal limiter initialized on first use when MaxConcurrent > 0
    limiter     chan struct{}
    limiterOnce sync.Once
}

func (c *Client) getHTTPClient() *http.Client {
    if c.HTTPClient != nil {
        // Clone to attach our redirect policy without mutating caller's client
        base := *c.HTTPClient
        base.CheckRedirect = c.checkRedirectFunc()
        return &base
    }
    return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Fetch issues a GET with context, user-agent, and bounded retry for
// transient errors.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Page, error) {
    attempts := c.MaxAttempts
    if attempts <= 0 {
        attempts = 1
    }
    var lastErr error
    for i := 0; i < attempts; i++ {
        page, err := c.tryOnce(ctx, rawURL)
        if err == nil {
            return page, nil
        }
        if !isTransient(err) || i == attempts-1 {
            return Page{}, err
        }
        lastErr = err
        select {
        case <-ctx.Done():
            return Page{}, ctx.Err()
        case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
        }
    }
    if lastErr == nil {
        lastErr = errors.New("unknown error")
    }
    return Page{}, lastErr
}

type statusError struct {
    code int
}

func (e *statusError) Error() string {
    if e.code >= 500 {
        return fmt.Sprintf("server error: %d", e.code)
    }
    return fmt.Sprintf("unexpected status: %d", e.code)
}

func (c *Client) tryOnce(ctx context.Context, rawURL string) (Page, error) {
    // Concurrency gate per client instance
    c.acquire()
    defer c.release()

    if c.PerRequestTimeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
        defer cancel()
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
    if err != nil {
        return Page{}, fmt.Errorf("new request: %w", err)
    }
    if !IsHTTPURL(req.URL) {
        return Page{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, req.URL.String())
    }
    ua := c.UserAgent
    if ua == "" {
        ua = DefaultUserAgent
    }
    req.Header.Set("User-Agent", ua)
    req.Header.Set("Accept", "text/html,application/xhtml+xml")

    resp, err := c.getHTTPClient().Do(req)
    if err != nil {
        return Page{}, err
    }
    defer resp.Body.Close()

    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        return Page{}, &statusError{code: resp.StatusCode}
    }
    contentType := resp.Header.Get("Content-Type")
    if !isAllowedHTMLContentType(contentType) {
        return Page{}, fmt.Errorf("unsupported content type: %s", contentType)
    }
    limit := c.MaxBytes
    if limit <= 0 {
        limit = defaultMaxBytes
    }
    b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
    if err != nil {
        return Page{}, fmt.Errorf("read body: %w", err)
    }
    final := rawURL
    if resp.Request != nil && resp.Request.URL != nil {
        final = resp.Request.URL.String()
    }
    return Page{URL: final, ContentType: contentType, Body: b}, nil
}

func isTransient(err error) bool {
    // Treat HTTP 5xx and context deadline as transient.
    if errors.Is(err, context.DeadlineExceeded) {
        return true
    }
    var se *statusError
    return errors.As(err, &se) && se.code >= 500
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
    max := c.RedirectMaxHops
    if max <= 0 {
        max = 5
    }
    return func(req *http.Request, via []*http.Request) error {
        if len(via) >= max {
            return errors.New("too many redirects")
        }
        // Only allow http/https during redirects
        if !IsHTTPURL(req.URL) {
            return errors.New("redirect to unsupported scheme")
        }
        return nil
    }
}

// IsHTTPURL reports whether u is an http or https URL.
func IsHTTPURL(u *url.URL) bool {
    if u == nil {
        return false
    }
    scheme := strings.ToLower(u.Scheme)
    return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
    ct = strings.ToLower(strings.TrimSpace(ct))
    // allow text/html variants and application/xhtml+xml
    return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func (c *Client) acquire() {
    if c.MaxConcurrent <= 0 {
        return
    }
    c.limiterOnce.Do(func() {
        c.limiter = make(chan struct{}, c.MaxConcurrent)
    })
    c.limiter <- struct{}{}
}

func (c *Client) release() {
    if c.MaxConcurrent <= 0 || c.limiter == nil {
        return
    }
    select {
    case <-c.limiter:
    default:
    }
}
