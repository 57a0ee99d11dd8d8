// Package browser renders pages in headless Chrome so policy text injected
// by scripts is visible to the extractor.
package browser

import (
    "context"
    "fmt"
    "net/url"
    "time"

    "github.com/chromedp/chromedp"
    "github.com/rs/zerolog/log"

    "github.com/hyperifyio/policyscan/internal/fetch"
)

const defaultTimeout = 30 * time.Second

// Renderer drives one headless browser process shared by all renders.
type Renderer struct {
    timeout  time.Duration
    allocCtx context.Context
    cancel   context.CancelFunc
}

// Options configure the browser process.
type Options struct {
    // ExecPath overrides the Chrome binary lookup.
    ExecPath  string
    UserAgent string
    // Timeout bounds one page render. Zero means 30s.
    Timeout time.Duration
}

// NewRenderer starts an allocator; the browser itself launches lazily on
// the first render.
func NewRenderer(o Options) *Renderer {
    opts := append(chromedp.DefaultExecAllocatorOptions[:],
        chromedp.Flag("headless", true),
        chromedp.Flag("disable-gpu", true),
        chromedp.Flag("no-sandbox", true),
        chromedp.Flag("disable-dev-shm-usage", true),
    )
    ua := o.UserAgent
    if ua == "" {
        ua = fetch.DefaultUserAgent
    }
    opts = append(opts, chromedp.UserAgent(ua))
    if o.ExecPath != "" {
        opts = append(opts, chromedp.ExecPath(o.ExecPath))
    }
    allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
    timeout := o.Timeout
    if timeout <= 0 {
        timeout = defaultTimeout
    }
    return &Renderer{timeout: timeout, allocCtx: allocCtx, cancel: cancel}
}

// Fetch navigates to rawURL, waits for the body, and returns the rendered
// document HTML and the final location.
func (r *Renderer) Fetch(ctx context.Context, rawURL string) (fetch.Page, error) {
    u, err := url.Parse(rawURL)
    if err != nil || !fetch.IsHTTPURL(u) {
        return fetch.Page{}, fmt.Errorf("%w: %q", fetch.ErrUnsupportedScheme, rawURL)
    }

    taskCtx, cancel := chromedp.NewContext(r.allocCtx)
    defer cancel()
    taskCtx, cancelTimeout := context.WithTimeout(taskCtx, r.timeout)
    defer cancelTimeout()
    stop := context.AfterFunc(ctx, cancel)
    defer stop()

    start := time.Now()
    var html, location string
    err = chromedp.Run(taskCtx,
        chromedp.Navigate(rawURL),
        chromedp.WaitReady("body", chromedp.ByQuery),
        chromedp.Location(&location),
        chromedp.OuterHTML("html", &html, chromedp.ByQuery),
    )
    if err != nil {
        if ctx.Err() != nil {
            return fetch.Page{}, ctx.Err()
        }
        return fetch.Page{}, fmt.Errorf("render %s: %w", rawURL, err)
    }
    log.Debug().Str("url", rawURL).Str("final", location).Dur("took", time.Since(start)).Msg("rendered page")
    if location == "" {
        location = rawURL
    }
    return fetch.Page{URL: location, ContentType: "text/html", Body: []byte(html)}, nil
}

// Close shuts the browser down.
func (r *Renderer) Close() {
    r.cancel()
}
