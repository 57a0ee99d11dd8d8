package main

import (
    "bufio"
    "context"
    "encoding/json"
    "errors"
    "flag"
    "fmt"
    "io"
    "net/http"
    "os"
    "os/signal"
    "path/filepath"
    "strings"
    "sync"
    "syscall"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
    "golang.org/x/sync/errgroup"

    "github.com/hyperifyio/policyscan/internal/api"
    "github.com/hyperifyio/policyscan/internal/app"
    "github.com/hyperifyio/policyscan/internal/extract"
    "github.com/hyperifyio/policyscan/internal/report"
    "github.com/hyperifyio/policyscan/internal/urlnorm"
)

const (
    modeDetect  = "detect"
    modeExtract = "extract"
    modeAnalyze = "analyze"
)

// options are the per-invocation settings that are not part of app.Config.
type options struct {
    URL         string
    File        string
    URLsFile    string
    Concurrency int
    Mode        string
    Force       bool
    PDFPath     string
    Serve       bool
}

func main() {
    // Logging setup
    zerolog.TimeFieldFormat = time.RFC3339
    log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

    var (
        opts             options
        cfg              app.Config
        serveAddr        string
        configPath       string
        envFiles         string
        systemPromptFile string
        showVersion      bool
    )

    flag.StringVar(&opts.URL, "url", "", "Page URL to check, extract or analyze (with -file: the address of the local page)")
    flag.StringVar(&opts.File, "file", "", "Read the page from a local HTML file instead of fetching it")
    flag.StringVar(&opts.URLsFile, "urls", "", "File with one URL per line to process in batch")
    flag.IntVar(&opts.Concurrency, "concurrency", 4, "Parallel pages in batch mode")
    flag.StringVar(&opts.Mode, "mode", modeDetect, "What to do: detect, extract or analyze")
    flag.BoolVar(&opts.Force, "force", false, "Ignore cached analyses")
    flag.StringVar(&opts.PDFPath, "pdf", "", "Also write the analysis report as PDF to this path")
    flag.StringVar(&serveAddr, "serve", "", "Run the HTTP API on this address (e.g. :8080)")

    flag.BoolVar(&cfg.Render, "render", false, "Render pages in headless Chrome before detection")
    flag.StringVar(&cfg.ChromePath, "chrome.path", "", "Chrome binary for -render")
    flag.StringVar(&cfg.UserAgent, "ua", "", "User-Agent for page requests")
    flag.DurationVar(&cfg.FetchTimeout, "fetch.timeout", 0, "Per-page fetch timeout (default 20s)")
    flag.StringVar(&cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
    flag.StringVar(&cfg.LLMModel, "llm.model", "", "Model name (default gpt-4o)")
    flag.StringVar(&cfg.LLMAPIKey, "llm.key", "", "API key for the model endpoint")
    flag.StringVar(&cfg.SystemPrompt, "llm.systemPrompt", "", "Override the analysis system prompt (inline string)")
    flag.StringVar(&systemPromptFile, "llm.systemPromptFile", "", "Path to file containing the analysis system prompt")
    flag.StringVar(&cfg.CacheDir, "cache.dir", "", "Analysis cache directory; empty keeps the cache in memory")
    flag.DurationVar(&cfg.CacheTTL, "cache.ttl", 0, "Cached analysis lifetime (default 24h)")
    flag.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear cache directory before run")
    flag.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
    flag.StringVar(&cfg.RedisURL, "redis.url", "", "Use Redis for the analysis cache (redis://host:6379/0)")
    flag.StringVar(&cfg.StatsDB, "stats.db", "", "SQLite file for usage statistics (default in-memory)")
    flag.DurationVar(&cfg.RateInterval, "rate.interval", 0, "Minimum spacing between analyses of one host (default 1s)")
    flag.StringVar(&configPath, "config", "", "YAML or JSON config file")
    flag.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load")
    flag.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
    flag.BoolVar(&showVersion, "version", false, "Print version and exit")
    flag.Parse()

    if showVersion {
        fmt.Printf("policyscan %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
        return
    }

    if err := app.LoadEnvFiles(strings.Split(envFiles, ",")...); err != nil {
        log.Fatal().Err(err).Msg("load env files")
    }
    if strings.TrimSpace(systemPromptFile) != "" {
        b, err := os.ReadFile(systemPromptFile)
        if err != nil {
            log.Fatal().Err(err).Msg("read system prompt")
        }
        cfg.SystemPrompt = string(b)
    }
    if configPath != "" {
        fc, err := app.LoadConfigFile(configPath)
        if err != nil {
            log.Fatal().Err(err).Str("path", configPath).Msg("load config")
        }
        if err := app.ApplyFileConfig(&cfg, fc); err != nil {
            log.Fatal().Err(err).Msg("apply config")
        }
    }
    app.ApplyEnvToConfig(&cfg)
    if serveAddr != "" {
        opts.Serve = true
        cfg.ListenAddr = serveAddr
    }

    if cfg.Verbose {
        zerolog.SetGlobalLevel(zerolog.DebugLevel)
    } else {
        zerolog.SetGlobalLevel(zerolog.InfoLevel)
    }

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    if err := run(ctx, cfg, opts, os.Stdout); err != nil {
        log.Error().Err(err).Msg("run failed")
        stop()
        os.Exit(1)
    }
}

func validateOptions(cfg app.Config, opts options) error {
    switch opts.Mode {
    case modeDetect, modeExtract, modeAnalyze:
    default:
        return fmt.Errorf("unknown -mode %q (want detect, extract or analyze)", opts.Mode)
    }
    if !opts.Serve && opts.URL == "" && opts.File == "" && opts.URLsFile == "" {
        return errors.New("one of -url, -file, -urls or -serve is required")
    }
    if opts.PDFPath != "" && (opts.Mode != modeAnalyze || opts.URLsFile != "") {
        return errors.New("-pdf needs -mode analyze on a single page")
    }
    return app.ValidateConfig(cfg, opts.Serve || opts.Mode == modeAnalyze)
}

func run(ctx context.Context, cfg app.Config, opts options, out io.Writer) error {
    app.ApplyDefaults(&cfg)
    if err := validateOptions(cfg, opts); err != nil {
        return err
    }
    reg := prometheus.NewRegistry()
    a, err := app.New(ctx, cfg, reg)
    if err != nil {
        return fmt.Errorf("init app: %w", err)
    }
    defer a.Close()

    switch {
    case opts.Serve:
        reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
        return serve(ctx, a, cfg, reg)
    case opts.URLsFile != "":
        return runBatch(ctx, a.Service, opts, out)
    case opts.File != "":
        return runFile(ctx, a.Service, opts, out)
    default:
        return runOne(ctx, a.Service, opts, out)
    }
}

func serve(ctx context.Context, a *app.App, cfg app.Config, reg *prometheus.Registry) error {
    srv := &http.Server{
        Addr:              cfg.ListenAddr,
        Handler:           api.NewServer(a.Service, a.Metrics, reg),
        ReadHeaderTimeout: 10 * time.Second,
    }
    go a.Service.RunJanitor(ctx, cfg.PurgeInterval)

    errCh := make(chan error, 1)
    go func() {
        log.Info().Str("addr", cfg.ListenAddr).Str("version", app.BuildVersion).Msg("listening")
        errCh <- srv.ListenAndServe()
    }()
    select {
    case err := <-errCh:
        if errors.Is(err, http.ErrServerClosed) {
            return nil
        }
        return err
    case <-ctx.Done():
    }
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    log.Info().Msg("shutting down")
    return srv.Shutdown(shutdownCtx)
}

func runOne(ctx context.Context, svc *app.Service, opts options, out io.Writer) error {
    switch opts.Mode {
    case modeDetect:
        ok, err := svc.Check(ctx, opts.URL)
        if err != nil {
            return err
        }
        _, err = fmt.Fprintln(out, ok)
        return err
    case modeExtract:
        text, err := svc.Extract(ctx, opts.URL)
        if err != nil {
            return err
        }
        _, err = fmt.Fprintln(out, text)
        return err
    }
    res, err := svc.Analyze(ctx, opts.URL, opts.Force)
    if err != nil {
        return err
    }
    return writeAnalysis(res, opts, out)
}

// runFile processes a saved page. -url, when given, stands in for the
// page address; otherwise the file path does.
func runFile(ctx context.Context, svc *app.Service, opts options, out io.Writer) error {
    f, err := os.Open(opts.File)
    if err != nil {
        return err
    }
    defer f.Close()
    pageURL := opts.URL
    if pageURL == "" {
        abs, err := filepath.Abs(opts.File)
        if err != nil {
            return err
        }
        pageURL = "file://" + filepath.ToSlash(abs)
    }
    doc, err := extract.ParseReader(pageURL, f)
    if err != nil {
        return fmt.Errorf("parse %s: %w", opts.File, err)
    }
    switch opts.Mode {
    case modeDetect:
        _, err = fmt.Fprintln(out, svc.CheckDocument(doc))
        return err
    case modeExtract:
        text, err := svc.ExtractDocument(doc)
        if err != nil {
            return err
        }
        _, err = fmt.Fprintln(out, text)
        return err
    }
    res, err := svc.AnalyzeDocument(ctx, pageURL, doc, opts.Force)
    if err != nil {
        return err
    }
    return writeAnalysis(res, opts, out)
}

func writeAnalysis(res *app.Result, opts options, out io.Writer) error {
    if res.Cached {
        log.Info().Str("url", res.URL).Msg("served from cache")
    }
    if _, err := io.WriteString(out, report.Text(res.Analysis)); err != nil {
        return err
    }
    if opts.PDFPath == "" {
        return nil
    }
    f, err := os.Create(opts.PDFPath)
    if err != nil {
        return err
    }
    if err := report.WritePDF(f, report.Markdown(res.URL, res.Analysis)); err != nil {
        _ = f.Close()
        return fmt.Errorf("write pdf: %w", err)
    }
    log.Info().Str("out", opts.PDFPath).Msg("wrote PDF report")
    return f.Close()
}

// batchLine is one JSON line of batch output.
type batchLine struct {
    URL            string `json:"url"`
    PolicyDetected *bool  `json:"policyDetected,omitempty"`
    Content        string `json:"content,omitempty"`
    *app.Result
    Error string `json:"error,omitempty"`
}

func readURLs(path string) ([]string, error) {
    f, err := os.Open(path)
    if err != nil {
        return nil, err
    }
    defer f.Close()
    var urls []string
    sc := bufio.NewScanner(f)
    for sc.Scan() {
        s := strings.TrimSpace(sc.Text())
        if s == "" || strings.HasPrefix(s, "#") {
            continue
        }
        urls = append(urls, s)
    }
    return urls, sc.Err()
}

// runBatch processes every URL with bounded parallelism. Per-page failures
// are reported in the output and do not stop the batch.
func runBatch(ctx context.Context, svc *app.Service, opts options, out io.Writer) error {
    urls, err := readURLs(opts.URLsFile)
    if err != nil {
        return fmt.Errorf("read urls: %w", err)
    }
    if deduped := urlnorm.Dedupe(urls); len(deduped) < len(urls) {
        log.Info().Int("dropped", len(urls)-len(deduped)).Msg("skipping duplicate urls")
        urls = deduped
    }
    limit := opts.Concurrency
    if limit <= 0 {
        limit = 1
    }
    var (
        mu  sync.Mutex
        enc = json.NewEncoder(out)
    )
    g, gctx := errgroup.WithContext(ctx)
    g.SetLimit(limit)
    for _, u := range urls {
        g.Go(func() error {
            line := processBatchURL(gctx, svc, opts, u)
            mu.Lock()
            defer mu.Unlock()
            return enc.Encode(line)
        })
    }
    if err := g.Wait(); err != nil {
        return err
    }
    log.Info().Int("urls", len(urls)).Msg("batch complete")
    return nil
}

func processBatchURL(ctx context.Context, svc *app.Service, opts options, u string) batchLine {
    line := batchLine{URL: u}
    var err error
    switch opts.Mode {
    case modeDetect:
        var ok bool
        if ok, err = svc.Check(ctx, u); err == nil {
            line.PolicyDetected = &ok
        }
    case modeExtract:
        line.Content, err = svc.Extract(ctx, u)
    default:
        line.Result, err = svc.Analyze(ctx, u, opts.Force)
    }
    if err != nil {
        log.Warn().Err(err).Str("url", u).Msg("page failed")
        line.Error = err.Error()
    }
    return line
}
