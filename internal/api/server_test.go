package api

import (
    "context"
    "encoding/json"
    "errors"
    "io"
    "net/http"
    "net/http/httptest"
    "net/url"
    "strings"
    "testing"

    "github.com/prometheus/client_golang/prometheus"

    "github.com/hyperifyio/policyscan/internal/app"
    "github.com/hyperifyio/policyscan/internal/cache"
    "github.com/hyperifyio/policyscan/internal/fetch"
    "github.com/hyperifyio/policyscan/internal/metrics"
    "github.com/hyperifyio/policyscan/internal/score"
    "github.com/hyperifyio/policyscan/internal/stats"
)

type pages map[string]string

func (p pages) Fetch(_ context.Context, rawURL string) (fetch.Page, error) {
    body, ok := p[rawURL]
    if !ok {
        return fetch.Page{}, errors.New("connection refused")
    }
    return fetch.Page{URL: rawURL, ContentType: "text/html", Body: []byte(body)}, nil
}

type stubScorer struct{ calls int }

func (s *stubScorer) Score(context.Context, string) (*score.Analysis, error) {
    s.calls++
    return &score.Analysis{PrivacyScore: 64, Summary: "Shares data with partners.", RiskLevel: score.RiskMedium}, nil
}

const policyPage = "https://shop.example/privacy-policy"

func newTestServer(t *testing.T) (*httptest.Server, *stubScorer) {
    t.Helper()
    para := strings.Repeat("We collect personal information and may share it with third parties. ", 12)
    src := pages{
        policyPage:                     `<html><head><title>Privacy Policy</title></head><body><main><p>` + para + `</p></main></body></html>`,
        "https://shop.example/cart":    `<html><head><title>Cart</title></head><body><main>Two items</main></body></html>`,
    }
    st, err := stats.Open(context.Background(), ":memory:")
    if err != nil {
        t.Fatalf("stats: %v", err)
    }
    t.Cleanup(func() { _ = st.Close() })
    sc := &stubScorer{}
    reg := prometheus.NewRegistry()
    m := metrics.New(reg)
    svc := app.NewService(app.Deps{Source: src, Scorer: sc, Cache: &cache.TieredStore{}, Stats: st, Metrics: m})
    ts := httptest.NewServer(NewServer(svc, m, reg))
    t.Cleanup(ts.Close)
    return ts, sc
}

func do(t *testing.T, method, u, body string) (int, map[string]any) {
    t.Helper()
    var r io.Reader
    if body != "" {
        r = strings.NewReader(body)
    }
    req, err := http.NewRequest(method, u, r)
    if err != nil {
        t.Fatalf("new request: %v", err)
    }
    req.Header.Set("Content-Type", "application/json")
    resp, err := http.DefaultClient.Do(req)
    if err != nil {
        t.Fatalf("%s %s: %v", method, u, err)
    }
    defer resp.Body.Close()
    var out map[string]any
    if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
        t.Fatalf("decode %s %s: %v", method, u, err)
    }
    return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
    ts, _ := newTestServer(t)
    code, out := do(t, http.MethodGet, ts.URL+"/health", "")
    if code != http.StatusOK || out["status"] != "ok" {
        t.Fatalf("health=%d %v", code, out)
    }
}

func TestCheckAndExtract(t *testing.T) {
    ts, _ := newTestServer(t)

    code, out := do(t, http.MethodPost, ts.URL+"/api/check", `{"url":"`+policyPage+`"}`)
    if code != http.StatusOK || out["policyDetected"] != true {
        t.Fatalf("check=%d %v", code, out)
    }
    code, out = do(t, http.MethodPost, ts.URL+"/api/check", `{"url":"https://shop.example/cart"}`)
    if code != http.StatusOK || out["policyDetected"] != false {
        t.Fatalf("check cart=%d %v", code, out)
    }

    code, out = do(t, http.MethodPost, ts.URL+"/api/extract", `{"url":"`+policyPage+`"}`)
    if code != http.StatusOK || !strings.HasPrefix(out["content"].(string), "We collect personal information") {
        t.Fatalf("extract=%d %v", code, out)
    }
    code, out = do(t, http.MethodPost, ts.URL+"/api/extract", `{"url":"https://shop.example/cart"}`)
    if code != http.StatusUnprocessableEntity || out["error"] == nil {
        t.Fatalf("extract cart=%d %v", code, out)
    }
}

func TestErrors(t *testing.T) {
    ts, _ := newTestServer(t)
    cases := []struct {
        name, method, path, body string
        want                     int
    }{
        {"bad json", http.MethodPost, "/api/check", `{`, http.StatusBadRequest},
        {"missing url", http.MethodPost, "/api/check", `{}`, http.StatusBadRequest},
        {"unsupported scheme", http.MethodPost, "/api/analyze", `{"url":"chrome://newtab"}`, http.StatusBadRequest},
        {"fetch failure", http.MethodPost, "/api/check", `{"url":"https://down.example/"}`, http.StatusBadGateway},
        {"get without url", http.MethodGet, "/api/analysis", "", http.StatusBadRequest},
        {"put without analysis", http.MethodPut, "/api/analysis", `{"url":"https://a.example"}`, http.StatusBadRequest},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            code, out := do(t, tc.method, ts.URL+tc.path, tc.body)
            if code != tc.want {
                t.Fatalf("status=%d want %d (%v)", code, tc.want, out)
            }
            if _, ok := out["error"].(string); !ok {
                t.Fatalf("missing error field: %v", out)
            }
        })
    }
}

func TestAnalyzeFlow(t *testing.T) {
    ts, sc := newTestServer(t)

    code, out := do(t, http.MethodPost, ts.URL+"/api/analyze", `{"url":"`+policyPage+`"}`)
    if code != http.StatusOK || out["cached"] != false || out["grade"] != "C" {
        t.Fatalf("analyze=%d %v", code, out)
    }
    a := out["analysis"].(map[string]any)
    if a["privacyScore"].(float64) != 64 || a["scoreBreakdown"] == nil {
        t.Fatalf("analysis=%v", a)
    }

    code, out = do(t, http.MethodPost, ts.URL+"/api/analyze", `{"url":"`+policyPage+`"}`)
    if code != http.StatusOK || out["cached"] != true {
        t.Fatalf("second analyze=%d %v", code, out)
    }
    if sc.calls != 1 {
        t.Fatalf("scorer calls=%d want 1", sc.calls)
    }

    code, out = do(t, http.MethodGet, ts.URL+"/api/analysis?url="+url.QueryEscape(policyPage), "")
    if code != http.StatusOK || out["analysis"] == nil {
        t.Fatalf("get analysis=%d %v", code, out)
    }
    code, out = do(t, http.MethodGet, ts.URL+"/api/analysis?url="+url.QueryEscape("https://none.example/"), "")
    if code != http.StatusOK || out["analysis"] != nil {
        t.Fatalf("missing analysis should be null, got %d %v", code, out)
    }

    code, out = do(t, http.MethodGet, ts.URL+"/api/stats", "")
    stats := out["stats"].(map[string]any)
    if code != http.StatusOK || stats["totalAnalyses"].(float64) != 1 || stats["cachedAnalyses"].(float64) != 1 {
        t.Fatalf("stats=%d %v", code, out)
    }
}

func TestPutAnalysisAndIncrement(t *testing.T) {
    ts, _ := newTestServer(t)

    body := `{"url":"https://a.example/privacy","analysis":{"privacyScore":91,"riskLevel":"LOW","summary":"Good"}}`
    code, out := do(t, http.MethodPut, ts.URL+"/api/analysis", body)
    if code != http.StatusOK || out["success"] != true {
        t.Fatalf("put=%d %v", code, out)
    }
    code, out = do(t, http.MethodGet, ts.URL+"/api/analysis?url="+url.QueryEscape("https://a.example/privacy"), "")
    a := out["analysis"].(map[string]any)
    if code != http.StatusOK || a["privacyScore"].(float64) != 91 {
        t.Fatalf("get=%d %v", code, out)
    }

    for i := 0; i < 2; i++ {
        if code, out := do(t, http.MethodPost, ts.URL+"/api/stats/increment", ""); code != http.StatusOK || out["success"] != true {
            t.Fatalf("increment=%d %v", code, out)
        }
    }
    _, out = do(t, http.MethodGet, ts.URL+"/api/stats", "")
    if got := out["stats"].(map[string]any)["totalAnalyses"].(float64); got != 2 {
        t.Fatalf("totalAnalyses=%v want 2", got)
    }
}

func TestMetricsEndpoint(t *testing.T) {
    ts, _ := newTestServer(t)
    do(t, http.MethodGet, ts.URL+"/health", "")

    resp, err := http.Get(ts.URL + "/metrics")
    if err != nil {
        t.Fatalf("get metrics: %v", err)
    }
    defer resp.Body.Close()
    b, _ := io.ReadAll(resp.Body)
    if !strings.Contains(string(b), `policyscan_http_requests_total{method="GET",path="/health",status="200"} 1`) {
        t.Fatalf("request counter missing from:\n%s", b)
    }
}
