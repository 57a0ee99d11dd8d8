package extract

import (
    "errors"
    "strings"
    "testing"

    "github.com/hyperifyio/policyscan/internal/policy"
)

func TestParse_TitleHeadingsAndPath(t *testing.T) {
    html := `<!doctype html>
    <html>
      <head><title>
        ACME   Privacy
        Notice </title></head>
      <body>
        <h1>Welcome</h1>
        <section><h3>Section <em>Three</em></h3></section>
        <h2>Second</h2>
      </body>
    </html>`

    p, err := Parse("https://Example.com/Legal/Privacy?x=1", []byte(html))
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    if p.Title() != "ACME Privacy Notice" {
        t.Fatalf("unexpected title %q", p.Title())
    }
    if p.Path() != "/Legal/Privacy" {
        t.Fatalf("unexpected path %q", p.Path())
    }
    got := p.Headings()
    want := []string{"Welcome", "Section Three", "Second"}
    if len(got) != len(want) {
        t.Fatalf("expected %d headings, got %v", len(want), got)
    }
    for i := range want {
        if got[i] != want[i] {
            t.Fatalf("heading %d: expected %q, got %q", i, want[i], got[i])
        }
    }
}

func TestParse_EmptyPathDefaultsToRoot(t *testing.T) {
    p, err := Parse("https://example.com", []byte("<p>hi</p>"))
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    if p.Path() != "/" {
        t.Fatalf("expected '/', got %q", p.Path())
    }
    if p.Body() == nil || p.Body().Text() != "hi" {
        t.Fatalf("expected body with text")
    }
}

func TestQueryAll_DocumentOrderAndAttributes(t *testing.T) {
    html := `<html><body>
      <div id="outer-privacy"><div class="privacy-text">inner</div></div>
      <div class="content main">c</div>
      <div class="contents">not a token match</div>
    </body></html>`
    p, err := Parse("https://example.com/", []byte(html))
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    candidates := policy.Candidates(p)
    // class*=privacy
    if len(candidates[0]) != 1 || candidates[0][0].ClassName() != "privacy-text" {
        t.Fatalf("unexpected class*=privacy matches: %d", len(candidates[0]))
    }
    // id*=privacy
    if len(candidates[1]) != 1 || candidates[1][0].ID() != "outer-privacy" {
        t.Fatalf("unexpected id*=privacy matches: %d", len(candidates[1]))
    }
    // .content is a class token match
    if n := len(candidates[10]); n != 1 {
        t.Fatalf("expected one .content match, got %d", n)
    }
    if got := candidates[1][0].Text(); got != "inner" {
        t.Fatalf("expected textContent 'inner', got %q", got)
    }
}

func TestDetectAndExtract_PolicyPage(t *testing.T) {
    var b strings.Builder
    b.WriteString(`<html><head><title>Help</title></head><body><nav>Home</nav><main id="top">`)
    b.WriteString(`<h2>Overview</h2> <p>This privacy policy explains how we handle personal information.</p>`)
    for i := 0; i < 20; i++ {
        b.WriteString("<p>")
        b.WriteString(sampleText)
        b.WriteString("</p>\n\n")
    }
    b.WriteString(`</main><footer class="legal">Copyright</footer></body></html>`)

    p, err := Parse("https://example.com/help", []byte(b.String()))
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    if !policy.DetectPolicy(p) {
        t.Fatal("expected policy detection")
    }
    text, err := policy.ExtractPolicyText(p)
    if err != nil {
        t.Fatalf("extract: %v", err)
    }
    if !strings.HasPrefix(text, "Overview This privacy policy explains") {
        t.Fatalf("unexpected text start: %q", text[:60])
    }
    if strings.Contains(text, "Copyright") || strings.Contains(text, "\n") {
        t.Fatalf("expected only normalized main text")
    }
}

func TestDetectAndExtract_ShortPage(t *testing.T) {
    p, err := Parse("https://example.com/privacy-policy", []byte(`<html><body></body></html>`))
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    if !policy.DetectPolicy(p) {
        t.Fatal("expected detection from URL")
    }
    if _, err := policy.ExtractPolicyText(p); !errors.Is(err, policy.ErrInsufficientContent) {
        t.Fatalf("expected insufficient content, got %v", err)
    }
}

func TestHTMLParser_ImplementsParser(t *testing.T) {
    var parser Parser = HTMLParser{}
    doc, err := parser.Parse("https://example.com/", []byte("<title>x</title>"))
    if err != nil || doc.Title() != "x" {
        t.Fatalf("unexpected parse result: %v", err)
    }
}
