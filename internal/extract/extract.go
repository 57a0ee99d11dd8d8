package extract

import (
    "bytes"
    "fmt"
    "io"
    "net/url"
    "strings"
    "sync"

    "golang.org/x/net/html"

    "github.com/hyperifyio/policyscan/internal/policy"
)

// Page is a parsed HTML document exposed as a read-only policy.Document.
// It is safe for concurrent readers.
type Page struct {
    rawURL string
    path   string
    root   *html.Node
    body   *html.Node
    title  string

    // memoized textContent per element node
    texts sync.Map
}

var _ policy.Document = (*Page)(nil)

// Parse builds a Page from raw HTML served at rawURL.
func Parse(rawURL string, input []byte) (*Page, error) {
    return ParseReader(rawURL, bytes.NewReader(input))
}

// ParseReader is Parse over a stream.
func ParseReader(rawURL string, r io.Reader) (*Page, error) {
    u, err := url.Parse(strings.TrimSpace(rawURL))
    if err != nil {
        return nil, fmt.Errorf("parse url: %w", err)
    }
    root, err := html.Parse(r)
    if err != nil {
        return nil, fmt.Errorf("parse html: %w", err)
    }
    path := u.EscapedPath()
    if path == "" {
        path = "/"
    }
    p := &Page{
        rawURL: u.String(),
        path:   path,
        root:   root,
        body:   findFirst(root, "body"),
    }
    if t := findFirst(root, "title"); t != nil {
        p.title = strings.Join(strings.Fields(textContent(t)), " ")
    }
    return p, nil
}

func (p *Page) URL() string   { return p.rawURL }
func (p *Page) Path() string  { return p.path }
func (p *Page) Title() string { return p.title }

// Headings returns h1..h6 text in document order.
func (p *Page) Headings() []string {
    var out []string
    walkElements(p.root, func(n *html.Node) {
        if isHeading(n.Data) {
            out = append(out, p.text(n))
        }
    })
    return out
}

// QueryAll matches sel against every element in document order.
func (p *Page) QueryAll(sel policy.Selector) []policy.Element {
    var out []policy.Element
    walkElements(p.root, func(n *html.Node) {
        el := &element{page: p, node: n}
        if sel.Match(el) {
            out = append(out, el)
        }
    })
    return out
}

func (p *Page) Body() policy.Element {
    if p.body == nil {
        return nil
    }
    return &element{page: p, node: p.body}
}

func (p *Page) text(n *html.Node) string {
    if v, ok := p.texts.Load(n); ok {
        return v.(string)
    }
    s := textContent(n)
    p.texts.Store(n, s)
    return s
}

type element struct {
    page *Page
    node *html.Node
}

func (e *element) Tag() string       { return strings.ToLower(e.node.Data) }
func (e *element) ID() string        { return e.Attr("id") }
func (e *element) ClassName() string { return e.Attr("class") }
func (e *element) Text() string      { return e.page.text(e.node) }

func (e *element) Attr(name string) string {
    for _, a := range e.node.Attr {
        if a.Namespace == "" && strings.EqualFold(a.Key, name) {
            return a.Val
        }
    }
    return ""
}

func isHeading(tag string) bool {
    switch strings.ToLower(tag) {
    case "h1", "h2", "h3", "h4", "h5", "h6":
        return true
    }
    return false
}

// walkElements visits element nodes in pre-order.
func walkElements(n *html.Node, fn func(*html.Node)) {
    if n.Type == html.ElementNode {
        fn(n)
    }
    for c := n.FirstChild; c != nil; c = c.NextSibling {
        walkElements(c, fn)
    }
}

func findFirst(n *html.Node, tag string) *html.Node {
    if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
        return n
    }
    for c := n.FirstChild; c != nil; c = c.NextSibling {
        if res := findFirst(c, tag); res != nil {
            return res
        }
    }
    return nil
}

// textContent concatenates every descendant text node, scripts and hidden
// content included, the way DOM textContent does.
func textContent(n *html.Node) string {
    var b strings.Builder
    var dfs func(*html.Node)
    dfs = func(cur *html.Node) {
        if cur.Type == html.TextNode {
            b.WriteString(cur.Data)
            return
        }
        for c := cur.FirstChild; c != nil; c = c.NextSibling {
            dfs(c)
        }
    }
    dfs(n)
    return b.String()
}
