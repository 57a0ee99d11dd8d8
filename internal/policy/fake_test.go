package policy

import "strings"

// fakeEl is a minimal in-memory element tree for exercising the engine
// without an HTML parser.
type fakeEl struct {
    tag   string
    id    string
    class string
    attrs map[string]string
    text  string
    kids  []*fakeEl
}

func (e *fakeEl) Tag() string       { return e.tag }
func (e *fakeEl) ID() string        { return e.id }
func (e *fakeEl) ClassName() string { return e.class }
func (e *fakeEl) Attr(name string) string {
    return e.attrs[name]
}

func (e *fakeEl) Text() string {
    var b strings.Builder
    b.WriteString(e.text)
    for _, k := range e.kids {
        b.WriteString(k.Text())
    }
    return b.String()
}

type fakeDoc struct {
    url      string
    path     string
    title    string
    headings []string
    body     *fakeEl
}

func (d *fakeDoc) URL() string        { return d.url }
func (d *fakeDoc) Path() string       { return d.path }
func (d *fakeDoc) Title() string      { return d.title }
func (d *fakeDoc) Headings() []string { return d.headings }

func (d *fakeDoc) Body() Element {
    if d.body == nil {
        return nil
    }
    return d.body
}

func (d *fakeDoc) QueryAll(sel Selector) []Element {
    var out []Element
    var walk func(*fakeEl)
    walk = func(e *fakeEl) {
        if sel.Match(e) {
            out = append(out, e)
        }
        for _, k := range e.kids {
            walk(k)
        }
    }
    if d.body != nil {
        walk(d.body)
    }
    return out
}

func body(kids ...*fakeEl) *fakeEl {
    return &fakeEl{tag: "body", kids: kids}
}

// filler returns n characters of text that contains no policy keyword.
func filler(n int) string {
    s := strings.Repeat("lorem ipsum dolor sit amet ", n/27+1)
    return s[:n]
}
