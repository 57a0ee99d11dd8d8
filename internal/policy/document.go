// Package policy decides whether a page is a privacy or terms document and
// pulls a bounded, whitespace-normalized copy of its text. It works on a
// read-only Document view and holds no state between calls.
package policy

// Element is a read-only view of one node in a page's element tree.
type Element interface {
    // Tag returns the lowercase tag name, e.g. "main".
    Tag() string
    ID() string
    // ClassName returns the raw class attribute.
    ClassName() string
    Attr(name string) string
    // Text returns the concatenated text of every descendant text node,
    // like DOM textContent.
    Text() string
}

// Document is the page under inspection. Implementations must not be
// mutated while a detection or extraction call is running.
type Document interface {
    URL() string
    Path() string
    Title() string
    // Headings returns the text of every h1..h6 element in document order.
    Headings() []string
    // QueryAll returns elements matching sel in document order.
    QueryAll(sel Selector) []Element
    // Body returns the body element, or nil when the page has none.
    Body() Element
}

// Selector is a structural query expressed as a predicate.
type Selector struct {
    Name  string
    Match func(Element) bool
}

func first(doc Document, sel Selector) Element {
    if els := doc.QueryAll(sel); len(els) > 0 {
        return els[0]
    }
    return nil
}
