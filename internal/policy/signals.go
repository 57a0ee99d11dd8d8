package policy

import (
    "strings"
    "unicode/utf8"

    "golang.org/x/text/cases"
    "golang.org/x/text/language"
)

const mainContentMinChars = 100

// PageSignals holds the lowercase page-level signals used by the classifier.
type PageSignals struct {
    URL      string
    Path     string
    Title    string
    Headings []string
}

// Signals reads the page-level signals from doc. Missing values are empty.
func Signals(doc Document) PageSignals {
    s := PageSignals{
        URL:   lower(doc.URL()),
        Path:  lower(doc.Path()),
        Title: lower(doc.Title()),
    }
    for _, h := range doc.Headings() {
        s.Headings = append(s.Headings, lower(h))
    }
    return s
}

// Candidates returns the matches of every PolicySelectors entry, indexed
// like PolicySelectors. Selectors without matches yield an empty slice.
func Candidates(doc Document) [][]Element {
    out := make([][]Element, len(PolicySelectors))
    for i, sel := range PolicySelectors {
        out[i] = doc.QueryAll(sel)
    }
    return out
}

// eachCandidate walks selector matches in selector order, then document
// order, until fn returns false. An element matched by several selectors
// is visited once per selector.
func eachCandidate(doc Document, fn func(Element) bool) {
    for _, sel := range PolicySelectors {
        for _, el := range doc.QueryAll(sel) {
            if !fn(el) {
                return
            }
        }
    }
}

// MainContent resolves the main content area: the first candidate with
// more than 100 characters of text, falling back to the body.
func MainContent(doc Document) Element {
    for _, sel := range mainContentSelectors {
        el := first(doc, sel)
        if el != nil && textLen(el.Text()) > mainContentMinChars {
            return el
        }
    }
    return doc.Body()
}

// KeywordCount returns how many distinct PolicyKeywords occur in text,
// which must already be lowercase.
func KeywordCount(text string) int {
    n := 0
    for _, kw := range PolicyKeywords {
        if strings.Contains(text, kw) {
            n++
        }
    }
    return n
}

func containsAnyKeyword(text string) bool {
    for _, kw := range PolicyKeywords {
        if strings.Contains(text, kw) {
            return true
        }
    }
    return false
}

// lower builds a fresh Caser per call; Casers are not safe to share.
func lower(s string) string {
    return cases.Lower(language.Und).String(s)
}

func textLen(s string) int {
    return utf8.RuneCountInString(s)
}
