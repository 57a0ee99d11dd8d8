package policy

import "strings"

const (
    selectorMinKeywords = 2
    selectorMinChars    = 500
    bodyMinKeywords     = 3
)

// IsPolicyPage reports whether doc looks like a policy page. Checks run
// cheapest first and stop at the first hit.
func IsPolicyPage(doc Document) bool {
    s := Signals(doc)
    return matchesURL(s) ||
        matchesTitleOrHeadings(s) ||
        hasPolicySelectorContent(doc) ||
        hasKeywordDensity(doc)
}

func matchesURL(s PageSignals) bool {
    for _, re := range URLPatterns {
        if re.MatchString(s.URL) || re.MatchString(s.Path) {
            return true
        }
    }
    return false
}

func matchesTitleOrHeadings(s PageSignals) bool {
    all := strings.Join(append([]string{s.Title}, s.Headings...), " ")
    return containsAnyKeyword(all)
}

func hasPolicySelectorContent(doc Document) bool {
    found := false
    eachCandidate(doc, func(el Element) bool {
        found = isPolicyContent(el)
        return !found
    })
    return found
}

func isPolicyContent(el Element) bool {
    text := lower(el.Text())
    return KeywordCount(text) >= selectorMinKeywords && textLen(text) > selectorMinChars
}

func hasKeywordDensity(doc Document) bool {
    main := MainContent(doc)
    if main == nil {
        return false
    }
    return KeywordCount(lower(main.Text())) >= bodyMinKeywords
}
