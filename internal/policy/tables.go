package policy

import (
    "regexp"
    "strings"
)

// PolicyKeywords are the lowercase phrases that mark policy text.
var PolicyKeywords = []string{
    "privacy policy", "data protection", "personal information",
    "data collection", "terms of service", "terms of use",
    "cookie policy", "user agreement", "privacy notice",
    "data processing", "gdpr", "ccpa", "personal data",
}

// PolicySelectors are scanned in this order by both the classifier and the
// locator. Encounter order decides score ties.
var PolicySelectors = []Selector{
    attrContains("class", "privacy"), attrContains("id", "privacy"),
    attrContains("class", "terms"), attrContains("id", "terms"),
    attrContains("class", "legal"), attrContains("id", "legal"),
    attrContains("class", "policy"), attrContains("id", "policy"),
    tagIs("main"), tagIs("article"),
    classToken("content"), idIs("content"),
}

// URLPatterns match policy-like URLs and paths.
var URLPatterns = []*regexp.Regexp{
    regexp.MustCompile(`(?i)privacy[-_]?policy`),
    regexp.MustCompile(`(?i)terms[-_]?of[-_]?(service|use)`),
    regexp.MustCompile(`(?i)cookie[-_]?policy`),
    regexp.MustCompile(`(?i)data[-_]?protection`),
    regexp.MustCompile(`(?i)legal`),
}

// mainContentSelectors resolve the page's main content area, first
// substantial match wins, body otherwise.
var mainContentSelectors = []Selector{
    tagIs("main"),
    attrEquals("role", "main"),
    classToken("main-content"),
    idIs("main-content"),
    classToken("content"),
    idIs("content"),
    tagIs("article"),
}

func attrContains(attr, sub string) Selector {
    return Selector{
        Name: "[" + attr + "*=" + sub + "]",
        Match: func(e Element) bool {
            return strings.Contains(attrOf(e, attr), sub)
        },
    }
}

func attrEquals(attr, val string) Selector {
    return Selector{
        Name: "[" + attr + "=" + val + "]",
        Match: func(e Element) bool {
            return attrOf(e, attr) == val
        },
    }
}

func tagIs(tag string) Selector {
    return Selector{
        Name:  tag,
        Match: func(e Element) bool { return e.Tag() == tag },
    }
}

func classToken(token string) Selector {
    return Selector{
        Name: "." + token,
        Match: func(e Element) bool {
            for _, c := range strings.Fields(e.ClassName()) {
                if c == token {
                    return true
                }
            }
            return false
        },
    }
}

func idIs(id string) Selector {
    return Selector{
        Name:  "#" + id,
        Match: func(e Element) bool { return e.ID() == id },
    }
}

func attrOf(e Element, attr string) string {
    switch attr {
    case "id":
        return e.ID()
    case "class":
        return e.ClassName()
    }
    return e.Attr(attr)
}
