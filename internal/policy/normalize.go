package policy

import (
    "regexp"
    "strings"
    "unicode"
)

// MaxTextChars bounds extracted text handed to the scorer.
const MaxTextChars = 10000

var blankLines = regexp.MustCompile(`\n\s*\n`)

// Normalize collapses whitespace runs to single spaces, drops blank lines,
// trims, and truncates to MaxTextChars characters. Normalize is idempotent.
func Normalize(raw string) string {
    s := collapseSpaces(raw)
    s = blankLines.ReplaceAllString(s, "\n")
    s = strings.TrimSpace(s)
    return truncate(s, MaxTextChars)
}

func collapseSpaces(s string) string {
    var b strings.Builder
    b.Grow(len(s))
    lastSpace := false
    for _, r := range s {
        if isSpace(r) {
            if !lastSpace {
                b.WriteByte(' ')
                lastSpace = true
            }
            continue
        }
        b.WriteRune(r)
        lastSpace = false
    }
    return b.String()
}

func isSpace(r rune) bool {
    return unicode.IsSpace(r) || r == '\ufeff'
}

// truncate keeps the first n characters. A cut that ends on a space drops
// it so a second pass leaves the text unchanged.
func truncate(s string, n int) string {
    count := 0
    for i := range s {
        if count == n {
            return strings.TrimRightFunc(s[:i], isSpace)
        }
        count++
    }
    return s
}
