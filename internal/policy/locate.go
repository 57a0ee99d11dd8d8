package policy

import "strings"

const (
    keywordPoints = 10
    longTextChars = 1000
    longTextBonus = 20
    midTextChars  = 500
    midTextBonus  = 10
)

// ScoreElement rates how likely el is to hold the policy body: 10 points
// per distinct keyword, a length bonus and one structural bonus.
func ScoreElement(el Element) int {
    text := lower(el.Text())
    score := keywordPoints * KeywordCount(text)

    switch n := textLen(text); {
    case n > longTextChars:
        score += longTextBonus
    case n > midTextChars:
        score += midTextBonus
    }

    id, class := el.ID(), el.ClassName()
    switch {
    case el.Tag() == "main":
        score += 15
    case el.Tag() == "article":
        score += 12
    case strings.Contains(id, "policy") || strings.Contains(id, "terms"):
        score += 10
    case strings.Contains(class, "policy") || strings.Contains(class, "terms"):
        score += 8
    }
    return score
}

// LocateBestElement returns the highest scoring candidate. Only a strictly
// greater score replaces the current best, so the earliest element wins
// ties, and elements scoring zero are never returned.
func LocateBestElement(doc Document) (Element, bool) {
    var best Element
    bestScore := 0
    eachCandidate(doc, func(el Element) bool {
        if s := ScoreElement(el); s > bestScore {
            best, bestScore = el, s
        }
        return true
    })
    return best, best != nil
}
