package score

import "strings"

// RiskLevel is the model's overall risk verdict.
type RiskLevel string

const (
    RiskLow    RiskLevel = "LOW"
    RiskMedium RiskLevel = "MEDIUM"
    RiskHigh   RiskLevel = "HIGH"
)

// Valid reports whether r is one of the known levels.
func (r RiskLevel) Valid() bool {
    switch r {
    case RiskLow, RiskMedium, RiskHigh:
        return true
    }
    return false
}

const (
    // MaxScore is the top of the overall scale.
    MaxScore = 100
    // MaxCategoryScore is the top of each breakdown category.
    MaxCategoryScore = 25
    // DefaultScore is shown when the model omits the overall score.
    DefaultScore = 50
)

// Breakdown splits the overall score into four categories of 0..25.
type Breakdown struct {
    DataCollection int `json:"dataCollection"`
    DataSharing    int `json:"dataSharing"`
    UserRights     int `json:"userRights"`
    Transparency   int `json:"transparency"`
}

// UserImpact is the plain-language summary of what the policy means.
type UserImpact struct {
    DataCollected string `json:"dataCollected"`
    HowDataUsed   string `json:"howDataUsed"`
    YourControl   string `json:"yourControl"`
    MainConcern   string `json:"mainConcern"`
}

// Analysis is the structured score returned by the model.
type Analysis struct {
    PrivacyScore    int        `json:"privacyScore"`
    Summary         string     `json:"summary"`
    QuickTakeaway   string     `json:"quickTakeaway"`
    ScoreBreakdown  *Breakdown `json:"scoreBreakdown,omitempty"`
    UserImpact      UserImpact `json:"userImpact"`
    Recommendations []string   `json:"recommendations"`
    RiskLevel       RiskLevel  `json:"riskLevel"`
}

// Normalize clamps scores into range and fills display defaults: MEDIUM
// risk when unknown, and a breakdown derived from the overall score when
// the model left it out.
func (a *Analysis) Normalize() {
    a.PrivacyScore = clamp(a.PrivacyScore, 0, MaxScore)
    a.RiskLevel = RiskLevel(strings.ToUpper(strings.TrimSpace(string(a.RiskLevel))))
    if !a.RiskLevel.Valid() {
        a.RiskLevel = RiskMedium
    }
    if a.ScoreBreakdown == nil {
        b := FallbackBreakdown(a.PrivacyScore)
        a.ScoreBreakdown = &b
    }
    b := a.ScoreBreakdown
    b.DataCollection = clamp(b.DataCollection, 0, MaxCategoryScore)
    b.DataSharing = clamp(b.DataSharing, 0, MaxCategoryScore)
    b.UserRights = clamp(b.UserRights, 0, MaxCategoryScore)
    b.Transparency = clamp(b.Transparency, 0, MaxCategoryScore)
}

// FallbackBreakdown spreads overall evenly across the four categories,
// handing the remainder out in category order.
func FallbackBreakdown(overall int) Breakdown {
    overall = clamp(overall, 0, MaxScore)
    base, rem := overall/4, overall%4
    parts := [4]int{base, base, base, base}
    for i := 0; i < rem; i++ {
        parts[i]++
    }
    return Breakdown{
        DataCollection: clamp(parts[0], 0, MaxCategoryScore),
        DataSharing:    clamp(parts[1], 0, MaxCategoryScore),
        UserRights:     clamp(parts[2], 0, MaxCategoryScore),
        Transparency:   clamp(parts[3], 0, MaxCategoryScore),
    }
}

// Grade maps an overall score to a letter grade.
func Grade(score int) string {
    switch {
    case score >= 90:
        return "A+"
    case score >= 80:
        return "A"
    case score >= 70:
        return "B"
    case score >= 60:
        return "C"
    case score >= 50:
        return "D"
    }
    return "F"
}

func clamp(v, lo, hi int) int {
    if v < lo {
        return lo
    }
    if v > hi {
        return hi
    }
    return v
}
