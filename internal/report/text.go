package report

import (
    "fmt"
    "strings"

    "github.com/hyperifyio/policyscan/internal/score"
)

const unknown = "Unknown"

// Disclaimer closes every report.
const Disclaimer = "This analysis was generated by AI and should be used as a general guide."

func or(s, fallback string) string {
    if strings.TrimSpace(s) == "" {
        return fallback
    }
    return s
}

// Text renders a plain-text report suitable for pasting into chat or email.
func Text(a *score.Analysis) string {
    if a == nil {
        a = &score.Analysis{}
    }
    var b strings.Builder
    b.WriteString("PRIVACY POLICY ANALYSIS RESULTS\n\n")
    fmt.Fprintf(&b, "PRIVACY SCORE: %d/100 (%s)\n", a.PrivacyScore, score.Grade(a.PrivacyScore))
    fmt.Fprintf(&b, "RISK LEVEL: %s\n\n", or(string(a.RiskLevel), unknown))
    fmt.Fprintf(&b, "QUICK TAKEAWAY:\n%s\n\n", or(a.QuickTakeaway, "No takeaway available"))
    fmt.Fprintf(&b, "SUMMARY:\n%s\n\n", or(a.Summary, "No summary available"))
    if bd := a.ScoreBreakdown; bd != nil {
        b.WriteString("SCORE BREAKDOWN:\n")
        fmt.Fprintf(&b, "- Data Collection: %d/25\n", bd.DataCollection)
        fmt.Fprintf(&b, "- Data Sharing: %d/25\n", bd.DataSharing)
        fmt.Fprintf(&b, "- User Rights: %d/25\n", bd.UserRights)
        fmt.Fprintf(&b, "- Transparency: %d/25\n\n", bd.Transparency)
    }
    u := a.UserImpact
    b.WriteString("WHAT THIS MEANS FOR YOU:\n")
    fmt.Fprintf(&b, "- Data Collected: %s\n", or(u.DataCollected, unknown))
    fmt.Fprintf(&b, "- How It's Used: %s\n", or(u.HowDataUsed, unknown))
    fmt.Fprintf(&b, "- Your Control: %s\n", or(u.YourControl, unknown))
    fmt.Fprintf(&b, "- Main Concern: %s\n\n", or(u.MainConcern, unknown))
    b.WriteString("RECOMMENDATIONS:\n")
    for _, r := range a.Recommendations {
        fmt.Fprintf(&b, "- %s\n", r)
    }
    b.WriteString("\n---\n")
    b.WriteString(Disclaimer)
    b.WriteString("\n")
    return b.String()
}

// Markdown renders the same report with headings, linking back to the
// analyzed page when pageURL is set.
func Markdown(pageURL string, a *score.Analysis) string {
    if a == nil {
        a = &score.Analysis{}
    }
    var b strings.Builder
    b.WriteString("# Privacy Policy Analysis\n\n")
    if pageURL != "" {
        fmt.Fprintf(&b, "Source: [%s](%s)\n\n", pageURL, pageURL)
    }
    fmt.Fprintf(&b, "Privacy score: %d/100, grade %s, risk %s\n\n", a.PrivacyScore, score.Grade(a.PrivacyScore), or(string(a.RiskLevel), unknown))
    fmt.Fprintf(&b, "## Quick takeaway\n\n%s\n\n", or(a.QuickTakeaway, "No takeaway available"))
    fmt.Fprintf(&b, "## Summary\n\n%s\n\n", or(a.Summary, "No summary available"))
    if bd := a.ScoreBreakdown; bd != nil {
        b.WriteString("## Score breakdown\n\n")
        fmt.Fprintf(&b, "- Data collection: %d/25\n- Data sharing: %d/25\n- User rights: %d/25\n- Transparency: %d/25\n\n",
            bd.DataCollection, bd.DataSharing, bd.UserRights, bd.Transparency)
    }
    u := a.UserImpact
    b.WriteString("## What this means for you\n\n")
    fmt.Fprintf(&b, "- Data collected: %s\n- How it's used: %s\n- Your control: %s\n- Main concern: %s\n\n",
        or(u.DataCollected, unknown), or(u.HowDataUsed, unknown), or(u.YourControl, unknown), or(u.MainConcern, unknown))
    if len(a.Recommendations) > 0 {
        b.WriteString("## Recommendations\n\n")
        for _, r := range a.Recommendations {
            fmt.Fprintf(&b, "- %s\n", r)
        }
        b.WriteString("\n")
    }
    b.WriteString(Disclaimer + "\n")
    return b.String()
}
