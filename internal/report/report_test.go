package report

import (
    "bytes"
    "strings"
    "testing"

    "github.com/hyperifyio/policyscan/internal/score"
)

func sample() *score.Analysis {
    return &score.Analysis{
        PrivacyScore:   72,
        Summary:        "Collects usage data for analytics.",
        QuickTakeaway:  "Mostly fine, opt out of ads.",
        ScoreBreakdown: &score.Breakdown{DataCollection: 18, DataSharing: 15, UserRights: 20, Transparency: 19},
        UserImpact: score.UserImpact{
            DataCollected: "Email and device data",
            HowDataUsed:   "Analytics and advertising",
            YourControl:   "You can request deletion",
        },
        Recommendations: []string{"Disable ad personalization", "Review cookie settings"},
        RiskLevel:       score.RiskMedium,
    }
}

func TestText_Layout(t *testing.T) {
    out := Text(sample())
    for _, want := range []string{
        "PRIVACY POLICY ANALYSIS RESULTS\n\n",
        "PRIVACY SCORE: 72/100 (B)\n",
        "RISK LEVEL: MEDIUM\n",
        "QUICK TAKEAWAY:\nMostly fine, opt out of ads.\n",
        "- Data Sharing: 15/25\n",
        "- Main Concern: Unknown\n",
        "RECOMMENDATIONS:\n- Disable ad personalization\n- Review cookie settings\n",
    } {
        if !strings.Contains(out, want) {
            t.Fatalf("missing %q in:\n%s", want, out)
        }
    }
    if !strings.HasSuffix(out, "---\n"+Disclaimer+"\n") {
        t.Fatalf("report should end with disclaimer:\n%s", out)
    }
}

func TestText_NilAnalysis(t *testing.T) {
    out := Text(nil)
    if !strings.Contains(out, "RISK LEVEL: Unknown") || !strings.Contains(out, "No summary available") {
        t.Fatalf("unexpected fallback text:\n%s", out)
    }
    if strings.Contains(out, "SCORE BREAKDOWN") {
        t.Fatalf("breakdown should be omitted when absent")
    }
}

func TestMarkdown_LinksSource(t *testing.T) {
    md := Markdown("https://example.com/privacy", sample())
    if !strings.HasPrefix(md, "# Privacy Policy Analysis\n") {
        t.Fatalf("unexpected heading: %q", md[:40])
    }
    if !strings.Contains(md, "Source: [https://example.com/privacy](https://example.com/privacy)") {
        t.Fatalf("missing source link:\n%s", md)
    }
    if !strings.Contains(md, "## Recommendations\n\n- Disable ad personalization\n") {
        t.Fatalf("missing recommendations:\n%s", md)
    }
}

func TestWritePDF_ProducesDocument(t *testing.T) {
    var buf bytes.Buffer
    a := sample()
    a.Summary = "Données personnelles collectées."
    if err := WritePDF(&buf, Markdown("https://example.com/privacy", a)); err != nil {
        t.Fatalf("WritePDF: %v", err)
    }
    if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
        t.Fatalf("output is not a PDF")
    }
    if buf.Len() < 500 {
        t.Fatalf("PDF suspiciously small: %d bytes", buf.Len())
    }
}
