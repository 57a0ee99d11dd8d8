package report

import (
    "bufio"
    "io"
    "regexp"
    "strings"

    "github.com/jung-kurt/gofpdf"
)

var linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`) // [text](url)

// WritePDF renders Markdown from this package as a simple A4 document:
// headings in bold, "- " items as bullets, links clickable.
func WritePDF(w io.Writer, markdown string) error {
    pdf := gofpdf.New("P", "mm", "A4", "")
    // Core fonts are cp1252; translate so accented text survives.
    tr := pdf.UnicodeTranslatorFromDescriptor("")
    pdf.SetFont("Helvetica", "", 11)
    pdf.AddPage()

    scanner := bufio.NewScanner(strings.NewReader(markdown))
    scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
    for scanner.Scan() {
        s := strings.TrimSpace(scanner.Text())
        if s == "" {
            pdf.Ln(3)
            continue
        }
        if strings.HasPrefix(s, "#") {
            i := 0
            for i < len(s) && s[i] == '#' { i++ }
            text := strings.TrimSpace(s[i:])
            if text == "" { continue }
            size := 16.0
            if i >= 2 { size = 13.0 }
            pdf.SetFont("Helvetica", "B", size)
            pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
            pdf.SetFont("Helvetica", "", 11)
            continue
        }
        if strings.HasPrefix(s, "- ") {
            s = "\u2022 " + strings.TrimSpace(s[2:])
        }
        parts := linkRe.FindAllStringSubmatchIndex(s, -1)
        if len(parts) == 0 {
            pdf.MultiCell(0, 5, tr(s), "", "L", false)
            continue
        }
        pos := 0
        for _, m := range parts {
            if m[0] > pos {
                pdf.Write(5, tr(s[pos:m[0]]))
            }
            pdf.WriteLinkString(5, tr(s[m[2]:m[3]]), s[m[4]:m[5]])
            pos = m[1]
        }
        if pos < len(s) {
            pdf.Write(5, tr(s[pos:]))
        }
        pdf.Ln(6)
    }
    if err := scanner.Err(); err != nil {
        return err
    }
    return pdf.Output(w)
}
