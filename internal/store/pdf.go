package store

import (
	"bufio"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/notsoquietly/articlestudio/internal/generate"
)

// WritePDF renders a set of drafts into a simple one-column PDF. Layout is
// intentionally minimal: bold article titles, plain paragraphs, a rule
// between articles.
func WritePDF(articles []generate.Article, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	for i, a := range articles {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.MultiCell(0, 8, a.Title, "", "L", false)
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "", 11)

		scanner := bufio.NewScanner(strings.NewReader(a.Body))
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				pdf.Ln(5)
				continue
			}
			pdf.MultiCell(0, 5, line, "", "L", false)
		}
		if err := scanner.Err(); err != nil {
			return err
		}

		if i < len(articles)-1 {
			pdf.Ln(4)
			x, y := pdf.GetXY()
			pdf.Line(x, y, x+180, y)
			pdf.Ln(6)
		}
	}
	return pdf.OutputFileAndClose(outPath)
}
