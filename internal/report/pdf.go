package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/snarg/voxmood/internal/emotion"
)

// Page layout constants (A4, millimetres).
const (
	marginLeft    = 15.0
	marginTop     = 15.0
	marginBottom  = 18.0
	lineHeight    = 6.0
	titleGap      = 10.0
	sectionGap    = 4.0
	reportTitle   = "Voice Emotion Analysis Report"
)

// PDFRenderer renders a pipeline result as a paginated A4 document.
type PDFRenderer struct{}

// NewPDFRenderer creates a renderer.
func NewPDFRenderer() *PDFRenderer { return &PDFRenderer{} }

// Render writes the PDF to w. Layout: title header, transcript, dominant
// emotion, then one timeline line per span. A new page starts whenever the
// cursor would drop below the bottom margin; the header is re-rendered
// after every break.
func (r *PDFRenderer) Render(w io.Writer, result emotion.ReportResult) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	_, pageHeight := pdf.GetPageSize()
	limit := pageHeight - marginBottom

	y := r.header(pdf)

	pdf.SetFont("Helvetica", "", 11)
	y = r.textBlock(pdf, y, limit, "Transcript: "+result.Transcript)
	y += sectionGap

	pdf.SetFont("Helvetica", "B", 12)
	y = r.line(pdf, y, limit, "Dominant emotion: "+result.Dominant.String())
	y += sectionGap

	pdf.SetFont("Helvetica", "B", 13)
	y = r.line(pdf, y, limit, "Timeline")
	pdf.SetFont("Helvetica", "", 10)

	for _, span := range result.Timeline {
		entry := fmt.Sprintf("%ds - %ds : %s (%s)", span.Start, span.End, span.Text, span.Emotion)
		y = r.line(pdf, y, limit, entry)
	}

	if len(result.Timeline) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		r.line(pdf, y, limit, "No speech content to report.")
	}

	return pdf.Output(w)
}

// header starts a page, draws the title, and returns the cursor position.
func (r *PDFRenderer) header(pdf *fpdf.Fpdf) float64 {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Text(marginLeft, marginTop+6, reportTitle)
	return marginTop + 6 + titleGap
}

// line draws one line of text, breaking the page first if the cursor would
// fall below the bottom margin.
func (r *PDFRenderer) line(pdf *fpdf.Fpdf, y, limit float64, text string) float64 {
	if y+lineHeight > limit {
		y = r.header(pdf)
		pdf.SetFont("Helvetica", "", 10)
	}
	pdf.Text(marginLeft, y+lineHeight-1.5, text)
	return y + lineHeight
}

// textBlock wraps long text across multiple lines at the page width.
func (r *PDFRenderer) textBlock(pdf *fpdf.Fpdf, y, limit float64, text string) float64 {
	pageWidth, _ := pdf.GetPageSize()
	usable := pageWidth - 2*marginLeft
	lines := pdf.SplitText(text, usable)
	for _, l := range lines {
		y = r.line(pdf, y, limit, l)
	}
	return y
}
