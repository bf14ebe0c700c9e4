package report

import (
	"fmt"
	"io"

	"github.com/snarg/voxmood/internal/emotion"
	"github.com/xuri/excelize/v2"
)

// XLSXExporter writes a pipeline result as a two-sheet spreadsheet:
// a summary sheet with the emotion histogram and a timeline sheet with one
// row per span.
type XLSXExporter struct{}

// NewXLSXExporter creates an exporter.
func NewXLSXExporter() *XLSXExporter { return &XLSXExporter{} }

// Export writes the workbook to w.
func (e *XLSXExporter) Export(w io.Writer, result emotion.ReportResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	f.SetCellValue(summary, "A1", "Transcript")
	f.SetCellValue(summary, "B1", result.Transcript)
	f.SetCellValue(summary, "A2", "Dominant emotion")
	f.SetCellValue(summary, "B2", result.Dominant.String())
	f.SetCellValue(summary, "A4", "Emotion")
	f.SetCellValue(summary, "B4", "Count")

	row := 5
	// Iterate the timeline so histogram rows come out in first-seen order.
	written := make(map[emotion.Label]bool, len(result.Histogram))
	for _, span := range result.Timeline {
		if written[span.Emotion] {
			continue
		}
		written[span.Emotion] = true
		f.SetCellValue(summary, fmt.Sprintf("A%d", row), span.Emotion.String())
		f.SetCellValue(summary, fmt.Sprintf("B%d", row), result.Histogram[span.Emotion])
		row++
	}

	const timeline = "Timeline"
	if _, err := f.NewSheet(timeline); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	f.SetCellValue(timeline, "A1", "Start (s)")
	f.SetCellValue(timeline, "B1", "End (s)")
	f.SetCellValue(timeline, "C1", "Text")
	f.SetCellValue(timeline, "D1", "Emotion")
	for i, span := range result.Timeline {
		r := i + 2
		f.SetCellValue(timeline, fmt.Sprintf("A%d", r), span.Start)
		f.SetCellValue(timeline, fmt.Sprintf("B%d", r), span.End)
		f.SetCellValue(timeline, fmt.Sprintf("C%d", r), span.Text)
		f.SetCellValue(timeline, fmt.Sprintf("D%d", r), span.Emotion.String())
	}

	return f.Write(w)
}
