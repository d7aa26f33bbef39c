package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet  = "Results"
	findingsSheet = "Findings"
	failBgColor   = "FF5900"
	infoBgColor   = "FFEB9C"
	xlsxTimestamp = "2006-01-02 15:04:05"
)

var resultHeaders = []string{"#", "Test", "Method", "Path", "Result", "Message", "Details", "Duration (ms)", "Timestamp"}

// XLSXRenderer writes the run as a spreadsheet: one row per result followed
// by a summary block, plus a sheet of findings. Failed rows are highlighted.
type XLSXRenderer struct {
	out io.Writer
	// Methods and paths by case name, as declared by the suite.
	meta map[string]map[string]string
}

// NewXLSX creates an XLSX renderer writing to out. meta maps case names to the
// method and path they exercise; it may be nil.
func NewXLSX(out io.Writer, meta map[string]map[string]string) *XLSXRenderer {
	return &XLSXRenderer{out: out, meta: meta}
}

// WriteXLSXFile renders doc into a fresh workbook at path, creating parent
// directories as needed.
func WriteXLSXFile(path string, doc Report, meta map[string]map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %q: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if err := NewXLSX(f, meta).Render(doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Render builds the workbook and writes it out.
func (x *XLSXRenderer) Render(doc Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	failStyle, err := fillStyle(f, failBgColor)
	if err != nil {
		return err
	}
	infoStyle, err := fillStyle(f, infoBgColor)
	if err != nil {
		return err
	}

	if err := writeRow(f, resultsSheet, 1, toCells(resultHeaders)); err != nil {
		return err
	}
	_ = f.SetColWidth(resultsSheet, "B", "B", 36)
	_ = f.SetColWidth(resultsSheet, "F", "G", 60)

	row := 2
	if doc.Run != nil {
		for i, res := range doc.Run.Results {
			meta := x.meta[res.Name]
			cells := []any{
				i + 1,
				res.Name,
				meta["method"],
				meta["path"],
				res.Status(),
				res.Message,
				formatDetails(res.Details),
				res.DurationMS,
				res.Timestamp.Format(xlsxTimestamp),
			}
			if err := writeRow(f, resultsSheet, row, cells); err != nil {
				return err
			}
			if !res.Passed {
				style := failStyle
				if res.Skipped {
					style = infoStyle
				}
				if err := styleRow(f, resultsSheet, row, len(cells), style); err != nil {
					return err
				}
			}
			row++
		}
	}

	row++
	rate := "n/a"
	if doc.Summary.SuccessRate != nil {
		rate = fmt.Sprintf("%.1f%%", *doc.Summary.SuccessRate)
	}
	summary := [][]any{
		{"Suite", doc.Title},
		{"Total Tests", doc.Summary.Total},
		{"Passed", doc.Summary.Passed},
		{"Failed", doc.Summary.Failed},
		{"Success Rate", rate},
		{"Duration", formatDuration(time.Duration(doc.Summary.DurationMS) * time.Millisecond)},
	}
	if doc.Run != nil {
		summary = append(summary, []any{"Target", doc.Run.Target}, []any{"Run ID", doc.Run.RunID})
	}
	for _, cells := range summary {
		if err := writeRow(f, resultsSheet, row, cells); err != nil {
			return err
		}
		row++
	}

	if _, err := f.NewSheet(findingsSheet); err != nil {
		return fmt.Errorf("create sheet %q: %w", findingsSheet, err)
	}
	if err := writeRow(f, findingsSheet, 1, []any{"Severity", "Issue", "Details", "Matched"}); err != nil {
		return err
	}
	_ = f.SetColWidth(findingsSheet, "B", "D", 60)
	for i, finding := range doc.Findings {
		r := i + 2
		cells := []any{finding.Severity, finding.Issue, strings.Join(finding.Details, "\n"), strings.Join(finding.Matched, "\n")}
		if err := writeRow(f, findingsSheet, r, cells); err != nil {
			return err
		}
		style := infoStyle
		if finding.Critical() {
			style = failStyle
		}
		if err := styleRow(f, findingsSheet, r, len(cells), style); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(x.out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func fillStyle(f *excelize.File, rgb string) (int, error) {
	id, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{rgb}},
	})
	if err != nil {
		return 0, fmt.Errorf("create style: %w", err)
	}
	return id, nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []any) error {
	for i, v := range cells {
		name, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if text, ok := v.(string); ok {
			v = clipCell(text)
		}
		if err := f.SetCellValue(sheet, name, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, name, err)
		}
	}
	return nil
}

// clipCell shortens s to the character limit of a spreadsheet cell.
func clipCell(s string) string {
	if utf8.RuneCountInString(s) <= excelize.TotalCellChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:excelize.TotalCellChars-1]) + "…"
}

func styleRow(f *excelize.File, sheet string, row, width, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(width, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func toCells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
