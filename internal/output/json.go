package output

import (
	"encoding/json"
	"io"

	"github.com/bgricker/apiconform/internal/issues"
	"github.com/bgricker/apiconform/internal/report"
	"github.com/bgricker/apiconform/internal/suite"
)

// JSONRenderer emits the run as one structured document.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Report captures JSON output schema.
type Report struct {
	Title    string            `json:"title"`
	Run      *report.RunReport `json:"run"`
	Summary  report.Summary    `json:"summary"`
	Findings []issues.Finding  `json:"findings"`
	Sections []suite.Section   `json:"sections,omitempty"`
}

// NewReport assembles the document for a finished run.
func NewReport(title string, rep *report.RunReport, findings []issues.Finding, sections []suite.Section) Report {
	return Report{
		Title:    title,
		Run:      rep,
		Summary:  rep.Summarize(),
		Findings: findings,
		Sections: sections,
	}
}

// Render encodes the report as JSON.
func (j *JSONRenderer) Render(report Report) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// SuiteListing is the list-mode shape of one suite.
type SuiteListing struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Source      string   `json:"source"`
	Cases       []string `json:"cases"`
}

// RenderList encodes suites and their case names.
func (j *JSONRenderer) RenderList(suites []suite.Suite) error {
	listing := make([]SuiteListing, 0, len(suites))
	for _, s := range suites {
		listing = append(listing, SuiteListing{
			Name:        s.Name,
			Title:       s.Title,
			Description: s.Description,
			Source:      s.Source,
			Cases:       s.CaseNames(),
		})
	}
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(listing)
}
