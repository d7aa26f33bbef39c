package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/bgricker/apiconform/internal/issues"
	"github.com/bgricker/apiconform/internal/report"
	"github.com/bgricker/apiconform/internal/suite"
)

const ruleWidth = 60

// PrettyRenderer renders a run for humans: one line per result as it
// completes, then a summary with failed tests, findings and report sections.
type PrettyRenderer struct {
	out   io.Writer
	pass  func(a ...any) string
	fail  func(a ...any) string
	info  func(a ...any) string
	title func(a ...any) string
}

// NewPretty creates a PrettyRenderer writing to out. Colors are only emitted
// when colorize is set.
func NewPretty(out io.Writer, colorize bool) *PrettyRenderer {
	paint := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return &PrettyRenderer{
		out:   out,
		pass:  paint(color.FgGreen),
		fail:  paint(color.FgRed),
		info:  paint(color.FgCyan),
		title: paint(color.Bold),
	}
}

// RenderHeader prints the banner shown before the first result.
func (p *PrettyRenderer) RenderHeader(title string) error {
	_, err := fmt.Fprintf(p.out, "%s\n%s\n%s\n\n", rule(), p.title(title), rule())
	return err
}

// PrintResult prints a single result line with its details beneath.
func (p *PrettyRenderer) PrintResult(res report.TestResult) error {
	var status string
	switch {
	case res.Passed:
		status = p.pass("✅ PASS")
	case res.Skipped:
		status = p.info("⏭️  SKIP")
	default:
		status = p.fail("❌ FAIL")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s - %s\n", status, res.Name, res.Message)
	if len(res.Details) > 0 {
		fmt.Fprintf(&b, "   Details: %s\n", formatDetails(res.Details))
	}
	b.WriteString("\n")
	_, err := io.WriteString(p.out, b.String())
	return err
}

// RenderSummary prints the aggregates, the failed results, the derived
// findings and the static sections of the suite.
func (p *PrettyRenderer) RenderSummary(rep *report.RunReport, findings []issues.Finding, sections []suite.Section) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n%s\n", rule(), p.title("TEST SUMMARY"), rule())
	fmt.Fprintf(&b, "Total Tests: %d\n", rep.Total())
	fmt.Fprintf(&b, "Passed: %s\n", p.pass(rep.Passed()))
	fmt.Fprintf(&b, "Failed: %s\n", p.fail(rep.Failed()))
	if n := rep.Skipped(); n > 0 {
		fmt.Fprintf(&b, "Skipped: %s (counted as failed)\n", p.info(n))
	}
	fmt.Fprintf(&b, "Success Rate: %s\n", formatRate(rep))
	fmt.Fprintf(&b, "Duration: %s\n\n", formatDuration(rep.Duration()))

	if failed := rep.FailedResults(); len(failed) > 0 {
		b.WriteString(p.title("FAILED TESTS:") + "\n")
		table := tablewriter.NewWriter(&b)
		table.SetHeader([]string{"Test", "Message", "Details"})
		table.SetAutoWrapText(true)
		table.SetColWidth(48)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, res := range failed {
			table.Append([]string{res.Name, res.Message, formatDetails(res.Details)})
		}
		table.Render()
		b.WriteString("\n")
	}

	b.WriteString(p.title("CRITICAL ISSUES IDENTIFIED:") + "\n")
	for _, f := range findings {
		glyph := p.fail("❌")
		if !f.Critical() {
			glyph = p.info("ℹ️ ")
		}
		fmt.Fprintf(&b, "%s %s\n", glyph, f.Issue)
		for _, d := range f.Details {
			fmt.Fprintf(&b, "   • %s\n", d)
		}
	}

	for _, s := range sections {
		fmt.Fprintf(&b, "\n%s\n", p.title(s.Title+":"))
		for i, item := range s.Items {
			if s.Numbered {
				fmt.Fprintf(&b, "%d. %s\n", i+1, item)
				continue
			}
			fmt.Fprintf(&b, "   • %s\n", item)
		}
	}

	_, err := io.WriteString(p.out, b.String())
	return err
}

// RenderList prints suites with their cases in run order.
func (p *PrettyRenderer) RenderList(suites []suite.Suite) error {
	for _, s := range suites {
		if _, err := fmt.Fprintf(p.out, "Suite %s\n", decorateName(s.Name, s.Title, s.Source)); err != nil {
			return err
		}
		for _, name := range s.CaseNames() {
			if _, err := fmt.Fprintf(p.out, "  • %s\n", name); err != nil {
				return err
			}
		}
	}
	return nil
}

func decorateName(name, title, source string) string {
	label := name
	if title != "" && title != name {
		label = fmt.Sprintf("%s - %s", name, title)
	}
	if source == "" {
		return label
	}
	return fmt.Sprintf("%s (%s)", label, source)
}

func rule() string {
	return strings.Repeat("=", ruleWidth)
}

func formatRate(rep *report.RunReport) string {
	rate, ok := rep.SuccessRate()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", rate)
}

func formatDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Sprint(details)
	}
	return string(data)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}
