package issues

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/bgricker/apiconform/internal/filter"
	"github.com/bgricker/apiconform/internal/report"
)

const (
	// FieldName matches against the result name.
	FieldName = "name"
	// FieldMessage matches against the result message.
	FieldMessage = "message"

	// OnFailed fires the rule for failed results.
	OnFailed = "failed"
	// OnPassed fires the rule for passed results.
	OnPassed = "passed"

	// SeverityCritical marks a finding as a critical issue.
	SeverityCritical = "critical"
	// SeverityInfo marks a finding as informational.
	SeverityInfo = "info"
)

// NoCriticalIssues is the informational entry emitted when no critical finding fires.
const NoCriticalIssues = "No critical issues identified"

// Rule maps a pattern over results to a diagnosis.
type Rule struct {
	Match    string   `yaml:"match" json:"match"`
	Field    string   `yaml:"field,omitempty" json:"field,omitempty"`
	On       string   `yaml:"on,omitempty" json:"on,omitempty"`
	Severity string   `yaml:"severity,omitempty" json:"severity,omitempty"`
	Issue    string   `yaml:"issue" json:"issue"`
	Details  []string `yaml:"details,omitempty" json:"details,omitempty"`
}

// Finding is a diagnosis derived from a run.
type Finding struct {
	Severity string   `json:"severity"`
	Issue    string   `json:"issue"`
	Details  []string `json:"details,omitempty"`
	Matched  []string `json:"matched,omitempty"`
}

// Critical reports whether f is a critical issue.
func (f Finding) Critical() bool {
	return f.Severity == SeverityCritical
}

type compiledRule struct {
	rule    Rule
	pattern filter.Pattern
}

// Table is an ordered set of compiled rules.
type Table struct {
	rules []compiledRule
}

// DefaultRules returns the generic rule table: failing profile, auth and
// database checks each imply a critical issue.
func DefaultRules() []Rule {
	return []Rule{
		{Match: "Profile", Issue: "User profile creation missing after signup - RLS policies likely failing"},
		{Match: "Auth", Issue: "Authentication flow has critical issues"},
		{Match: "/DB|Database/", Issue: "Database operations failing - likely RLS policy violations"},
	}
}

// Compile validates rules and fills defaults. All problems are reported together.
func Compile(rules []Rule) (Table, error) {
	var errs *multierror.Error
	table := Table{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		r = normalize(r)
		pattern, err := filter.CompilePattern(r.Match)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("rule %d: %w", i+1, err))
			continue
		}
		if err := validate(r); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("rule %d (%s): %w", i+1, r.Match, err))
			continue
		}
		table.rules = append(table.rules, compiledRule{rule: r, pattern: pattern})
	}
	if err := errs.ErrorOrNil(); err != nil {
		return Table{}, err
	}
	return table, nil
}

// MustCompile is Compile for static rule tables.
func MustCompile(rules []Rule) Table {
	t, err := Compile(rules)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of rules.
func (t Table) Len() int {
	return len(t.rules)
}

// Derive evaluates the table over rep. Each rule fires at most once and
// findings keep table order. Skipped results never match. When no critical
// finding fires a single informational NoCriticalIssues entry is appended.
func (t Table) Derive(rep *report.RunReport) []Finding {
	var findings []Finding
	critical := false
	for _, cr := range t.rules {
		var matched []string
		for _, res := range rep.Results {
			if !cr.applies(res) {
				continue
			}
			matched = append(matched, res.Name)
		}
		if len(matched) == 0 {
			continue
		}
		f := Finding{
			Severity: cr.rule.Severity,
			Issue:    cr.rule.Issue,
			Details:  append([]string(nil), cr.rule.Details...),
			Matched:  matched,
		}
		if f.Critical() {
			critical = true
		}
		findings = append(findings, f)
	}
	if !critical {
		findings = append(findings, Finding{Severity: SeverityInfo, Issue: NoCriticalIssues})
	}
	return findings
}

func (cr compiledRule) applies(res report.TestResult) bool {
	if res.Skipped {
		return false
	}
	switch cr.rule.On {
	case OnPassed:
		if !res.Passed {
			return false
		}
	default:
		if res.Passed {
			return false
		}
	}
	if cr.rule.Field == FieldMessage {
		return cr.pattern.Match(res.Message)
	}
	return cr.pattern.Match(res.Name)
}

func normalize(r Rule) Rule {
	r.Field = strings.ToLower(strings.TrimSpace(r.Field))
	r.On = strings.ToLower(strings.TrimSpace(r.On))
	r.Severity = strings.ToLower(strings.TrimSpace(r.Severity))
	if r.Field == "" {
		r.Field = FieldName
	}
	if r.On == "" {
		r.On = OnFailed
	}
	if r.Severity == "" {
		r.Severity = SeverityCritical
	}
	return r
}

func validate(r Rule) error {
	if strings.TrimSpace(r.Issue) == "" {
		return fmt.Errorf("issue text is required")
	}
	switch r.Field {
	case FieldName, FieldMessage:
	default:
		return fmt.Errorf("unsupported field %q", r.Field)
	}
	switch r.On {
	case OnFailed, OnPassed:
	default:
		return fmt.Errorf("unsupported trigger %q", r.On)
	}
	switch r.Severity {
	case SeverityCritical, SeverityInfo:
	default:
		return fmt.Errorf("unsupported severity %q", r.Severity)
	}
	return nil
}
