package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bgricker/apiconform/internal/harness"
)

// Pattern represents a compiled match condition supporting substring and regex matching.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
}

// CompilePattern parses raw. Text wrapped in slashes is a regular expression,
// anything else is a case-sensitive substring.
func CompilePattern(raw string) (Pattern, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Pattern{}, fmt.Errorf("empty pattern")
	}
	if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
		expr := raw[1 : len(raw)-1]
		re, err := regexp.Compile(expr)
		if err != nil {
			return Pattern{}, fmt.Errorf("compile regexp %q: %w", raw, err)
		}
		return Pattern{raw: raw, regex: re}, nil
	}
	return Pattern{raw: raw}, nil
}

// Compile transforms raw pattern strings into Pattern values. Blank entries are skipped.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		p, err := CompilePattern(raw)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(s, p.raw)
}

// String returns the pattern as written.
func (p Pattern) String() string {
	return p.raw
}

// SelectCases keeps the cases matching any only pattern (all cases when only
// is empty) and drops those matching any skip pattern. Prerequisites of a kept
// case are kept too unless a skip pattern names them. Order is preserved.
func SelectCases(cases []harness.TestCase, onlyPatterns, skipPatterns []Pattern) []harness.TestCase {
	if len(cases) == 0 {
		return nil
	}
	keep := make(map[string]bool, len(cases))
	for _, tc := range cases {
		if len(onlyPatterns) > 0 && !matchesCase(tc, onlyPatterns) {
			continue
		}
		if len(skipPatterns) > 0 && matchesCase(tc, skipPatterns) {
			continue
		}
		keep[tc.Name] = true
	}

	// Requires only point backwards, so one reverse pass closes the set.
	index := make(map[string]harness.TestCase, len(cases))
	for _, tc := range cases {
		index[tc.Name] = tc
	}
	for i := len(cases) - 1; i >= 0; i-- {
		if !keep[cases[i].Name] {
			continue
		}
		for _, name := range cases[i].Requires {
			req, ok := index[name]
			if !ok || (len(skipPatterns) > 0 && matchesCase(req, skipPatterns)) {
				continue
			}
			keep[name] = true
		}
	}

	result := make([]harness.TestCase, 0, len(keep))
	for _, tc := range cases {
		if keep[tc.Name] {
			result = append(result, tc)
		}
	}
	return result
}

func matchesCase(tc harness.TestCase, patterns []Pattern) bool {
	for _, pattern := range patterns {
		if pattern.Match(tc.Name) || pattern.Match(tc.Metadata["path"]) {
			return true
		}
	}
	return false
}
