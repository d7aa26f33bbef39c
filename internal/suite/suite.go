// Package suite defines named batteries of conformance checks. A suite
// supplies the ordered test cases, the critical-issue rules used to diagnose
// its failures, and the static report sections printed after the summary.
package suite

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bgricker/apiconform/internal/apiclient"
	"github.com/bgricker/apiconform/internal/harness"
	"github.com/bgricker/apiconform/internal/issues"
)

// SourceBuiltin marks suites compiled into the binary.
const SourceBuiltin = "builtin"

// TestPassword is used for every account a suite creates.
const TestPassword = "TestPassword123!"

// Section is a static, hand-authored block of report text.
type Section struct {
	Title    string   `yaml:"title" json:"title"`
	Items    []string `yaml:"items" json:"items"`
	Numbered bool     `yaml:"numbered,omitempty" json:"numbered,omitempty"`
}

// Env is what a suite needs to build its cases.
type Env struct {
	Client *apiclient.Client
	Email  func(prefix string) string
}

// NewEnv returns an Env whose emails are unique per call.
func NewEnv(client *apiclient.Client) Env {
	return Env{Client: client, Email: UniqueEmail}
}

// UniqueEmail returns prefix.<8 hex>@gmail.com.
func UniqueEmail(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s.%s@gmail.com", prefix, id[:8])
}

// Suite is a named battery of checks.
type Suite struct {
	Name        string
	Title       string
	Description string
	Source      string
	Build       func(env Env) []harness.TestCase
	Rules       []issues.Rule
	Sections    []Section
}

// Cases builds the ordered cases of s against env.
func (s Suite) Cases(env Env) []harness.TestCase {
	if s.Build == nil {
		return nil
	}
	return s.Build(env)
}

// CaseNames lists case names without touching the network.
func (s Suite) CaseNames() []string {
	cases := s.Cases(Env{Email: UniqueEmail})
	names := make([]string, 0, len(cases))
	for _, tc := range cases {
		names = append(names, tc.Name)
	}
	return names
}

// Builtins returns the suites compiled into the binary, default first.
func Builtins() []Suite {
	return []Suite{Core(), Registration(), Analysis()}
}
