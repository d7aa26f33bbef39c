package suite

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/bgricker/apiconform/internal/apiclient"
	"github.com/bgricker/apiconform/internal/harness"
	"github.com/bgricker/apiconform/internal/issues"
)

// SourceFile marks suites loaded from a YAML document.
const SourceFile = "file"

// ExpectExists is the expect.json value that only asserts presence.
const ExpectExists = "exists"

// Placeholders substituted into string values of a check body.
const (
	placeholderEmail    = "$email"
	placeholderPassword = "$password"
)

var allowedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

type fileDocument struct {
	Name        string          `yaml:"name"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Checks      []checkDocument `yaml:"checks"`
	Rules       []issues.Rule   `yaml:"rules"`
	Sections    []Section       `yaml:"sections"`
}

type checkDocument struct {
	Name   string         `yaml:"name"`
	Method string         `yaml:"method"`
	Path   string         `yaml:"path"`
	Body   any            `yaml:"body"`
	Token  string         `yaml:"token"`
	Expect expectDocument `yaml:"expect"`
}

type expectDocument struct {
	Status []int          `yaml:"status"`
	JSON   map[string]any `yaml:"json"`
}

// ParseFile loads a declarative suite from path.
func ParseFile(path string) (Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return Suite{}, fmt.Errorf("open suite %q: %w", path, err)
	}
	defer f.Close()
	return Decode(f, path)
}

// Decode parses a declarative suite. displayPath names the document in errors
// and provides the suite name when the document has none.
func Decode(r io.Reader, displayPath string) (Suite, error) {
	var doc fileDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return Suite{}, fmt.Errorf("parse suite %q: %w", displayPath, err)
	}

	if doc.Name == "" {
		base := filepath.Base(displayPath)
		doc.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if doc.Title == "" {
		doc.Title = doc.Name
	}
	for i := range doc.Checks {
		c := &doc.Checks[i]
		c.Method = strings.ToUpper(c.Method)
		if c.Method == "" {
			c.Method = http.MethodGet
		}
		if len(c.Expect.Status) == 0 {
			c.Expect.Status = []int{http.StatusOK}
		}
	}

	if err := validateDocument(doc); err != nil {
		return Suite{}, fmt.Errorf("invalid suite %q: %w", displayPath, err)
	}

	checks := doc.Checks
	return Suite{
		Name:        doc.Name,
		Title:       doc.Title,
		Description: doc.Description,
		Source:      displayPath,
		Rules:       doc.Rules,
		Sections:    doc.Sections,
		Build: func(env Env) []harness.TestCase {
			creds := newCredentials(env, doc.Name)
			cases := make([]harness.TestCase, 0, len(checks))
			for _, c := range checks {
				cases = append(cases, checkCase(env, c, creds))
			}
			return cases
		},
	}, nil
}

func validateDocument(doc fileDocument) error {
	var errs *multierror.Error
	if len(doc.Checks) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("no checks defined"))
	}
	seen := make(map[string]struct{}, len(doc.Checks))
	for i, c := range doc.Checks {
		label := fmt.Sprintf("check %d", i+1)
		if c.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: name is required", label))
		} else {
			label = fmt.Sprintf("check %q", c.Name)
			if _, ok := seen[c.Name]; ok {
				errs = multierror.Append(errs, fmt.Errorf("%s: duplicate name", label))
			}
			seen[c.Name] = struct{}{}
		}
		if c.Path == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: path is required", label))
		}
		if _, ok := allowedMethods[c.Method]; !ok {
			errs = multierror.Append(errs, fmt.Errorf("%s: unsupported method %q", label, c.Method))
		}
		for _, code := range c.Expect.Status {
			if code < 100 || code > 599 {
				errs = multierror.Append(errs, fmt.Errorf("%s: invalid status %d", label, code))
			}
		}
		for p, v := range c.Expect.JSON {
			switch v.(type) {
			case nil, string, bool, int, float64:
			default:
				errs = multierror.Append(errs, fmt.Errorf("%s: expect.json %q must be a scalar", label, p))
			}
		}
	}
	if _, err := issues.Compile(doc.Rules); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

func checkCase(env Env, c checkDocument, creds credentials) harness.TestCase {
	paths := make([]string, 0, len(c.Expect.JSON))
	for p := range c.Expect.JSON {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	return testCase(c.Name, c.Method, c.Path, func(ctx context.Context) (harness.Outcome, error) {
		var body any
		if c.Body != nil {
			body = expandBody(c.Body, creds)
		}
		resp, err := env.Client.Do(ctx, c.Method, c.Path, body)
		if err != nil {
			return harness.Outcome{}, err
		}
		if err := apiclient.ExpectStatus(resp, c.Expect.Status...); err != nil {
			return harness.Outcome{}, err
		}
		if err := apiclient.ExpectJSON(resp, paths...); err != nil && len(paths) > 0 {
			return harness.Outcome{}, err
		}
		for _, p := range paths {
			want := c.Expect.JSON[p]
			if s, ok := want.(string); ok && s == ExpectExists {
				continue
			}
			got := resp.JSON(p)
			if !jsonEqual(got, want) {
				return harness.Fail(fmt.Sprintf("field %q is %s (expected %v)", p, got.Raw, want), bodyDetails(resp)), nil
			}
		}
		if c.Token != "" {
			if token := resp.JSON(c.Token).String(); token != "" {
				env.Client.SetToken(token)
			}
		}
		return harness.Pass(fmt.Sprintf("%s %s answered %d", c.Method, c.Path, resp.Status), nil), nil
	})
}

// jsonEqual compares a gjson result with a scalar decoded from YAML.
func jsonEqual(got gjson.Result, want any) bool {
	switch w := want.(type) {
	case nil:
		return got.Type == gjson.Null
	case string:
		return got.Type == gjson.String && got.Str == w
	case bool:
		return (got.Type == gjson.True && w) || (got.Type == gjson.False && !w)
	case int:
		return got.Type == gjson.Number && got.Num == float64(w)
	case float64:
		return got.Type == gjson.Number && got.Num == w
	default:
		return false
	}
}

// expandBody substitutes the per-suite credentials into placeholder strings.
func expandBody(v any, creds credentials) any {
	switch t := v.(type) {
	case string:
		switch t {
		case placeholderEmail:
			return creds.Email
		case placeholderPassword:
			return creds.Password
		}
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = expandBody(val, creds)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = expandBody(val, creds)
		}
		return out
	default:
		return v
	}
}
