package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bgricker/apiconform/internal/output"
)

func TestListCommandBuiltins(t *testing.T) {
	chdir(t, t.TempDir())

	out, _, err := execute(t, "list", "--no-color")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	for _, want := range []string{"core", "registration", "analysis", "  • Health Check", "  • Missing Endpoints Analysis"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestListCommandJSONWithDiscoveredSuites(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	suiteDir := filepath.Join(dir, ".apiconform", "suites")
	if err := os.MkdirAll(suiteDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	doc := []byte("checks:\n  - name: Ping\n    path: /health\n")
	if err := os.WriteFile(filepath.Join(suiteDir, "ping.yaml"), doc, 0o644); err != nil {
		t.Fatalf("write suite: %v", err)
	}

	out, _, err := execute(t, "list", "--format", "json")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}

	var decoded []output.SuiteListing
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(decoded) != 4 {
		t.Fatalf("expected builtins plus discovered suite, got %+v", decoded)
	}
	last := decoded[3]
	if last.Name != "ping" || len(last.Cases) != 1 || last.Cases[0] != "Ping" {
		t.Fatalf("discovered suite mismatch: %+v", last)
	}
}

func TestListCommandNamedSuite(t *testing.T) {
	chdir(t, t.TempDir())

	out, _, err := execute(t, "list", "registration", "--format", "json")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	var decoded []output.SuiteListing
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Name != "registration" {
		t.Fatalf("unexpected listing: %+v", decoded)
	}

	_, _, err = execute(t, "list", "missing")
	if exitCode(err) != ExitCommandError {
		t.Fatalf("expected command error, got %v", err)
	}
}

func TestListCommandInvalidSuiteFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "bad.yml"), []byte("checks: []\n"), 0o644); err != nil {
		t.Fatalf("write suite: %v", err)
	}

	_, _, err := execute(t, "list", "--suite-file", "bad.yml")
	if exitCode(err) != ExitCommandError {
		t.Fatalf("expected command error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no checks defined") {
		t.Fatalf("unexpected error: %v", err)
	}
}
