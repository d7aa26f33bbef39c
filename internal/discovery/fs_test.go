package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSuiteFilesAuto(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, SuiteDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"smoke.yml", "auth.yaml", "shops.yml", "notes.txt"} {
		writeFile(t, filepath.Join(dir, name))
	}

	got, err := SuiteFiles(root, nil)
	if err != nil {
		t.Fatalf("SuiteFiles returned error: %v", err)
	}

	want := []string{
		".apiconform/suites/auth.yaml",
		".apiconform/suites/shops.yml",
		".apiconform/suites/smoke.yml",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d files, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: want %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSuiteFilesExplicit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "smoke.yml"))

	outside := filepath.Join(t.TempDir(), "external.yml")
	writeFile(t, outside)

	got, err := SuiteFiles(root, []string{"smoke.yml", outside, "./smoke.yml"})
	if err != nil {
		t.Fatalf("SuiteFiles returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 files, got %d: %v", len(got), got)
	}
	if got[0] != "smoke.yml" {
		t.Fatalf("first path mismatch: got %q", got[0])
	}
	if got[1] != outside {
		t.Fatalf("second path mismatch: got %q expected %q", got[1], outside)
	}
	if Resolve(root, got[0]) != filepath.Join(root, "smoke.yml") {
		t.Fatalf("Resolve did not join root: %q", Resolve(root, got[0]))
	}
}

func TestSuiteFilesErrors(t *testing.T) {
	root := t.TempDir()

	if _, err := SuiteFiles(root, nil); !errors.Is(err, ErrNoSuites) {
		t.Fatalf("expected ErrNoSuites, got %v", err)
	}
	if _, err := SuiteFiles(root, []string{"missing.yml"}); err == nil {
		t.Fatalf("expected error for missing file")
	}

	dir := filepath.Join(root, "dir.yml")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := SuiteFiles(root, []string{"dir.yml"}); err == nil {
		t.Fatalf("expected error for directory input")
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("checks: []\n"), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}
