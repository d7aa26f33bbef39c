package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SuiteDir is where suite files are looked up, relative to the project root.
var SuiteDir = filepath.Join(".apiconform", "suites")

// ErrNoSuites indicates that no suite files were found during discovery.
var ErrNoSuites = errors.New("no suite files discovered")

var suiteExtensions = []string{"*.yml", "*.yaml"}

// SuiteFiles returns declarative suite paths. Explicit paths are validated,
// deduplicated and returned in the order given; otherwise SuiteDir is globbed
// and the matches are sorted lexicographically.
func SuiteFiles(root string, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return resolveExplicit(root, explicit)
	}

	matches := make(map[string]struct{})
	for _, ext := range suiteExtensions {
		pattern := filepath.Join(root, SuiteDir, ext)
		found, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range found {
			matches[m] = struct{}{}
		}
	}
	if len(matches) == 0 {
		return nil, ErrNoSuites
	}

	paths := make([]string, 0, len(matches))
	for p := range matches {
		paths = append(paths, relOrClean(root, p))
	}
	sort.Strings(paths)
	return paths, nil
}

// Resolve joins a relative suite path onto root.
func Resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func resolveExplicit(root string, explicit []string) ([]string, error) {
	seen := make(map[string]struct{})
	resolved := make([]string, 0, len(explicit))
	for _, input := range explicit {
		full := Resolve(root, input)
		info, err := os.Stat(full)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("suite file %q not found", input)
			}
			return nil, fmt.Errorf("stat %q: %w", input, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("suite file %q is a directory", input)
		}
		rel := relOrClean(root, full)
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}
		resolved = append(resolved, rel)
	}
	return resolved, nil
}

func relOrClean(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Clean(path)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}
