package suite

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownSuite is returned by Lookup for names that were never added.
var ErrUnknownSuite = errors.New("unknown suite")

// Registry indexes suites by name, keeping insertion order.
type Registry struct {
	order  []string
	suites map[string]Suite
}

// NewRegistry returns a registry holding suites, in order.
func NewRegistry(suites ...Suite) (*Registry, error) {
	r := &Registry{suites: make(map[string]Suite, len(suites))}
	for _, s := range suites {
		if err := r.Add(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers s. Names must be unique.
func (r *Registry) Add(s Suite) error {
	if s.Name == "" {
		return errors.New("suite name is required")
	}
	if existing, ok := r.suites[s.Name]; ok {
		return fmt.Errorf("suite %q from %s already defined by %s", s.Name, s.Source, existing.Source)
	}
	r.suites[s.Name] = s
	r.order = append(r.order, s.Name)
	return nil
}

// Lookup returns the suite called name.
func (r *Registry) Lookup(name string) (Suite, error) {
	s, ok := r.suites[name]
	if !ok {
		known := append([]string(nil), r.order...)
		sort.Strings(known)
		return Suite{}, fmt.Errorf("%w %q (available: %v)", ErrUnknownSuite, name, known)
	}
	return s, nil
}

// Suites returns every suite in insertion order.
func (r *Registry) Suites() []Suite {
	out := make([]Suite, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.suites[name])
	}
	return out
}

// Names returns suite names in insertion order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
