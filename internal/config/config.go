package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/bgricker/apiconform/internal/filter"
	"github.com/bgricker/apiconform/internal/issues"
)

// Config captures CLI options sourced from config files, the environment or flags.
type Config struct {
	BaseURL    string   `yaml:"base_url"`
	Suite      string   `yaml:"suite"`
	SuiteFiles []string `yaml:"suite_files"`

	// Only and Skip select cases by name or path pattern.
	Only []string `yaml:"only"`
	Skip []string `yaml:"skip"`

	Delay   time.Duration `yaml:"delay"`
	Timeout time.Duration `yaml:"timeout"`

	Format  string `yaml:"format"`
	XLSX    string `yaml:"xlsx"`
	Verbose bool   `yaml:"verbose"`
	NoColor bool   `yaml:"no_color"`

	// Issues are appended to the selected suite's rules, or replace them
	// when ReplaceIssues is set.
	Issues        []issues.Rule `yaml:"issues"`
	ReplaceIssues bool          `yaml:"replace_issues"`
}

const (
	// DefaultBaseURL is the local development API.
	DefaultBaseURL = "http://localhost:3000/api"
	// DefaultSuite runs when no suite is named.
	DefaultSuite = "core"
	// DefaultDelay is the pause between cases.
	DefaultDelay = 500 * time.Millisecond
	// DefaultTimeout bounds each request.
	DefaultTimeout = 10 * time.Second

	// FileName is the project config file looked up in the working directory.
	FileName = ".apiconform.yml"
	// EnvBaseURL overrides the base URL from the environment.
	EnvBaseURL = "APICONFORM_BASE_URL"

	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"
)

// Default returns the baseline configuration used when no flags or config file specify values.
func Default() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Suite:   DefaultSuite,
		Delay:   DefaultDelay,
		Timeout: DefaultTimeout,
		Format:  FormatPretty,
	}
}

// Load reads FileName from root when present. Missing files are ignored.
func Load(root string) (Config, error) {
	cfg, err := LoadFile(filepath.Join(root, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFile merges the config file at path over Default. A missing file is an
// error wrapping os.ErrNotExist.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	return merge(cfg, fileCfg), nil
}

func merge(base, override Config) Config {
	out := base

	if override.BaseURL != "" {
		out.BaseURL = override.BaseURL
	}
	if override.Suite != "" {
		out.Suite = override.Suite
	}
	if len(override.SuiteFiles) > 0 {
		out.SuiteFiles = append([]string{}, override.SuiteFiles...)
	}
	if len(override.Only) > 0 {
		out.Only = append([]string{}, override.Only...)
	}
	if len(override.Skip) > 0 {
		out.Skip = append([]string{}, override.Skip...)
	}
	if override.Delay != 0 {
		out.Delay = override.Delay
	}
	if override.Timeout != 0 {
		out.Timeout = override.Timeout
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.XLSX != "" {
		out.XLSX = override.XLSX
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.NoColor {
		out.NoColor = true
	}
	if len(override.Issues) > 0 {
		out.Issues = append([]issues.Rule{}, override.Issues...)
	}
	if override.ReplaceIssues {
		out.ReplaceIssues = true
	}

	return out
}

// ApplyEnv overrides cfg from the environment; lookup is os.LookupEnv in production.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBaseURL); ok && strings.TrimSpace(v) != "" {
		cfg.BaseURL = strings.TrimSpace(v)
	}
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.BaseURL.Set {
		cfg.BaseURL = flags.BaseURL.Value
	}
	if flags.Suite.Set {
		cfg.Suite = flags.Suite.Value
	}
	if len(flags.SuiteFiles.Values) > 0 {
		cfg.SuiteFiles = append([]string{}, flags.SuiteFiles.Values...)
	}
	if len(flags.Only.Values) > 0 {
		cfg.Only = append([]string{}, flags.Only.Values...)
	}
	if len(flags.Skip.Values) > 0 {
		cfg.Skip = append([]string{}, flags.Skip.Values...)
	}
	if flags.Delay.Set {
		cfg.Delay = flags.Delay.Value
	}
	if flags.Timeout.Set {
		cfg.Timeout = flags.Timeout.Value
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.XLSX.Set {
		cfg.XLSX = flags.XLSX.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
	if flags.NoColor.Set {
		cfg.NoColor = flags.NoColor.Value
	}
}

// Validate reports every problem with cfg at once.
func (c Config) Validate() error {
	var errs *multierror.Error

	if u, err := url.Parse(c.BaseURL); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("base url %q: %w", c.BaseURL, err))
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = multierror.Append(errs, fmt.Errorf("base url %q must be an absolute http(s) URL", c.BaseURL))
	}
	if strings.TrimSpace(c.Suite) == "" {
		errs = multierror.Append(errs, errors.New("suite must not be empty"))
	}
	if c.Delay < 0 {
		errs = multierror.Append(errs, fmt.Errorf("delay must not be negative, got %s", c.Delay))
	}
	if c.Timeout <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	switch strings.ToLower(c.Format) {
	case FormatPretty, FormatJSON:
	default:
		errs = multierror.Append(errs, fmt.Errorf("unsupported format %q", c.Format))
	}
	if _, err := filter.Compile(c.Only); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("only: %w", err))
	}
	if _, err := filter.Compile(c.Skip); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("skip: %w", err))
	}
	if _, err := issues.Compile(c.Issues); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("issues: %w", err))
	}

	return errs.ErrorOrNil()
}

// Rules returns the rule table for a suite whose own rules are base.
func (c Config) Rules(base []issues.Rule) []issues.Rule {
	if c.ReplaceIssues {
		return append([]issues.Rule{}, c.Issues...)
	}
	out := append([]issues.Rule{}, base...)
	return append(out, c.Issues...)
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	BaseURL    StringFlag
	Suite      StringFlag
	SuiteFiles SliceFlag
	Only       SliceFlag
	Skip       SliceFlag
	Delay      DurationFlag
	Timeout    DurationFlag
	Format     StringFlag
	XLSX       StringFlag
	Verbose    BoolFlag
	NoColor    BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}

// DurationFlag represents a duration flag and whether it was set.
type DurationFlag struct {
	Value time.Duration
	Set   bool
}
