package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bgricker/apiconform/internal/apiclient"
	"github.com/bgricker/apiconform/internal/config"
	"github.com/bgricker/apiconform/internal/discovery"
	"github.com/bgricker/apiconform/internal/filter"
	"github.com/bgricker/apiconform/internal/harness"
	"github.com/bgricker/apiconform/internal/issues"
	"github.com/bgricker/apiconform/internal/logging"
	"github.com/bgricker/apiconform/internal/output"
	"github.com/bgricker/apiconform/internal/suite"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a conformance suite (the default command)",
		Args:  cobra.NoArgs,
		RunE:  runSuite,
	}
}

func runSuite(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	colorize := useColor(cfg)
	logger := logging.New(cmd.ErrOrStderr(), logging.Options{Verbose: cfg.Verbose, Color: colorize})
	defer func() { _ = logger.Sync() }()

	reg, err := loadRegistry(root, cfg, logger)
	if err != nil {
		return commandError("load suites", err)
	}
	selected, err := reg.Lookup(cfg.Suite)
	if err != nil {
		return commandError("select suite", err)
	}
	table, err := issues.Compile(cfg.Rules(selected.Rules))
	if err != nil {
		return commandError(fmt.Sprintf("rules for suite %q", selected.Name), err)
	}

	client, err := apiclient.New(cfg.BaseURL, apiclient.Options{Timeout: cfg.Timeout, Logger: logger})
	if err != nil {
		return commandError("create client", err)
	}

	only, err := filter.Compile(cfg.Only)
	if err != nil {
		return commandError("--only", err)
	}
	skip, err := filter.Compile(cfg.Skip)
	if err != nil {
		return commandError("--skip", err)
	}
	cases := filter.SelectCases(selected.Cases(suite.NewEnv(client)), only, skip)
	if len(cases) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching test cases")
		return nil
	}

	out := cmd.OutOrStdout()
	format := strings.ToLower(cfg.Format)
	pretty := output.NewPretty(out, colorize)

	delay := cfg.Delay
	if delay == 0 {
		delay = -1
	}
	opts := harness.Options{
		Suite:  selected.Name,
		Target: client.BaseURL(),
		Delay:  delay,
		Logger: logger,
	}
	if format == config.FormatPretty {
		opts.Printer = pretty
		if err := pretty.RenderHeader(selected.Title); err != nil {
			return err
		}
	}

	h := harness.New(opts)
	if err := h.RegisterAll(cases); err != nil {
		return commandError(fmt.Sprintf("suite %q", selected.Name), err)
	}
	rep := h.Run(cmd.Context())
	findings := table.Derive(rep)
	doc := output.NewReport(selected.Title, rep, findings, selected.Sections)

	switch format {
	case config.FormatPretty:
		if err := pretty.RenderSummary(rep, findings, selected.Sections); err != nil {
			return err
		}
	case config.FormatJSON:
		if err := output.NewJSON(out).Render(doc); err != nil {
			return err
		}
	default:
		return commandError("render", fmt.Errorf("unsupported format %q", cfg.Format))
	}

	if cfg.XLSX != "" {
		path := discovery.Resolve(root, cfg.XLSX)
		if err := output.WriteXLSXFile(path, doc, caseMetadata(cases)); err != nil {
			return commandError("write xlsx report", err)
		}
		logger.Info("xlsx report written", zap.String("path", path))
	}

	if err := cmd.Context().Err(); err != nil {
		return &ExitError{Code: ExitFailure, Message: "run interrupted", Err: err}
	}
	if rep.ExitCode() != ExitSuccess {
		return &ExitError{Code: rep.ExitCode(), Message: fmt.Sprintf("%d of %d tests failed", rep.Failed(), rep.Total())}
	}
	return nil
}

func caseMetadata(cases []harness.TestCase) map[string]map[string]string {
	meta := make(map[string]map[string]string, len(cases))
	for _, tc := range cases {
		meta[tc.Name] = tc.Metadata
	}
	return meta
}

func useColor(cfg config.Config) bool {
	return !cfg.NoColor && !color.NoColor
}
