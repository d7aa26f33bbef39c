package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bgricker/apiconform/internal/config"
	"github.com/bgricker/apiconform/internal/logging"
	"github.com/bgricker/apiconform/internal/output"
	"github.com/bgricker/apiconform/internal/suite"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [suite...]",
		Short: "List available suites and their cases",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(cmd.ErrOrStderr(), logging.Options{Verbose: cfg.Verbose, Color: useColor(cfg)})
	defer func() { _ = logger.Sync() }()

	reg, err := loadRegistry(root, cfg, logger)
	if err != nil {
		return commandError("load suites", err)
	}

	suites := reg.Suites()
	if len(args) > 0 {
		suites = make([]suite.Suite, 0, len(args))
		for _, name := range args {
			s, err := reg.Lookup(name)
			if err != nil {
				return commandError("select suite", err)
			}
			suites = append(suites, s)
		}
	}

	return renderList(cmd, cfg, suites)
}

func renderList(cmd *cobra.Command, cfg config.Config, suites []suite.Suite) error {
	switch strings.ToLower(cfg.Format) {
	case config.FormatPretty:
		return output.NewPretty(cmd.OutOrStdout(), useColor(cfg)).RenderList(suites)
	case config.FormatJSON:
		return output.NewJSON(cmd.OutOrStdout()).RenderList(suites)
	default:
		return commandError("render", fmt.Errorf("unsupported format %q", cfg.Format))
	}
}
