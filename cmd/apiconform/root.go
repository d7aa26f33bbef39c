package main

import (
	"github.com/spf13/cobra"

	"github.com/bgricker/apiconform/internal/config"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "apiconform",
		Short:         "Apiconform runs black-box conformance suites against an HTTP API",
		Long:          "Apiconform runs an ordered battery of HTTP checks against a live API, prints each result as it completes and summarizes failures and the critical issues they imply.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          runSuite,
	}

	persistent := cmd.PersistentFlags()
	persistent.String("config", "", "config file (default ./"+config.FileName+")")
	persistent.String("base-url", config.DefaultBaseURL, "API base URL (env "+config.EnvBaseURL+")")
	persistent.StringP("suite", "s", config.DefaultSuite, "suite to run")
	persistent.StringArray("suite-file", nil, "declarative suite file to load (repeatable)")
	persistent.StringArray("only", nil, "run only cases whose name or path matches (repeatable)")
	persistent.StringArray("skip", nil, "skip cases whose name or path matches (repeatable)")
	persistent.Duration("delay", config.DefaultDelay, "pause between cases (0 disables)")
	persistent.Duration("timeout", config.DefaultTimeout, "per-request timeout")
	persistent.String("format", config.FormatPretty, "output format (pretty|json)")
	persistent.String("xlsx", "", "also write the report to this XLSX file")
	persistent.BoolP("verbose", "v", false, "log requests and harness progress to stderr")
	persistent.Bool("no-color", false, "disable colored output")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
