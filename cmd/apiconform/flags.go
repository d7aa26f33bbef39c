package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bgricker/apiconform/internal/config"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	stringFlags := []struct {
		name   string
		target *config.StringFlag
	}{
		{"base-url", &values.BaseURL},
		{"suite", &values.Suite},
		{"format", &values.Format},
		{"xlsx", &values.XLSX},
	}
	for _, f := range stringFlags {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetString(f.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", f.name, err)
		}
		*f.target = config.StringFlag{Value: v, Set: true}
	}

	sliceFlags := []struct {
		name   string
		target *config.SliceFlag
	}{
		{"suite-file", &values.SuiteFiles},
		{"only", &values.Only},
		{"skip", &values.Skip},
	}
	for _, f := range sliceFlags {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetStringArray(f.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", f.name, err)
		}
		*f.target = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("delay") {
		v, err := flags.GetDuration("delay")
		if err != nil {
			return values, fmt.Errorf("parse --delay: %w", err)
		}
		values.Delay = config.DurationFlag{Value: v, Set: true}
	}

	if flags.Changed("timeout") {
		v, err := flags.GetDuration("timeout")
		if err != nil {
			return values, fmt.Errorf("parse --timeout: %w", err)
		}
		values.Timeout = config.DurationFlag{Value: v, Set: true}
	}

	if flags.Changed("verbose") {
		v, err := flags.GetBool("verbose")
		if err != nil {
			return values, fmt.Errorf("parse --verbose: %w", err)
		}
		values.Verbose = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("no-color") {
		v, err := flags.GetBool("no-color")
		if err != nil {
			return values, fmt.Errorf("parse --no-color: %w", err)
		}
		values.NoColor = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}
