package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bgricker/apiconform/internal/config"
	"github.com/bgricker/apiconform/internal/discovery"
	"github.com/bgricker/apiconform/internal/suite"
)

// loadConfig layers defaults, the config file, the environment and changed
// flags, then validates the result.
func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	root, err := os.Getwd()
	if err != nil {
		return config.Config{}, "", fmt.Errorf("determine working directory: %w", err)
	}

	var cfg config.Config
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err = config.LoadFile(discovery.Resolve(root, path))
	} else {
		cfg, err = config.Load(root)
	}
	if err != nil {
		return config.Config{}, "", commandError("load config", err)
	}
	config.ApplyEnv(&cfg, os.LookupEnv)

	flags, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, "", commandError("read flags", err)
	}
	config.ApplyFlags(&cfg, flags)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, "", commandError("invalid configuration", err)
	}
	return cfg, root, nil
}

// loadRegistry returns the built-in suites plus every declarative suite file.
// Explicit suite files must exist; an absent suite directory is not an error.
func loadRegistry(root string, cfg config.Config, logger *zap.Logger) (*suite.Registry, error) {
	reg, err := suite.NewRegistry(suite.Builtins()...)
	if err != nil {
		return nil, err
	}

	paths, err := discovery.SuiteFiles(root, cfg.SuiteFiles)
	if err != nil {
		if errors.Is(err, discovery.ErrNoSuites) {
			return reg, nil
		}
		return nil, err
	}

	for _, p := range paths {
		s, err := suite.ParseFile(discovery.Resolve(root, p))
		if err != nil {
			return nil, err
		}
		s.Source = p
		if err := reg.Add(s); err != nil {
			return nil, err
		}
		logger.Debug("loaded suite file", zap.String("suite", s.Name), zap.String("path", p))
	}
	return reg, nil
}
