package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tsawler/folio"
)

// newRootCmd creates the root folio command with all subcommands registered.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "folio",
		Short:         "folio - parse and inspect EPUB archives",
		Version:       folio.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file with parsing parameters")

	root.AddCommand(newInspectCmd(&configPath))
	root.AddCommand(newTextCmd(&configPath))
	root.AddCommand(newTOCCmd(&configPath))
	return root
}

// loadConfig returns the parsing configuration, overlaying a YAML file on
// the defaults when one was given.
func loadConfig(path string) (folio.Config, error) {
	cfg := folio.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// parseBook runs the pipeline for a CLI command.
func parseBook(configPath, epubPath string) (*folio.Result, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return folio.Open(epubPath).WithConfig(cfg).Parse()
}
