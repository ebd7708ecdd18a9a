// Package commands implements the fsrecords CLI.
package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/iamNilotpal/fsrecords/config"
	loaderrors "github.com/iamNilotpal/fsrecords/pkg/errors"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configFile string
	directory  string
	logLevel   string
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	globals := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "fsrecords",
		Short: "Inspect and initialize persistent file records storages",
		Long: `fsrecords manages the persistent storages of file records, names and
contents kept under one directory.

Loading the storages classifies every failed attempt into a stable category
and rebuilds them when the category allows it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&globals.configFile, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&globals.directory, "dir", "", "storage directory (overrides storage_path)")
	cmd.PersistentFlags().StringVar(&globals.logLevel, "log-level", "", "debug, info, warn or error (overrides log_level)")

	cmd.AddCommand(NewLoadCmd(globals))
	cmd.AddCommand(NewCategoriesCmd())
	cmd.AddCommand(NewScheduleRebuildCmd(globals))

	return cmd
}

// resolveConfig loads the config file, if any, and applies flag overrides.
func (g *globalOptions) resolveConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if g.configFile != "" {
		loaded, err := config.LoadConfig(g.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if g.directory != "" {
		cfg.StoragePath = g.directory
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	return cfg, nil
}

// ExitCode maps an error to the process exit status: 2 for invalid options,
// 3 for a load failure, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case loaderrors.IsValidationError(err):
		return 2
	case loaderrors.IsLoadError(err):
		return 3
	default:
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		return 1
	}
}
