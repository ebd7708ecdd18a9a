package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iamNilotpal/fsrecords/internal/core/services/fsrecords"
	"github.com/iamNilotpal/fsrecords/pkg/fs"
)

// NewScheduleRebuildCmd creates the schedule-rebuild command.
func NewScheduleRebuildCmd(globals *globalOptions) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "schedule-rebuild",
		Short: "Ask the next load to discard and rebuild the storages",
		Example: `  # Force a rebuild on next start
  fsrecords schedule-rebuild --dir /var/cache/fsrecords --reason "format upgrade"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := globals.resolveConfig()
			if err != nil {
				return err
			}

			if err := fsrecords.ScheduleRebuild(fs.NewLocalFileSystem(), cfg.StoragePath, reason); err != nil {
				return fmt.Errorf("scheduling rebuild: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "rebuild scheduled in %s\n", cfg.StoragePath)
			return err
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "requested from command line", "reason recorded in the rebuild marker")
	return cmd
}
