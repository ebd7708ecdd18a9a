package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	loaderrors "github.com/iamNilotpal/fsrecords/pkg/errors"
)

// NewCategoriesCmd creates the categories command.
func NewCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List load failure categories and their recovery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, c := range loaderrors.Categories() {
				if _, err := fmt.Fprintf(out, "%-28s %s\n", c.String(), c.Recovery()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
