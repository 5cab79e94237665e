package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/toodle/pkg/toodle"
)

const modulePath = "github.com/mesh-intelligence/toodle"

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the toodle version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "toodle v%s\nmodule: %s\n", toodle.Version, modulePath)
			return nil
		},
	}
}
