package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/toodle/pkg/toodle"
)

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and the store",
		Long:  "Create the config directory with a default config.yaml, then create todolist.db in the data directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.withStore(func(*toodle.Store) error { return nil })
			if err != nil {
				return fmt.Errorf("initialize store: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "toodle initialized\nconfig: %s\nstore:  %s\n", a.configDir, a.cfg.StorePath())
			return nil
		},
	}
}
