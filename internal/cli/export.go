package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/toodle/pkg/toodle"
)

func (a *app) exportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write labels and items as JSONL",
		Long:  "Export writes labels.jsonl and items.jsonl, replacing each file atomically.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := dir
			if out == "" {
				out = filepath.Join(a.cfg.DataDir, "export")
			}
			err := a.withStore(func(s *toodle.Store) error {
				return toodle.Export(s, out)
			})
			if err != nil {
				return sysErr(err)
			}
			a.logger.Info("exported", "dir", out)
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default: <data-dir>/export)")
	return cmd
}
