package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/toodle/pkg/toodle"
)

func (a *app) labelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Manage labels",
	}
	cmd.AddCommand(a.labelAddCmd(), a.labelListCmd())
	return cmd
}

func (a *app) labelAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME COLOR",
		Short: "Create a label, or recolor an existing one",
		Example: `  toodle label add P0 '#B80000'
  toodle label add home '#0a0'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *toodle.Store) error {
				l, err := s.CreateLabel(args[0], args[1])
				if err != nil {
					return err
				}
				defer l.Close()
				rec, err := l.Snapshot()
				if err != nil {
					return err
				}
				a.logger.Info("label saved", "name", rec.Name, "color", rec.Color)
				return a.emit(cmd.OutOrStdout(), rec, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "label %s %s\n", rec.Name, rec.Color)
					return err
				})
			})
		},
	}
}

func (a *app) labelListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *toodle.Store) error {
				labels, err := s.AllLabels()
				if err != nil {
					return err
				}
				recs, err := snapshotLabels(labels)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), recs, func(w io.Writer) error {
					return printLabelTable(w, recs)
				})
			})
		},
	}
}
