package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/toodle/pkg/toodle"
	"github.com/mesh-intelligence/toodle/pkg/types"
)

func (a *app) itemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage to-do items",
	}
	cmd.AddCommand(
		a.itemAddCmd(),
		a.itemListCmd(),
		a.itemShowCmd(),
		a.itemUpdateCmd(),
		a.itemDoneCmd(),
		a.itemSimpleCmd("undone", "Reopen a completed item", (*toodle.Item).ClearCompletionDate),
		a.itemSimpleCmd("clear-due", "Remove the due date of an item", (*toodle.Item).ClearDueDate),
	)
	return cmd
}

// resolveLabels looks up labels by name. The returned labels are owned by
// the caller and released by the returned func.
func resolveLabels(s *toodle.Store, names []string) ([]*toodle.Label, func(), error) {
	labels := make([]*toodle.Label, 0, len(names))
	release := func() {
		for _, l := range labels {
			_ = l.Close()
		}
	}
	for _, name := range names {
		l, err := s.LabelByName(name)
		if err != nil {
			release()
			return nil, nil, err
		}
		labels = append(labels, l)
	}
	return labels, release, nil
}

// withItem opens the store, fetches the item with the given uuid and runs fn.
func (a *app) withItem(id string, fn func(*toodle.Store, *toodle.Item) error) error {
	return a.withStore(func(s *toodle.Store) error {
		item, err := s.ItemByUUID(id)
		if err != nil {
			return err
		}
		defer item.Close()
		return fn(s, item)
	})
}

func (a *app) itemAddCmd() *cobra.Command {
	var (
		due    string
		labels []string
	)
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create an item",
		Example: `  toodle item add "Buy milk"
  toodle item add "Ship release" --due 2024-03-01 --label P0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dueDate *time.Time
			if due != "" {
				var err error
				if dueDate, err = parseDate(due); err != nil {
					return err
				}
			}
			return a.withStore(func(s *toodle.Store) error {
				ls, release, err := resolveLabels(s, labels)
				if err != nil {
					return err
				}
				defer release()

				item, err := s.CreateItem(args[0], dueDate, ls)
				if err != nil {
					return err
				}
				defer item.Close()
				rec, err := item.Snapshot()
				if err != nil {
					return err
				}
				a.logger.Info("item created", "uuid", rec.UUID)
				return a.emit(cmd.OutOrStdout(), rec, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "created %s\n", rec.UUID)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "due date")
	cmd.Flags().StringSliceVar(&labels, "label", nil, "label name (repeatable)")
	return cmd
}

func (a *app) itemListCmd() *cobra.Command {
	var (
		label    string
		onlyOpen bool
		onlyDone bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *toodle.Store) error {
				var (
					items []*toodle.Item
					err   error
				)
				if label != "" {
					l, lerr := s.LabelByName(label)
					if lerr != nil {
						return lerr
					}
					items, err = s.ItemsWithLabel(l)
					_ = l.Close()
				} else {
					items, err = s.AllItems()
				}
				if err != nil {
					return err
				}
				recs, err := snapshotItems(items)
				if err != nil {
					return err
				}
				recs = filterDone(recs, onlyOpen, onlyDone)
				return a.emit(cmd.OutOrStdout(), recs, func(w io.Writer) error {
					return printItemTable(w, recs)
				})
			})
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "only items with this label")
	cmd.Flags().BoolVar(&onlyOpen, "open", false, "only open items")
	cmd.Flags().BoolVar(&onlyDone, "done", false, "only completed items")
	cmd.MarkFlagsMutuallyExclusive("open", "done")
	return cmd
}

func filterDone(recs []types.ItemRecord, onlyOpen, onlyDone bool) []types.ItemRecord {
	if !onlyOpen && !onlyDone {
		return recs
	}
	out := recs[:0]
	for _, r := range recs {
		if r.Done() == onlyDone {
			out = append(out, r)
		}
	}
	return out
}

func (a *app) itemShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show UUID",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withItem(args[0], func(_ *toodle.Store, item *toodle.Item) error {
				rec, err := item.Snapshot()
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), rec, func(w io.Writer) error {
					return printItem(w, rec)
				})
			})
		},
	}
}

func (a *app) itemUpdateCmd() *cobra.Command {
	var (
		name        string
		due         string
		completed   string
		labels      []string
		clearLabels bool
	)
	cmd := &cobra.Command{
		Use:   "update UUID",
		Short: "Update an item",
		Long: `Update rewrites an item in one call. Flags left out keep their current
value. --label replaces the whole label set; --clear-labels removes every label.
Dates cannot be unset here; use "item undone" or "item clear-due".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dueDate, completionDate *time.Time
			var err error
			if due != "" {
				if dueDate, err = parseDate(due); err != nil {
					return err
				}
			}
			if completed != "" {
				if completionDate, err = parseDate(completed); err != nil {
					return err
				}
			}
			return a.withItem(args[0], func(s *toodle.Store, item *toodle.Item) error {
				newName := name
				if newName == "" {
					if newName, err = item.Name(); err != nil {
						return err
					}
				}

				var set []*toodle.Label
				switch {
				case clearLabels:
					set = []*toodle.Label{}
				case cmd.Flags().Changed("label"):
					ls, release, err := resolveLabels(s, labels)
					if err != nil {
						return err
					}
					defer release()
					set = ls
				default:
					// Owned by item and released by its Close in withItem;
					// closing them here would be a no-op.
					if set, err = item.Labels(); err != nil {
						return err
					}
				}

				if err := s.UpdateItem(item, newName, dueDate, completionDate, set); err != nil {
					return err
				}
				rec, err := item.Snapshot()
				if err != nil {
					return err
				}
				a.logger.Info("item updated", "uuid", rec.UUID)
				return a.emit(cmd.OutOrStdout(), rec, func(w io.Writer) error {
					return printItem(w, rec)
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&due, "due", "", "new due date")
	cmd.Flags().StringVar(&completed, "completed", "", "completion date")
	cmd.Flags().StringSliceVar(&labels, "label", nil, "label name (repeatable, replaces the label set)")
	cmd.Flags().BoolVar(&clearLabels, "clear-labels", false, "remove every label")
	cmd.MarkFlagsMutuallyExclusive("label", "clear-labels")
	return cmd
}

func (a *app) itemDoneCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "done UUID",
		Short: "Mark an item completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when := time.Now()
			if at != "" {
				t, err := parseDate(at)
				if err != nil {
					return err
				}
				when = *t
			}
			return a.withItem(args[0], func(_ *toodle.Store, item *toodle.Item) error {
				if err := item.SetCompletionDate(&when); err != nil {
					return err
				}
				return a.printUpdated(cmd, item)
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "completion date (default: now)")
	return cmd
}

// itemSimpleCmd builds a command applying one argument-free item mutation.
func (a *app) itemSimpleCmd(use, short string, apply func(*toodle.Item) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " UUID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withItem(args[0], func(_ *toodle.Store, item *toodle.Item) error {
				if err := apply(item); err != nil {
					return err
				}
				return a.printUpdated(cmd, item)
			})
		},
	}
}

func (a *app) printUpdated(cmd *cobra.Command, item *toodle.Item) error {
	rec, err := item.Snapshot()
	if err != nil {
		return err
	}
	return a.emit(cmd.OutOrStdout(), rec, func(w io.Writer) error {
		return printItem(w, rec)
	})
}
