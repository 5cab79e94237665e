package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/toodle/pkg/toodle"
	"github.com/mesh-intelligence/toodle/pkg/types"
)

// dateLayouts are the accepted forms for date flags. Dates without a zone
// are local time.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseDate(s string) (*time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("date %q: expected YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC 3339", s)
}

// emit writes v as JSON or YAML when requested, otherwise runs text.
func (a *app) emit(w io.Writer, v any, text func(io.Writer) error) error {
	switch {
	case a.jsonOut:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case a.yamlOut:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}

// snapshotItems reads every item into records and closes the facades.
// Labels reached through Item.Snapshot belong to their item and go with
// item.Close; they are never closed here.
func snapshotItems(items []*toodle.Item) (recs []types.ItemRecord, err error) {
	defer func() {
		for _, item := range items {
			err = errors.Join(err, item.Close())
		}
	}()
	recs = make([]types.ItemRecord, 0, len(items))
	for _, item := range items {
		rec, err := item.Snapshot()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// snapshotLabels reads every label into records and closes the facades.
func snapshotLabels(labels []*toodle.Label) (recs []types.LabelRecord, err error) {
	defer func() {
		for _, l := range labels {
			err = errors.Join(err, l.Close())
		}
	}()
	recs = make([]types.LabelRecord, 0, len(labels))
	for _, l := range labels {
		rec, err := l.Snapshot()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func labelList(labels []types.LabelRecord) string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return strings.Join(names, ",")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printItemTable(w io.Writer, items []types.ItemRecord) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No items found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDUE\tDONE\tLABELS")
	for _, it := range items {
		done := ""
		if it.Done() {
			done = "x"
		}
		name := it.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", shortID(it.UUID), name, formatDate(it.DueDate), done, labelList(it.Labels))
	}
	return tw.Flush()
}

func printItem(w io.Writer, it types.ItemRecord) error {
	_, err := fmt.Fprintf(w, "ID:        %s\nName:      %s\nDue:       %s\nCompleted: %s\nLabels:    %s\n",
		it.UUID, it.Name, formatDate(it.DueDate), formatDate(it.CompletionDate), labelList(it.Labels))
	return err
}

func printLabelTable(w io.Writer, labels []types.LabelRecord) error {
	if len(labels) == 0 {
		_, err := fmt.Fprintln(w, "No labels found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR")
	for _, l := range labels {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", shortID(l.UUID), l.Name, l.Color)
	}
	return tw.Flush()
}
