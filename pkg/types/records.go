package types

import "time"

// LabelRecord is a plain value snapshot of a label, detached from any handle.
type LabelRecord struct {
	UUID  string `json:"uuid" yaml:"uuid"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// ItemRecord is a plain value snapshot of an item and its labels.
type ItemRecord struct {
	UUID           string        `json:"uuid" yaml:"uuid"`
	Name           string        `json:"name" yaml:"name"`
	DueDate        *time.Time    `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	CompletionDate *time.Time    `json:"completion_date,omitempty" yaml:"completion_date,omitempty"`
	Labels         []LabelRecord `json:"labels" yaml:"labels"`
}

// Done reports whether the item has a completion date.
func (r ItemRecord) Done() bool {
	return r.CompletionDate != nil
}
