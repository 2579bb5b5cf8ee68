// Package presenter renders ranked hotspot tables and carries out the
// navigation a user picks from them.
package presenter

import (
	"context"

	"github.com/perf-annotate/pkg/model"
)

// Item is one row handed to a presenter. Format is bound to the table's
// denominator and applied lazily when the row is rendered.
type Item struct {
	Entry  model.Entry
	Format func(model.Entry) string
}

// Label renders the row.
func (i Item) Label() string {
	if i.Format == nil {
		return ""
	}
	return i.Format(i.Entry)
}

// Table is a ranked result ready for presentation.
type Table struct {
	// Prompt labels the table, e.g. "Hottest lines (cycles)".
	Prompt string
	// Total is the denominator the rows were filtered and formatted against.
	Total uint64
	Items []Item
}

// JumpFunc is invoked at most once with the entry the user picked, or with
// nil when the user cancels.
type JumpFunc func(ctx context.Context, entry *model.Entry)

// Presenter shows a table. Interactive presenters call jump once a row is
// chosen; non-interactive presenters never call it.
type Presenter interface {
	Present(ctx context.Context, table Table, jump JumpFunc) error
}

// Navigator opens a file, at a line when line > 0.
type Navigator interface {
	Navigate(ctx context.Context, file string, line uint32) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, file string, line uint32) error

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(ctx context.Context, file string, line uint32) error {
	return f(ctx, file, line)
}

func choose(ctx context.Context, jump JumpFunc, items []Item, index int) {
	if jump == nil {
		return
	}
	if index < 0 || index >= len(items) {
		jump(ctx, nil)
		return
	}
	e := items[index].Entry
	jump(ctx, &e)
}
