package presenter

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/perf-annotate/pkg/model"
	"github.com/perf-annotate/pkg/writer"
)

// TextPresenter writes a numbered plain-text table.
type TextPresenter struct {
	w io.Writer
}

// NewTextPresenter creates a TextPresenter writing to w.
func NewTextPresenter(w io.Writer) *TextPresenter {
	return &TextPresenter{w: w}
}

// Present implements Presenter.
func (p *TextPresenter) Present(_ context.Context, table Table, _ JumpFunc) error {
	return writeTable(p.w, table)
}

func writeTable(w io.Writer, table Table) error {
	if _, err := fmt.Fprintf(w, "=== %s (total %s) ===\n", table.Prompt, humanize.Comma(int64(table.Total))); err != nil {
		return err
	}
	if len(table.Items) == 0 {
		_, err := fmt.Fprintln(w, "  (no entries above threshold)")
		return err
	}
	for i, item := range table.Items {
		if _, err := fmt.Fprintf(w, "  %3d. %s\n", i+1, item.Label()); err != nil {
			return err
		}
	}
	return nil
}

// Report is the JSON form of a table.
type Report struct {
	Prompt string       `json:"prompt"`
	Total  uint64       `json:"total"`
	Items  []ReportItem `json:"items"`
}

// ReportItem is one JSON row.
type ReportItem struct {
	Label string      `json:"label"`
	Entry model.Entry `json:"entry"`
}

// NewReport converts a table to its JSON form.
func NewReport(table Table) Report {
	r := Report{
		Prompt: table.Prompt,
		Total:  table.Total,
		Items:  make([]ReportItem, 0, len(table.Items)),
	}
	for _, item := range table.Items {
		r.Items = append(r.Items, ReportItem{Label: item.Label(), Entry: item.Entry})
	}
	return r
}

// JSONPresenter writes tables as JSON documents, one per line unless pretty.
type JSONPresenter struct {
	w      io.Writer
	writer *writer.JSONWriter[Report]
}

// NewJSONPresenter creates a JSONPresenter writing to w.
func NewJSONPresenter(w io.Writer, pretty bool) *JSONPresenter {
	jw := writer.NewJSONWriter[Report]()
	if pretty {
		jw = writer.NewPrettyJSONWriter[Report]()
	}
	return &JSONPresenter{w: w, writer: jw}
}

// Present implements Presenter.
func (p *JSONPresenter) Present(_ context.Context, table Table, _ JumpFunc) error {
	return p.writer.Write(NewReport(table), p.w)
}
