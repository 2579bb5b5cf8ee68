package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newEventsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List the events of the inputs with their sample totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.router()
			if err != nil {
				return err
			}
			set, err := a.load(cmd.Context(), r)
			if err != nil {
				return err
			}

			width := 0
			for _, event := range set.Events() {
				width = max(width, len(event))
			}
			for _, event := range set.Events() {
				g, _ := set.Graph(event)
				stats := g.GetStats()
				fmt.Fprintf(a.stdout, "%-*s  %s samples  %s lines  %s symbols\n", width, event,
					humanize.Comma(int64(g.TotalCount())),
					humanize.Comma(int64(stats.Lines)),
					humanize.Comma(int64(stats.Symbols)))
			}
			return nil
		},
	}
}
