package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/perf-annotate/internal/query"
	"github.com/perf-annotate/internal/source"
	apperrors "github.com/perf-annotate/pkg/errors"
	"github.com/perf-annotate/pkg/model"
)

func newLinesCommand(a *app) *cobra.Command {
	var event string
	cmd := &cobra.Command{
		Use:   "lines",
		Short: "Rank source lines by their own samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runQuery(cmd.Context(), func(ctx context.Context, s *query.Session) (query.Result, error) {
				return s.HottestLines(ctx, event)
			})
		},
	}
	cmd.Flags().StringVarP(&event, "event", "e", "", "Event to rank (default: first loaded)")
	return cmd
}

func newSymbolsCommand(a *app) *cobra.Command {
	var event string
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "Rank functions by their own samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runQuery(cmd.Context(), func(ctx context.Context, s *query.Session) (query.Result, error) {
				return s.HottestSymbols(ctx, event)
			})
		},
	}
	cmd.Flags().StringVarP(&event, "event", "e", "", "Event to rank (default: first loaded)")
	return cmd
}

type callersOptions struct {
	event     string
	file      string
	begin     uint32
	end       uint32
	line      uint32
	selection string
}

func newCallersCommand(a *app) *cobra.Command {
	o := &callersOptions{}
	cmd := &cobra.Command{
		Use:   "callers",
		Short: "Rank the call sites entering a region of code",
		Long: `Rank the call sites entering a region of code. The region is one of:

  --begin N [--end M]   lines N..M of --file as recorded in the profile
  --line N              the function enclosing line N of --file
  --selection L1:C1-L2:C2
                        the selected lines of --file

For --line and --selection, --file must exist on disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runQuery(cmd.Context(), o.run)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&o.event, "event", "e", "", "Event to rank (default: first loaded)")
	flags.StringVar(&o.file, "file", "", "Source file of the region")
	flags.Uint32Var(&o.begin, "begin", 0, "First line of an explicit region")
	flags.Uint32Var(&o.end, "end", 0, "Last line of an explicit region (default: --begin)")
	flags.Uint32Var(&o.line, "line", 0, "A line inside the function whose callers are ranked")
	flags.StringVar(&o.selection, "selection", "", "Selection as L1:C1-L2:C2 or L1-L2")
	_ = cmd.MarkFlagRequired("file")
	cmd.MarkFlagsMutuallyExclusive("begin", "line", "selection")
	cmd.MarkFlagsOneRequired("begin", "line", "selection")
	return cmd
}

func (o *callersOptions) run(ctx context.Context, s *query.Session) (query.Result, error) {
	switch {
	case o.begin > 0:
		end := o.end
		if end == 0 {
			end = o.begin
		}
		return s.HottestCallersOfRegion(ctx, o.event, model.NewRegion(o.file, o.begin, end))
	case o.line > 0:
		return s.HottestCallersOfEnclosingFunction(ctx, o.event, source.Cursor{File: o.file, Line: o.line})
	case o.selection != "":
		sel, err := source.ParseSelection(o.selection)
		if err != nil {
			return query.Result{}, err
		}
		return s.HottestCallersOfSelection(ctx, o.event, o.file, &sel)
	default:
		return query.Result{}, apperrors.New(apperrors.CodeRegionUnresolved, "no region given")
	}
}
