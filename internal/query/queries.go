package query

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/perf-annotate/internal/hotspot"
	"github.com/perf-annotate/internal/source"
	"github.com/perf-annotate/pkg/errors"
	"github.com/perf-annotate/pkg/model"
)

// Kind names a query.
type Kind string

const (
	KindLines   Kind = "lines"
	KindSymbols Kind = "symbols"
	KindCallers Kind = "callers"
)

// Result is a ranked table and the denominator it was filtered against:
// the event total for lines and symbols, the region's own count for callers.
type Result struct {
	Kind    Kind          `json:"kind"`
	Event   string        `json:"event"`
	Region  *model.Region `json:"region,omitempty"`
	Entries []model.Entry `json:"entries"`
	Total   uint64        `json:"total"`
}

// Prompt labels the result for presentation.
func (r Result) Prompt() string {
	switch r.Kind {
	case KindLines:
		return fmt.Sprintf("Hottest lines (%s)", r.Event)
	case KindSymbols:
		return fmt.Sprintf("Hottest symbols (%s)", r.Event)
	default:
		if r.Region != nil {
			return fmt.Sprintf("Hottest callers of %s (%s)", r.Region, r.Event)
		}
		return fmt.Sprintf("Hottest callers (%s)", r.Event)
	}
}

// HottestLines ranks the sampled lines of event. An empty event means the
// selected one.
func (s *Session) HottestLines(ctx context.Context, event string) (Result, error) {
	ctx, span := s.start(ctx, KindLines, event)
	defer span.End()

	g, err := s.graph(event)
	if err != nil {
		return Result{}, fail(span, err)
	}
	event = s.resolveEvent(event)

	res := Result{
		Kind:    KindLines,
		Event:   event,
		Entries: s.calc.HottestLines(g),
		Total:   g.TotalCount(),
	}
	s.finish(ctx, span, res)
	return res, nil
}

// HottestSymbols ranks the symbols of event.
func (s *Session) HottestSymbols(ctx context.Context, event string) (Result, error) {
	ctx, span := s.start(ctx, KindSymbols, event)
	defer span.End()

	g, err := s.graph(event)
	if err != nil {
		return Result{}, fail(span, err)
	}
	event = s.resolveEvent(event)

	entries, total := s.calc.HottestSymbols(g)
	res := Result{Kind: KindSymbols, Event: event, Entries: entries, Total: total}
	s.finish(ctx, span, res)
	return res, nil
}

// HottestCallersOfRegion ranks the call sites entering region. The region
// file is used as recorded in the profile.
func (s *Session) HottestCallersOfRegion(ctx context.Context, event string, region model.Region) (Result, error) {
	ctx, span := s.start(ctx, KindCallers, event)
	defer span.End()

	g, err := s.graph(event)
	if err != nil {
		return Result{}, fail(span, err)
	}
	if region.File == "" || region.Begin == 0 {
		return Result{}, fail(span, errors.Newf(errors.CodeRegionUnresolved, "invalid region %s", region))
	}

	return s.callers(ctx, span, g, s.resolveEvent(event), region), nil
}

// HottestCallersOfEnclosingFunction ranks the callers of the function that
// encloses the cursor. It never falls back to another region.
func (s *Session) HottestCallersOfEnclosingFunction(ctx context.Context, event string, cur source.Cursor) (Result, error) {
	ctx, span := s.start(ctx, KindCallers, event)
	defer span.End()

	g, err := s.graph(event)
	if err != nil {
		return Result{}, fail(span, err)
	}

	file, err := s.canonical(cur.File)
	if err != nil {
		return Result{}, fail(span, asFileUnresolvable(cur.File, err))
	}

	cur.File = file
	fn, ok, err := s.resolver.EnclosingFunction(ctx, cur)
	if err != nil {
		return Result{}, fail(span, errors.Wrap(errors.CodeRegionUnresolved,
			fmt.Sprintf("cannot resolve function at %s:%d", file, cur.Line), err))
	}
	if !ok {
		return Result{}, fail(span, errors.Newf(errors.CodeRegionUnresolved,
			"no function encloses %s:%d", file, cur.Line))
	}

	region := model.NewRegion(s.regionFile(fn.File), fn.Begin, fn.End)
	return s.callers(ctx, span, g, s.resolveEvent(event), region), nil
}

// HottestCallersOfSelection ranks the callers of the selected lines of file.
// A nil selection means there is no active selection.
func (s *Session) HottestCallersOfSelection(ctx context.Context, event, file string, sel *source.Selection) (Result, error) {
	ctx, span := s.start(ctx, KindCallers, event)
	defer span.End()

	g, err := s.graph(event)
	if err != nil {
		return Result{}, fail(span, err)
	}

	canonical, err := s.canonical(file)
	if err != nil {
		return Result{}, fail(span, asFileUnresolvable(file, err))
	}
	if sel == nil || sel.BeginLine == 0 || sel.EndLine == 0 {
		return Result{}, fail(span, errors.New(errors.CodeRegionUnresolved, "no active selection"))
	}

	region := sel.Region(s.regionFile(canonical))
	return s.callers(ctx, span, g, s.resolveEvent(event), region), nil
}

func (s *Session) callers(ctx context.Context, span trace.Span, g hotspot.CallGraph, event string, region model.Region) Result {
	span.SetAttributes(attribute.String("region", region.String()))

	entries, total := s.calc.HottestCallersOfRegion(g, region)
	res := Result{Kind: KindCallers, Event: event, Region: &region, Entries: entries, Total: total}
	s.finish(ctx, span, res)
	return res
}

// graph checks the query preconditions and returns the event's graph.
func (s *Session) graph(event string) (hotspot.CallGraph, error) {
	if !s.Loaded() {
		return nil, errors.ErrUnloaded
	}
	event = s.resolveEvent(event)
	g, ok := s.graphs.Lookup(event)
	if !ok {
		return nil, errors.Newf(errors.CodeInvalidEvent, "event %q not loaded (available: %s)",
			event, strings.Join(s.graphs.Events(), ", "))
	}
	return g, nil
}

func (s *Session) resolveEvent(event string) string {
	if event == "" {
		return s.selected
	}
	return event
}

func (s *Session) start(ctx context.Context, kind Kind, event string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "query."+string(kind), trace.WithAttributes(
		attribute.String("event", s.resolveEvent(event)),
	))
}

func (s *Session) finish(_ context.Context, span trace.Span, res Result) {
	span.SetAttributes(
		attribute.Int("entries", len(res.Entries)),
		attribute.Int64("total", int64(res.Total)),
	)
	s.logger.WithFields(map[string]interface{}{
		"event": res.Event,
		"query": res.Kind,
	}).Debug("%d entries against total %d", len(res.Entries), res.Total)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func asFileUnresolvable(file string, err error) error {
	if errors.IsFileUnresolvable(err) {
		return err
	}
	return errors.Wrap(errors.CodeFileUnresolvable, fmt.Sprintf("cannot resolve %q", file), err)
}
