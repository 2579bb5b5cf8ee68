// Package loader opens profile inputs and builds the graph set queries run on.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/perf-annotate/internal/callgraph"
	"github.com/perf-annotate/internal/parser"
	"github.com/perf-annotate/internal/parser/collapsed"
	"github.com/perf-annotate/internal/parser/pprof"
	"github.com/perf-annotate/internal/storage"
	"github.com/perf-annotate/pkg/compression"
	apperrors "github.com/perf-annotate/pkg/errors"
	"github.com/perf-annotate/pkg/utils"
)

// Supported input formats.
const (
	FormatAuto      = ""
	FormatCollapsed = "collapsed"
	FormatPprof     = "pprof"
)

// ErrNoInputs is returned when Load is called without inputs.
var ErrNoInputs = errors.New("no profile inputs")

const tracerName = "perf-annotate/loader"

// sniffSize bounds how much of an input is inspected to detect its format.
const sniffSize = 4096

// Input names one profile file and, optionally, the event it provides.
type Input struct {
	// Event labels the graph taken from this input. For collapsed inputs it
	// names the single event; for pprof inputs it selects one sample type
	// (aliases allowed). Empty keeps the input's own event names.
	Event string
	// Location is a local path, a "file://" path or a "cos://" key.
	Location string
}

// ParseInput parses "event=location" or a bare location.
func ParseInput(s string) Input {
	if i := strings.Index(s, "="); i > 0 && !strings.Contains(s[:i], "/") {
		return Input{Event: s[:i], Location: s[i+1:]}
	}
	return Input{Location: s}
}

// String renders the input the way ParseInput reads it.
func (in Input) String() string {
	if in.Event == "" {
		return in.Location
	}
	return in.Event + "=" + in.Location
}

// Opener opens a profile location for reading.
type Opener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// Loader reads profile inputs concurrently and merges them into one graph set.
type Loader struct {
	opener       Opener
	logger       utils.Logger
	format       string
	threadPrefix bool
	strict       bool
	maxSamples   int64
	concurrency  int
	tracer       trace.Tracer
}

// Option configures a Loader.
type Option func(*Loader)

// WithOpener sets where inputs are read from. The default reads local files.
func WithOpener(o Opener) Option {
	return func(l *Loader) {
		if o != nil {
			l.opener = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger utils.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithFormat forces the input format instead of detecting it.
func WithFormat(format string) Option {
	return func(l *Loader) {
		l.format = format
	}
}

// WithThreadPrefix treats the first frame of collapsed stacks as a thread name.
func WithThreadPrefix(enabled bool) Option {
	return func(l *Loader) {
		l.threadPrefix = enabled
	}
}

// WithStrictMode fails on malformed input instead of skipping it.
func WithStrictMode(strict bool) Option {
	return func(l *Loader) {
		l.strict = strict
	}
}

// WithMaxSamples caps the samples read per event and input.
func WithMaxSamples(n int64) Option {
	return func(l *Loader) {
		l.maxSamples = n
	}
}

// WithConcurrency bounds how many inputs are parsed at once.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		opener:      storage.NewRouter(nil, nil, storage.StorageTypeLocal),
		logger:      &utils.NullLogger{},
		concurrency: 4,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every input and returns their graphs in input order. Two inputs
// yielding the same event name are an error.
func (l *Loader) Load(ctx context.Context, inputs ...Input) (*callgraph.GraphSet, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}

	ctx, span := l.tracer.Start(ctx, "loader.Load", trace.WithAttributes(
		attribute.Int("inputs", len(inputs)),
	))
	defer span.End()

	timer := utils.NewTimer("load")
	defer timer.Log(l.logger)

	results := make([]*callgraph.GraphSet, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			stop := timer.Start(in.String())
			defer stop()

			set, err := l.loadOne(gctx, in)
			if err != nil {
				return fmt.Errorf("%s: %w", in.Location, err)
			}
			results[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	merged, err := callgraph.NewGraphSet()
	if err != nil {
		return nil, err
	}
	for i, set := range results {
		for _, event := range set.Events() {
			graph, _ := set.Graph(event)
			if err := merged.Add(graph); err != nil {
				return nil, apperrors.Wrap(apperrors.CodeInvalidInput,
					fmt.Sprintf("input %s", inputs[i]), err)
			}
			l.logger.WithFields(map[string]interface{}{
				"event": event,
				"input": inputs[i].Location,
			}).Info("loaded %d events", graph.TotalCount())
		}
	}
	return merged, nil
}

func (l *Loader) loadOne(ctx context.Context, in Input) (*callgraph.GraphSet, error) {
	ctx, span := l.tracer.Start(ctx, "loader.loadOne", trace.WithAttributes(
		attribute.String("input", in.Location),
		attribute.String("event", in.Event),
	))
	defer span.End()

	rc, err := l.opener.Open(ctx, in.Location)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeNotFound, "profile not found", err)
		}
		return nil, apperrors.Wrap(apperrors.CodeDownloadError, "failed to open profile", err)
	}
	defer rc.Close()

	dr, ctype, err := compression.NewReader(rc)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParseError, "failed to decompress profile", err)
	}
	defer dr.Close()

	br := bufio.NewReaderSize(dr, sniffSize)
	format := l.format
	if format == FormatAuto {
		format = detectFormat(in.Location, br)
	}
	l.logger.Debug("reading %s as %s (compression %s)", in.Location, format, ctype)
	span.SetAttributes(attribute.String("format", format), attribute.String("compression", ctype.String()))

	p, err := l.parserFor(format, in.Event)
	if err != nil {
		return nil, err
	}

	set, err := p.Parse(ctx, br)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.CodeParseError, fmt.Sprintf("failed to parse %s profile", format), err)
	}

	if in.Event != "" && format == FormatPprof {
		return relabel(set, in.Event)
	}
	return set, nil
}

// parserFor builds the parser of a format through the parser registry.
func (l *Loader) parserFor(format, event string) (parser.Parser, error) {
	common := parser.DefaultParseOptions()
	common.StrictMode = l.strict
	common.MaxSamples = l.maxSamples

	registry := parser.NewRegistry()
	collapsed.RegisterWithRegistry(registry,
		collapsed.WithEventOption(event),
		collapsed.WithThreadPrefixOption(l.threadPrefix),
		collapsed.WithParseOptions(common),
	)
	var events []string
	if event != "" {
		events = []string{event}
	}
	pprof.RegisterWithRegistry(registry,
		pprof.WithEventsOption(events...),
		pprof.WithParseOptions(common),
	)

	p, ok := registry.Get(format)
	if !ok {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput,
			fmt.Sprintf("format %q (known: %s)", format, strings.Join(registry.Formats(), ", ")),
			parser.ErrUnsupportedFormat)
	}
	return p, nil
}

// relabel names the single graph picked from a pprof input after the
// requested event.
func relabel(set *callgraph.GraphSet, event string) (*callgraph.GraphSet, error) {
	events := set.Events()
	if len(events) == 0 {
		return nil, apperrors.Newf(apperrors.CodeInvalidEvent, "event %q not found in profile", event)
	}
	graph, _ := set.Graph(events[0])
	return callgraph.NewGraphSet(graph.WithEvent(event))
}

// detectFormat picks a format from the file name, then from the content.
func detectFormat(location string, br *bufio.Reader) string {
	name := strings.ToLower(location)
	if compression.TypeFromPath(name) != compression.TypeNone {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	switch filepath.Ext(name) {
	case ".folded", ".collapsed", ".txt":
		return FormatCollapsed
	case ".pb", ".pprof", ".prof":
		return FormatPprof
	}

	head, _ := br.Peek(sniffSize)
	if len(head) == 0 {
		return FormatCollapsed
	}
	lines := bytes.Split(head, []byte("\n"))
	for i, line := range lines {
		text := strings.TrimSpace(string(line))
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if collapsed.IsCollapsedFormat(text) {
			return FormatCollapsed
		}
		// A stack longer than the sniffed prefix loses its count.
		truncated := i == len(lines)-1 && len(head) == sniffSize
		if truncated && utf8.Valid(line) && bytes.IndexByte(line, 0) < 0 && strings.Contains(text, ";") {
			return FormatCollapsed
		}
		break
	}
	return FormatPprof
}
