// Package query runs hotspot queries against the loaded profile and hands
// the ranked results to a presenter.
package query

import (
	"context"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/perf-annotate/internal/callgraph"
	"github.com/perf-annotate/internal/display"
	"github.com/perf-annotate/internal/formatter"
	"github.com/perf-annotate/internal/hotspot"
	"github.com/perf-annotate/internal/presenter"
	"github.com/perf-annotate/internal/source"
	"github.com/perf-annotate/pkg/model"
	"github.com/perf-annotate/pkg/utils"
)

const tracerName = "perf-annotate/query"

// Graphs is the set of per-event call graphs a session queries.
type Graphs interface {
	Loaded() bool
	Events() []string
	Lookup(event string) (hotspot.CallGraph, bool)
}

// FunctionResolver finds the function enclosing a cursor.
type FunctionResolver interface {
	EnclosingFunction(ctx context.Context, cur source.Cursor) (model.Region, bool, error)
}

// graphSet adapts *callgraph.GraphSet to Graphs.
type graphSet struct {
	set *callgraph.GraphSet
}

func (g graphSet) Loaded() bool     { return g.set.Loaded() }
func (g graphSet) Events() []string { return g.set.Events() }

func (g graphSet) Lookup(event string) (hotspot.CallGraph, bool) {
	graph, ok := g.set.Graph(event)
	if !ok {
		return nil, false
	}
	return graph, true
}

// Session owns the loaded graphs and the selected event. Queries read it but
// never change it; Load and Clear replace it wholesale.
type Session struct {
	graphs   Graphs
	selected string

	policy     display.Policy
	calc       *hotspot.Calculator
	format     *formatter.Formatter
	limit      int
	symWidth   int
	baseDir    string
	pathPrefix string

	resolver  FunctionResolver
	canonical func(string) (string, error)
	presenter presenter.Presenter
	navigator presenter.Navigator

	logger utils.Logger
	tracer trace.Tracer
}

// Option configures a Session.
type Option func(*Session)

// WithPolicy sets the display policy tables are filtered and formatted with.
func WithPolicy(p display.Policy) Option {
	return func(s *Session) {
		s.policy = p
	}
}

// WithLimit truncates every table to its n hottest entries.
func WithLimit(n int) Option {
	return func(s *Session) {
		s.limit = n
	}
}

// WithMaxSymbolWidth truncates rendered symbol names longer than n runes.
func WithMaxSymbolWidth(n int) Option {
	return func(s *Session) {
		s.symWidth = n
	}
}

// WithBaseDir sets the directory displayed paths are shortened against.
func WithBaseDir(dir string) Option {
	return func(s *Session) {
		s.baseDir = dir
	}
}

// WithPathPrefix sets the directory that profile file paths are relative
// to. Canonical source paths beneath it are queried by their relative path.
func WithPathPrefix(prefix string) Option {
	return func(s *Session) {
		s.pathPrefix = prefix
	}
}

// WithResolver sets the enclosing-function resolver.
func WithResolver(r FunctionResolver) Option {
	return func(s *Session) {
		s.resolver = r
	}
}

// WithCanonicalizer overrides how the current file is mapped to an on-disk
// path. The default is source.CanonicalFile.
func WithCanonicalizer(fn func(string) (string, error)) Option {
	return func(s *Session) {
		s.canonical = fn
	}
}

// WithPresenter sets the sink the Show methods render to.
func WithPresenter(p presenter.Presenter) Option {
	return func(s *Session) {
		s.presenter = p
	}
}

// WithNavigator sets where picked entries are opened.
func WithNavigator(n presenter.Navigator) Option {
	return func(s *Session) {
		s.navigator = n
	}
}

// WithLogger sets the session logger.
func WithLogger(l utils.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// NewSession creates an unloaded session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		canonical: source.CanonicalFile,
		logger:    &utils.NullLogger{},
		baseDir:   "",
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.policy == nil {
		s.policy = display.NewThresholdPolicy()
	}
	if s.resolver == nil {
		s.resolver = source.NewResolver()
	}
	s.calc = hotspot.NewCalculator(s.policy, hotspot.WithLimit(s.limit))
	s.format = formatter.New(s.policy,
		formatter.WithBaseDir(s.baseDir),
		formatter.WithMaxSymbolWidth(s.symWidth),
	)
	s.tracer = otel.Tracer(tracerName)
	return s
}

// Load replaces the session's graphs with set and selects its first event.
func (s *Session) Load(set *callgraph.GraphSet) {
	if set == nil {
		s.Clear()
		return
	}
	s.LoadGraphs(graphSet{set: set})
}

// LoadGraphs replaces the session's graphs and selects the first event.
func (s *Session) LoadGraphs(g Graphs) {
	s.graphs = g
	s.selected = ""
	if events := g.Events(); len(events) > 0 {
		s.selected = events[0]
	}
	s.logger.Debug("Loaded %d event(s), selected %q", len(g.Events()), s.selected)
}

// Clear drops the loaded graphs.
func (s *Session) Clear() {
	s.graphs = nil
	s.selected = ""
}

// Loaded reports whether any graph is loaded.
func (s *Session) Loaded() bool {
	return s.graphs != nil && s.graphs.Loaded()
}

// Events lists the loaded events in load order.
func (s *Session) Events() []string {
	if !s.Loaded() {
		return nil
	}
	return s.graphs.Events()
}

// SelectedEvent returns the event queried when none is named.
func (s *Session) SelectedEvent() string {
	return s.selected
}

// SelectEvent changes the selected event.
func (s *Session) SelectEvent(event string) error {
	if _, err := s.graph(event); err != nil {
		return err
	}
	s.selected = event
	return nil
}

// Formatter returns the formatter bound to the session's policy.
func (s *Session) Formatter() *formatter.Formatter {
	return s.format
}

// regionFile maps a canonical source path to the path the profile records.
func (s *Session) regionFile(canonical string) string {
	if s.pathPrefix == "" {
		return canonical
	}
	rel, err := filepath.Rel(s.pathPrefix, canonical)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return canonical
	}
	return filepath.ToSlash(rel)
}

// sourceFile maps a profile path back to the on-disk path under the prefix.
func (s *Session) sourceFile(file string) string {
	if s.pathPrefix == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(s.pathPrefix, filepath.FromSlash(file))
}
