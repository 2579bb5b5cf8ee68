package query

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perf-annotate/internal/callgraph"
	"github.com/perf-annotate/internal/display"
	"github.com/perf-annotate/internal/hotspot"
	"github.com/perf-annotate/internal/presenter"
	"github.com/perf-annotate/internal/source"
	"github.com/perf-annotate/internal/testutil"
	"github.com/perf-annotate/pkg/errors"
	"github.com/perf-annotate/pkg/model"
)

// fakeGraphs serves FakeGraphs by event name.
type fakeGraphs struct {
	order  []string
	graphs map[string]*testutil.FakeGraph
}

func (f *fakeGraphs) Loaded() bool     { return len(f.graphs) > 0 }
func (f *fakeGraphs) Events() []string { return f.order }

func (f *fakeGraphs) Lookup(event string) (hotspot.CallGraph, bool) {
	g, ok := f.graphs[event]
	return g, ok
}

func scenarioGraphs() (*fakeGraphs, *testutil.FakeGraph) {
	g := testutil.ScenarioGraph()
	return &fakeGraphs{
		order:  []string{"cycles", "cache-misses"},
		graphs: map[string]*testutil.FakeGraph{"cycles": g, "cache-misses": {}},
	}, g
}

// fakeResolver returns a fixed region for every cursor.
type fakeResolver struct {
	region model.Region
	ok     bool
	err    error
	calls  int
}

func (r *fakeResolver) EnclosingFunction(_ context.Context, cur source.Cursor) (model.Region, bool, error) {
	r.calls++
	region := r.region
	if region.File == "" {
		region.File = cur.File
	}
	return region, r.ok, r.err
}

// identity treats every non-empty path as canonical.
func identity(path string) (string, error) {
	if path == "" {
		return "", errors.New(errors.CodeFileUnresolvable, "no file")
	}
	return path, nil
}

func newScenarioSession(opts ...Option) (*Session, *testutil.FakeGraph) {
	graphs, g := scenarioGraphs()
	base := []Option{
		WithPolicy(display.NewThresholdPolicy(display.WithMinPercent(5))),
		WithCanonicalizer(identity),
		WithResolver(&fakeResolver{}),
	}
	s := NewSession(append(base, opts...)...)
	s.LoadGraphs(graphs)
	return s, g
}

func TestSession_Unloaded(t *testing.T) {
	s := NewSession(WithCanonicalizer(identity), WithResolver(&fakeResolver{}))
	ctx := context.Background()

	assert.False(t, s.Loaded())
	assert.Nil(t, s.Events())

	_, err := s.HottestLines(ctx, "cycles")
	assert.True(t, errors.IsUnloaded(err))
	_, err = s.HottestSymbols(ctx, "")
	assert.True(t, errors.IsUnloaded(err))
	_, err = s.HottestCallersOfRegion(ctx, "cycles", model.NewRegion("a.c", 1, 2))
	assert.True(t, errors.IsUnloaded(err))
	_, err = s.HottestCallersOfEnclosingFunction(ctx, "cycles", source.Cursor{})
	assert.True(t, errors.IsUnloaded(err), "unloaded is reported before the file check")
	_, err = s.HottestCallersOfSelection(ctx, "cycles", "", nil)
	assert.True(t, errors.IsUnloaded(err))

	assert.True(t, errors.IsUnloaded(s.ShowHottestLines(ctx, "")))
}

func TestSession_InvalidEvent(t *testing.T) {
	s, _ := newScenarioSession()
	ctx := context.Background()

	_, err := s.HottestLines(ctx, "instructions")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidEvent(err))
	assert.Contains(t, err.Error(), "cycles, cache-misses")

	_, err = s.HottestCallersOfSelection(ctx, "instructions", "", nil)
	assert.True(t, errors.IsInvalidEvent(err), "invalid event is reported before the file check")

	assert.True(t, errors.IsInvalidEvent(s.SelectEvent("instructions")))
	assert.Equal(t, "cycles", s.SelectedEvent())
}

func TestSession_SelectedEvent(t *testing.T) {
	s, _ := newScenarioSession()
	ctx := context.Background()

	assert.Equal(t, []string{"cycles", "cache-misses"}, s.Events())
	assert.Equal(t, "cycles", s.SelectedEvent())

	res, err := s.HottestLines(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "cycles", res.Event)
	assert.Len(t, res.Entries, 1)

	require.NoError(t, s.SelectEvent("cache-misses"))
	res, err = s.HottestLines(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "cache-misses", res.Event)
	assert.Empty(t, res.Entries)

	s.Clear()
	assert.False(t, s.Loaded())
	assert.Empty(t, s.SelectedEvent())
}

func TestSession_HottestLines(t *testing.T) {
	s, _ := newScenarioSession()

	res, err := s.HottestLines(context.Background(), "cycles")
	require.NoError(t, err)

	assert.Equal(t, KindLines, res.Kind)
	assert.Equal(t, uint64(105), res.Total)
	assert.Equal(t, []model.Entry{model.NewLineEntry("a.c", 10, 100)}, res.Entries)
	assert.Equal(t, "Hottest lines (cycles)", res.Prompt())
}

func TestSession_HottestSymbols(t *testing.T) {
	s, _ := newScenarioSession()

	res, err := s.HottestSymbols(context.Background(), "cycles")
	require.NoError(t, err)

	assert.Equal(t, uint64(105), res.Total)
	assert.Contains(t, res.Entries, model.NewSymbolAtEntry("foo", "a.c", 3, 50))
}

func TestSession_HottestCallersOfRegion(t *testing.T) {
	s, _ := newScenarioSession()
	ctx := context.Background()

	res, err := s.HottestCallersOfRegion(ctx, "cycles", model.NewRegion("a.c", 10, 11))
	require.NoError(t, err)
	assert.Equal(t, uint64(105), res.Total)
	assert.Equal(t, []model.Entry{model.NewLineEntry("b.c", 20, 30)}, res.Entries)
	assert.Equal(t, "Hottest callers of a.c:10-11 (cycles)", res.Prompt())

	res, err = s.HottestCallersOfRegion(ctx, "cycles", model.NewRegion("a.c", 40, 50))
	require.NoError(t, err, "an empty region is not an error")
	assert.Empty(t, res.Entries)
	assert.Zero(t, res.Total)

	_, err = s.HottestCallersOfRegion(ctx, "cycles", model.Region{File: "a.c"})
	assert.True(t, errors.IsRegionUnresolved(err))
}

func TestSession_HottestCallersOfEnclosingFunction(t *testing.T) {
	resolver := &fakeResolver{region: model.Region{Begin: 9, End: 12}, ok: true}
	s, g := newScenarioSession(WithResolver(resolver))

	res, err := s.HottestCallersOfEnclosingFunction(context.Background(), "", source.Cursor{File: "a.c", Line: 10})
	require.NoError(t, err)

	assert.Equal(t, uint64(105), res.Total)
	assert.Equal(t, []model.Entry{model.NewLineEntry("b.c", 20, 30)}, res.Entries)
	require.NotNil(t, res.Region)
	assert.Equal(t, model.NewRegion("a.c", 9, 12), *res.Region)
	assert.Len(t, g.Merged, 2)
}

func TestSession_EnclosingFunctionPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("file unresolvable", func(t *testing.T) {
		resolver := &fakeResolver{ok: true}
		s, _ := newScenarioSession(WithResolver(resolver))

		_, err := s.HottestCallersOfEnclosingFunction(ctx, "cycles", source.Cursor{Line: 3})
		assert.True(t, errors.IsFileUnresolvable(err))
		assert.Zero(t, resolver.calls, "resolution is not attempted without a file")
	})

	t.Run("canonicalizer error is wrapped", func(t *testing.T) {
		s, _ := newScenarioSession(WithCanonicalizer(func(string) (string, error) {
			return "", fmt.Errorf("stat failed")
		}))

		_, err := s.HottestCallersOfEnclosingFunction(ctx, "cycles", source.Cursor{File: "a.c", Line: 3})
		assert.True(t, errors.IsFileUnresolvable(err))
	})

	t.Run("no enclosing function", func(t *testing.T) {
		s, g := newScenarioSession(WithResolver(&fakeResolver{ok: false}))

		_, err := s.HottestCallersOfEnclosingFunction(ctx, "cycles", source.Cursor{File: "a.c", Line: 1})
		assert.True(t, errors.IsRegionUnresolved(err))
		assert.Nil(t, g.Merged, "no fallback region is queried")
	})

	t.Run("resolver error", func(t *testing.T) {
		s, _ := newScenarioSession(WithResolver(&fakeResolver{err: fmt.Errorf("parse failed")}))

		_, err := s.HottestCallersOfEnclosingFunction(ctx, "cycles", source.Cursor{File: "a.c", Line: 1})
		assert.True(t, errors.IsRegionUnresolved(err))
	})
}

func TestSession_HottestCallersOfSelection(t *testing.T) {
	s, _ := newScenarioSession()
	ctx := context.Background()

	res, err := s.HottestCallersOfSelection(ctx, "cycles", "a.c", &source.Selection{BeginLine: 11, EndLine: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(105), res.Total)
	assert.Len(t, res.Entries, 1)

	_, err = s.HottestCallersOfSelection(ctx, "cycles", "a.c", nil)
	assert.True(t, errors.IsRegionUnresolved(err))

	_, err = s.HottestCallersOfSelection(ctx, "cycles", "", nil)
	assert.True(t, errors.IsFileUnresolvable(err), "file is checked before the selection")
}

func TestSession_PathPrefix(t *testing.T) {
	s, _ := newScenarioSession(WithPathPrefix("/src/proj"))

	res, err := s.HottestCallersOfSelection(context.Background(), "cycles", "/src/proj/a.c",
		&source.Selection{BeginLine: 10, EndLine: 11})
	require.NoError(t, err)
	require.NotNil(t, res.Region)
	assert.Equal(t, "a.c", res.Region.File)
	assert.Equal(t, uint64(105), res.Total)

	assert.Equal(t, "/elsewhere/a.c", s.regionFile("/elsewhere/a.c"))
}

func TestSession_MaxSymbolWidth(t *testing.T) {
	s, _ := newScenarioSession(WithMaxSymbolWidth(5), WithBaseDir(""))

	label := s.Formatter().Format(model.NewSymbolEntry("memcpy_avx", 7), 105)
	assert.Equal(t, "6.67% me...", label)
}

func TestSession_PathPrefixJump(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "proj")
	nav := &recordingNavigator{}
	pres := &recordingPresenter{pick: 0}
	s, _ := newScenarioSession(WithPathPrefix(prefix), WithPresenter(pres), WithNavigator(nav))

	require.NoError(t, s.ShowHottestLines(context.Background(), "cycles"))
	require.Len(t, nav.calls, 1)
	assert.Equal(t, model.Location{File: filepath.Join(prefix, "a.c"), Line: 10}, nav.calls[0])

	abs := model.NewLineEntry("/elsewhere/b.c", 3, 1)
	s.Jump(context.Background(), &abs)
	require.Len(t, nav.calls, 2)
	assert.Equal(t, "/elsewhere/b.c", nav.calls[1].File)
}

// recordingPresenter keeps the last table and picks a fixed row.
type recordingPresenter struct {
	table presenter.Table
	pick  int
}

func (p *recordingPresenter) Present(ctx context.Context, table presenter.Table, jump presenter.JumpFunc) error {
	p.table = table
	if p.pick < 0 || p.pick >= len(table.Items) {
		jump(ctx, nil)
		return nil
	}
	e := table.Items[p.pick].Entry
	jump(ctx, &e)
	return nil
}

// recordingNavigator records navigation requests.
type recordingNavigator struct {
	calls []model.Location
	err   error
}

func (n *recordingNavigator) Navigate(_ context.Context, file string, line uint32) error {
	n.calls = append(n.calls, model.Location{File: file, Line: line})
	return n.err
}

func TestSession_ShowHottestLines(t *testing.T) {
	pres := &recordingPresenter{pick: 0}
	nav := &recordingNavigator{}
	s, _ := newScenarioSession(WithPresenter(pres), WithNavigator(nav),
		WithPolicy(display.NewThresholdPolicy()))

	require.NoError(t, s.ShowHottestLines(context.Background(), "cycles"))

	assert.Equal(t, "Hottest lines (cycles)", pres.table.Prompt)
	assert.Equal(t, uint64(105), pres.table.Total)
	require.Len(t, pres.table.Items, 2)
	assert.Equal(t, "95.24% a.c:10", pres.table.Items[0].Label())
	assert.Equal(t, "4.76% a.c:11", pres.table.Items[1].Label())
	assert.Equal(t, []model.Location{{File: "a.c", Line: 10}}, nav.calls)
}

func TestSession_ShowHottestSymbols(t *testing.T) {
	pres := &recordingPresenter{pick: -1}
	nav := &recordingNavigator{}
	s, _ := newScenarioSession(WithPresenter(pres), WithNavigator(nav))

	require.NoError(t, s.ShowHottestSymbols(context.Background(), "cycles"))

	require.Len(t, pres.table.Items, 1)
	assert.Equal(t, "47.62% foo at a.c:3", pres.table.Items[0].Label())
	assert.Empty(t, nav.calls, "a cancelled pick does not navigate")
}

func TestSession_ShowCallers(t *testing.T) {
	ctx := context.Background()
	pres := &recordingPresenter{}
	nav := &recordingNavigator{}
	resolver := &fakeResolver{region: model.Region{Begin: 10, End: 11}, ok: true}
	s, _ := newScenarioSession(WithPresenter(pres), WithNavigator(nav), WithResolver(resolver))

	require.NoError(t, s.ShowHottestCallersOfRegion(ctx, "cycles", model.NewRegion("a.c", 10, 11)))
	require.Len(t, pres.table.Items, 1)
	assert.Equal(t, "28.57% b.c:20", pres.table.Items[0].Label())

	require.NoError(t, s.ShowHottestCallersOfEnclosingFunction(ctx, "cycles", source.Cursor{File: "a.c", Line: 10}))
	require.NoError(t, s.ShowHottestCallersOfSelection(ctx, "cycles", "a.c", &source.Selection{BeginLine: 10, EndLine: 11}))
	assert.Len(t, nav.calls, 3)

	err := s.ShowHottestCallersOfSelection(ctx, "cycles", "a.c", nil)
	assert.True(t, errors.IsRegionUnresolved(err))
	assert.Len(t, nav.calls, 3, "failed preconditions never reach the presenter")
}

func TestSession_Jump(t *testing.T) {
	ctx := context.Background()
	nav := &recordingNavigator{err: fmt.Errorf("file moved")}
	s := NewSession(WithNavigator(nav), WithResolver(&fakeResolver{}))

	s.Jump(ctx, nil)
	sym := model.NewSymbolEntry("memcpy", 3)
	s.Jump(ctx, &sym)
	assert.Empty(t, nav.calls)

	line := model.NewLineEntry("a.c", 10, 1)
	s.Jump(ctx, &line)
	fileOnly := model.NewLineEntry("b.c", 0, 1)
	s.Jump(ctx, &fileOnly)

	assert.Equal(t, []model.Location{{File: "a.c", Line: 10}, {File: "b.c"}}, nav.calls)

	NewSession(WithResolver(&fakeResolver{})).Jump(ctx, &line)
}

func TestSession_NoPresenter(t *testing.T) {
	s, _ := newScenarioSession()
	assert.NoError(t, s.ShowHottestLines(context.Background(), "cycles"))
}

func TestSession_LoadGraphSet(t *testing.T) {
	b := callgraph.NewBuilder("cycles")
	b.Add(testutil.S(30, testutil.F("main", "b.c", 20), testutil.F("foo", "a.c", 10)))
	b.Add(testutil.S(70, testutil.F("main", "b.c", 21), testutil.F("foo", "a.c", 10)))
	b.Add(testutil.S(5, testutil.F("run", "c.c", 7), testutil.F("foo", "a.c", 11)))
	set, err := callgraph.NewGraphSet(b.Build())
	require.NoError(t, err)

	s := NewSession(WithPolicy(display.ShowAll{}), WithResolver(&fakeResolver{}))
	s.Load(set)

	res, err := s.HottestCallersOfRegion(context.Background(), "", model.NewRegion("a.c", 10, 11))
	require.NoError(t, err)
	assert.Equal(t, uint64(105), res.Total)
	assert.Equal(t, []model.Entry{
		model.NewLineEntry("b.c", 21, 70),
		model.NewLineEntry("b.c", 20, 30),
		model.NewLineEntry("c.c", 7, 5),
	}, res.Entries)

	s.Load(nil)
	assert.False(t, s.Loaded())
}
