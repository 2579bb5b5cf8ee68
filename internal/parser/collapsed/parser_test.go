package collapsed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perf-annotate/internal/callgraph"
	"github.com/perf-annotate/internal/parser"
	"github.com/perf-annotate/pkg/model"
)

func parseOne(t *testing.T, opts *ParserOptions, input string) *callgraph.Graph {
	t.Helper()
	set, err := NewParser(opts).Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	events := set.Events()
	require.Len(t, events, 1)
	g, ok := set.Graph(events[0])
	require.True(t, ok)
	return g
}

func TestParser_Parse_BasicInput(t *testing.T) {
	input := `main (b.c:20);foo (a.c:10) 30
main (b.c:21);foo (a.c:10) 70
run (c.c:7);foo (a.c:11) 5`

	g := parseOne(t, nil, input)

	assert.Equal(t, DefaultEvent, g.Event())
	assert.Equal(t, uint64(105), g.TotalCount())
	assert.Equal(t, uint64(100), g.LineCount("a.c", 10))
	assert.Equal(t, uint64(5), g.LineCount("a.c", 11))

	info, ok := g.Symbol("a.c", "foo")
	require.True(t, ok)
	assert.Equal(t, model.SymbolInfo{Count: 105, MinLine: 10}, info)

	callers := g.MergeCallerCounts([]model.Location{{File: "a.c", Line: 10}})
	assert.Equal(t, map[string]map[uint32]uint64{"b.c": {20: 30, 21: 70}}, callers)
}

func TestParser_Parse_EventName(t *testing.T) {
	g := parseOne(t, &ParserOptions{Event: "cycles"}, "foo (a.c:1) 3")
	assert.Equal(t, "cycles", g.Event())

	g = parseOne(t, &ParserOptions{}, "foo (a.c:1) 3")
	assert.Equal(t, DefaultEvent, g.Event())
}

func TestParser_Parse_EmptyInput(t *testing.T) {
	g := parseOne(t, nil, "")

	assert.Zero(t, g.TotalCount())
	assert.Empty(t, g.Files())
}

func TestParser_Parse_SymbolOnlyLeaves(t *testing.T) {
	input := `main (b.c:22);memcpy 7
main (b.c:22);(x.c:3) 2
main (b.c:22);libc.so.6(libc.so.6) 1`

	g := parseOne(t, nil, input)

	assert.Equal(t, uint64(10), g.TotalCount())
	assert.Equal(t, uint64(7), g.SymbolOnlyCount("memcpy"))
	assert.Equal(t, uint64(1), g.SymbolOnlyCount("libc.so.6"))
	assert.Equal(t, uint64(2), g.LineCount("x.c", 3))
}

func TestParser_Parse_ThreadPrefix(t *testing.T) {
	input := `main-thread-?/1234;run (a.c:1);work (a.c:5) 100
swapper-?/0;idle 50
5_2175795_[002]_83367.826506:-?/10101010;[] 1
[Thread-7 tid=1060369];run (a.c:1);work (a.c:6) 20`

	g := parseOne(t, &ParserOptions{ThreadPrefix: true}, input)
	assert.Equal(t, uint64(120), g.TotalCount(), "swapper and invalid data are skipped")
	assert.Zero(t, g.SymbolOnlyCount("main-thread-?/1234"), "thread frames are not call frames")

	g = parseOne(t, &ParserOptions{ThreadPrefix: true, IncludeSwapper: true}, input)
	assert.Equal(t, uint64(170), g.TotalCount())
	assert.Equal(t, uint64(50), g.SymbolOnlyCount("idle"))
}

func TestParser_Parse_StrictMode(t *testing.T) {
	input := `main (a.c:1) 100
invalid line without count
work (a.c:2) 50`

	g := parseOne(t, &ParserOptions{StrictMode: false}, input)
	assert.Equal(t, uint64(150), g.TotalCount())

	_, err := NewParser(&ParserOptions{StrictMode: true}).Parse(context.Background(), strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParser_Parse_MaxSamples(t *testing.T) {
	input := strings.Repeat("f (a.c:1) 1\n", 10)

	g := parseOne(t, &ParserOptions{MaxSamples: 4}, input)
	assert.Equal(t, uint64(4), g.TotalCount())
}

func TestParser_Parse_CommentsAndZeroCounts(t *testing.T) {
	input := `# perf script | stackcollapse
f (a.c:1) 0
f (a.c:1) 2`

	g := parseOne(t, nil, input)
	assert.Equal(t, uint64(2), g.TotalCount())
}

func TestParser_Parse_ContextCancellation(t *testing.T) {
	input := strings.Repeat("func (a.c:1) 1\n", 1000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser(nil).Parse(ctx, strings.NewReader(input))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestParser_Parse_LargeSampleCount(t *testing.T) {
	g := parseOne(t, nil, `func1;func2;func3 (a.c:3) 18446744073709551615`)
	assert.Equal(t, uint64(18446744073709551615), g.TotalCount())
}

func TestParser_ParseLine_Errors(t *testing.T) {
	p := NewParser(nil)

	_, err := p.parseLine("no_count_here")
	assert.True(t, errors.Is(err, parser.ErrInvalidFormat))

	_, err = p.parseLine("f -3")
	assert.Error(t, err)

	_, err = p.parseLine(";;; 3")
	assert.True(t, errors.Is(err, parser.ErrInvalidStackFrame))
}

func TestParser_SupportedFormats(t *testing.T) {
	p := NewParser(nil)

	assert.Equal(t, []string{"collapsed", "folded"}, p.SupportedFormats())
	assert.Equal(t, "collapsed", p.Name())
}

func TestIsCollapsedFormat(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"thread;func1;func2 100", true},
		{"main (b.c:20);foo (a.c:10) 30", true},
		{"single 42", true},
		{"no_count_here", false},
		{"", false},
		{"   ", false},
		{"thread;func abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCollapsedFormat(tt.input))
		})
	}
}

func TestFactory(t *testing.T) {
	reg := parser.NewRegistry()
	RegisterWithRegistry(reg, WithEventOption("cycles"), WithStrictModeOption(true))

	p, ok := reg.Get("folded")
	require.True(t, ok)
	assert.Equal(t, []string{"collapsed", "folded"}, reg.Formats())

	set, err := p.Parse(context.Background(), strings.NewReader("f (a.c:1) 1\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cycles"}, set.Events())

	_, err = p.Parse(context.Background(), strings.NewReader("broken\n"))
	assert.Error(t, err, "strict mode is carried through the factory")

	created, err := NewFactory().Create(
		WithThreadPrefixOption(true),
		WithIncludeSwapperOption(true),
		WithMaxSamplesOption(1),
		WithParseOptions(&parser.ParseOptions{MaxSamples: 2}),
	)
	require.NoError(t, err)
	opts := created.(*Parser).opts
	assert.True(t, opts.ThreadPrefix)
	assert.True(t, opts.IncludeSwapper)
	assert.Equal(t, int64(2), opts.MaxSamples)
}

func BenchmarkParser_Parse(b *testing.B) {
	var builder strings.Builder
	for i := 0; i < 10000; i++ {
		builder.WriteString("main (m.c:3);f1 (a.c:10);f2 (a.c:20);f3 (b.c:5) 100\n")
	}
	input := builder.String()

	p := NewParser(nil)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = p.Parse(context.Background(), strings.NewReader(input))
	}
}

func BenchmarkParseFrame(b *testing.B) {
	testCases := []string{
		"doSomething(libfoo.so)",
		"java.lang.Thread.run",
		"ns::Vec<int>::push(int const&) (vec.h:88)",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseFrame(tc)
		}
	}
}
