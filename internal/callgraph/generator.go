package callgraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/perf-annotate/pkg/model"
)

// UnknownSymbol names leaf frames that carry neither a symbol nor a location.
const UnknownSymbol = "[unknown]"

// ErrDuplicateEvent is returned when a graph set already holds an event.
var ErrDuplicateEvent = errors.New("duplicate event")

// Builder accumulates samples of one event into a Graph.
type Builder struct {
	g *Graph
}

// NewBuilder creates a builder for event.
func NewBuilder(event string) *Builder {
	return &Builder{g: newGraph(event)}
}

// Event returns the event the builder collects.
func (b *Builder) Event() string {
	return b.g.event
}

// Add records one sample. Samples with a zero value or an empty stack are
// dropped. The builder keeps its own copy of the stack.
func (b *Builder) Add(sample *model.Sample) {
	if sample == nil || sample.Value == 0 {
		return
	}
	leaf, ok := sample.Leaf()
	if !ok {
		return
	}

	g := b.g
	g.total += sample.Value

	if leaf.HasLocation() {
		lines, ok := g.nodeInfo[leaf.File]
		if !ok {
			lines = make(map[uint32]uint64)
			g.nodeInfo[leaf.File] = lines
		}
		lines[leaf.Line] += sample.Value
	} else {
		sym := leaf.Symbol
		if sym == "" {
			sym = UnknownSymbol
		}
		g.symbolOnly[sym] += sample.Value
	}

	if leaf.Symbol != "" && leaf.File != "" {
		info := b.symbolInfo(leaf.File, leaf.Symbol)
		info.Count += sample.Value
		b.setSymbolInfo(leaf.File, leaf.Symbol, info)
	}

	// Every frame narrows the lowest line known for its symbol.
	for _, frame := range sample.Stack {
		if frame.Symbol == "" || frame.File == "" || frame.Line == 0 {
			continue
		}
		info := b.symbolInfo(frame.File, frame.Symbol)
		if info.MinLine == 0 || frame.Line < info.MinLine {
			info.MinLine = frame.Line
			b.setSymbolInfo(frame.File, frame.Symbol, info)
		}
	}

	stack := make([]model.Frame, len(sample.Stack))
	copy(stack, sample.Stack)
	g.samples = append(g.samples, &model.Sample{Stack: stack, Value: sample.Value})
}

func (b *Builder) symbolInfo(file, symbol string) model.SymbolInfo {
	return b.g.symbols[file][symbol]
}

func (b *Builder) setSymbolInfo(file, symbol string, info model.SymbolInfo) {
	syms, ok := b.g.symbols[file]
	if !ok {
		syms = make(map[string]model.SymbolInfo)
		b.g.symbols[file] = syms
	}
	syms[symbol] = info
}

// Build returns the finished graph. The builder must not be used afterwards.
func (b *Builder) Build() *Graph {
	g := b.g
	b.g = nil
	return g
}

// Generate builds the graph of event from samples.
func Generate(ctx context.Context, event string, samples []*model.Sample) (*Graph, error) {
	b := NewBuilder(event)
	for i, sample := range samples {
		if i%4096 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		b.Add(sample)
	}
	return b.Build(), nil
}

// GraphSet is the set of graphs loaded from one profile, keyed by event.
type GraphSet struct {
	graphs map[string]*Graph
	order  []string
}

// NewGraphSet creates a graph set holding graphs in the given order.
func NewGraphSet(graphs ...*Graph) (*GraphSet, error) {
	s := &GraphSet{graphs: make(map[string]*Graph)}
	for _, g := range graphs {
		if err := s.Add(g); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a graph. It is only meant to be used while loading.
func (s *GraphSet) Add(g *Graph) error {
	if g == nil {
		return nil
	}
	if _, exists := s.graphs[g.event]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, g.event)
	}
	s.graphs[g.event] = g
	s.order = append(s.order, g.event)
	return nil
}

// Loaded reports whether the set holds any graph.
func (s *GraphSet) Loaded() bool {
	return s != nil && len(s.graphs) > 0
}

// Graph returns the graph of event.
func (s *GraphSet) Graph(event string) (*Graph, bool) {
	if s == nil {
		return nil, false
	}
	g, ok := s.graphs[event]
	return g, ok
}

// Events returns the loaded event names in load order.
func (s *GraphSet) Events() []string {
	if s == nil {
		return nil
	}
	events := make([]string, len(s.order))
	copy(events, s.order)
	return events
}
