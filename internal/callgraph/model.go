// Package callgraph holds the per-event call graph that hotspot queries run
// against: per-line counts, per-symbol counts and the sampled stacks needed to
// merge caller counts for a set of lines.
package callgraph

import (
	"sort"

	"github.com/perf-annotate/pkg/model"
)

// Graph is the immutable call graph of a single event. Build one with a
// Builder; a Graph is never modified after Build returns.
type Graph struct {
	event string
	total uint64

	// nodeInfo maps file -> line -> count.
	nodeInfo map[string]map[uint32]uint64
	// symbolOnly holds the counts of the SymbolPseudoFile bucket.
	symbolOnly map[string]uint64
	// symbols maps file -> symbol -> aggregate.
	symbols map[string]map[string]model.SymbolInfo

	samples []*model.Sample
}

func newGraph(event string) *Graph {
	return &Graph{
		event:      event,
		nodeInfo:   make(map[string]map[uint32]uint64),
		symbolOnly: make(map[string]uint64),
		symbols:    make(map[string]map[string]model.SymbolInfo),
	}
}

// Event returns the event name this graph was built for.
func (g *Graph) Event() string {
	return g.event
}

// WithEvent returns a graph sharing g's data under another event name.
func (g *Graph) WithEvent(event string) *Graph {
	c := *g
	c.event = event
	return &c
}

// TotalCount returns the sum of all node_info counts, symbol bucket included.
func (g *Graph) TotalCount() uint64 {
	return g.total
}

// Files returns the sampled source files in lexical order.
func (g *Graph) Files() []string {
	files := make([]string, 0, len(g.nodeInfo))
	for f := range g.nodeInfo {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// LineCount returns the count recorded for file:line, or 0.
func (g *Graph) LineCount(file string, line uint32) uint64 {
	return g.nodeInfo[file][line]
}

// EachLine calls fn for every (file, line, count) in node_info. The
// SymbolPseudoFile bucket is not visited; see EachSymbolOnly.
func (g *Graph) EachLine(fn func(file string, line uint32, count uint64)) {
	for file, lines := range g.nodeInfo {
		for line, count := range lines {
			fn(file, line, count)
		}
	}
}

// EachLineIn calls fn for every sampled line of file.
func (g *Graph) EachLineIn(file string, fn func(line uint32, count uint64)) {
	for line, count := range g.nodeInfo[file] {
		fn(line, count)
	}
}

// EachSymbolOnly calls fn for every count in the SymbolPseudoFile bucket.
func (g *Graph) EachSymbolOnly(fn func(symbol string, count uint64)) {
	for sym, count := range g.symbolOnly {
		fn(sym, count)
	}
}

// EachSymbol calls fn for every (file, symbol) aggregate.
func (g *Graph) EachSymbol(fn func(file, symbol string, info model.SymbolInfo)) {
	for file, syms := range g.symbols {
		for sym, info := range syms {
			fn(file, sym, info)
		}
	}
}

// Symbol returns the aggregate for symbol in file.
func (g *Graph) Symbol(file, symbol string) (model.SymbolInfo, bool) {
	info, ok := g.symbols[file][symbol]
	return info, ok
}

// SymbolOnlyCount returns the pseudo-file bucket count for symbol.
func (g *Graph) SymbolOnlyCount(symbol string) uint64 {
	return g.symbolOnly[symbol]
}

// Stats summarizes a graph.
type Stats struct {
	Event       string `json:"event"`
	TotalCount  uint64 `json:"total_count"`
	Files       int    `json:"files"`
	Lines       int    `json:"lines"`
	Symbols     int    `json:"symbols"`
	SymbolOnly  int    `json:"symbol_only"`
	SampleCount int    `json:"samples"`
}

// GetStats returns statistics about the graph.
func (g *Graph) GetStats() *Stats {
	stats := &Stats{
		Event:       g.event,
		TotalCount:  g.total,
		Files:       len(g.nodeInfo),
		SymbolOnly:  len(g.symbolOnly),
		SampleCount: len(g.samples),
	}
	for _, lines := range g.nodeInfo {
		stats.Lines += len(lines)
	}
	for _, syms := range g.symbols {
		stats.Symbols += len(syms)
	}
	return stats
}
