package testutil

import (
	"github.com/perf-annotate/pkg/model"
)

// FakeGraph is a hand-written call graph whose caller merge result is canned.
// The zero value is an empty graph.
type FakeGraph struct {
	NodeInfo   map[string]map[uint32]uint64
	SymbolOnly map[string]uint64
	Symbols    map[string]map[string]model.SymbolInfo
	Callers    map[string]map[uint32]uint64

	// Total overrides the computed total when non-zero.
	Total uint64

	// Merged records the last selection passed to MergeCallerCounts.
	Merged []model.Location
}

// ScenarioGraph returns the graph of the reference scenario: a.c:10 = 100,
// a.c:11 = 5, foo in a.c with count 50 at line 3, and a single caller
// b.c:20 with 30 samples entering a.c:10-11.
func ScenarioGraph() *FakeGraph {
	return &FakeGraph{
		NodeInfo: map[string]map[uint32]uint64{
			"a.c": {10: 100, 11: 5},
		},
		Symbols: map[string]map[string]model.SymbolInfo{
			"a.c": {"foo": {Count: 50, MinLine: 3}},
		},
		Callers: map[string]map[uint32]uint64{
			"b.c": {20: 30},
		},
	}
}

// TotalCount sums node_info and the symbol bucket unless Total is set.
func (g *FakeGraph) TotalCount() uint64 {
	if g.Total != 0 {
		return g.Total
	}
	var total uint64
	for _, lines := range g.NodeInfo {
		for _, c := range lines {
			total += c
		}
	}
	for _, c := range g.SymbolOnly {
		total += c
	}
	return total
}

// EachLine implements hotspot.CallGraph.
func (g *FakeGraph) EachLine(fn func(file string, line uint32, count uint64)) {
	for file, lines := range g.NodeInfo {
		for line, c := range lines {
			fn(file, line, c)
		}
	}
}

// EachLineIn implements hotspot.CallGraph.
func (g *FakeGraph) EachLineIn(file string, fn func(line uint32, count uint64)) {
	for line, c := range g.NodeInfo[file] {
		fn(line, c)
	}
}

// EachSymbol implements hotspot.CallGraph.
func (g *FakeGraph) EachSymbol(fn func(file, symbol string, info model.SymbolInfo)) {
	for file, syms := range g.Symbols {
		for sym, info := range syms {
			fn(file, sym, info)
		}
	}
}

// EachSymbolOnly implements hotspot.CallGraph.
func (g *FakeGraph) EachSymbolOnly(fn func(symbol string, count uint64)) {
	for sym, c := range g.SymbolOnly {
		fn(sym, c)
	}
}

// Symbol implements hotspot.CallGraph.
func (g *FakeGraph) Symbol(file, symbol string) (model.SymbolInfo, bool) {
	info, ok := g.Symbols[file][symbol]
	return info, ok
}

// MergeCallerCounts returns the canned Callers.
func (g *FakeGraph) MergeCallerCounts(selected []model.Location) map[string]map[uint32]uint64 {
	g.Merged = append([]model.Location(nil), selected...)
	if g.Callers == nil {
		return map[string]map[uint32]uint64{}
	}
	return g.Callers
}
