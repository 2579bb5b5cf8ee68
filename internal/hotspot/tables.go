// Package hotspot builds the ranked hotspot tables: hottest lines, hottest
// symbols and hottest callers of a region.
package hotspot

import (
	"sort"

	"github.com/perf-annotate/internal/display"
	"github.com/perf-annotate/pkg/model"
)

// CallGraph is the read-only view of a per-event graph the tables are
// computed from. *callgraph.Graph implements it.
type CallGraph interface {
	TotalCount() uint64
	EachLine(fn func(file string, line uint32, count uint64))
	EachLineIn(file string, fn func(line uint32, count uint64))
	EachSymbol(fn func(file, symbol string, info model.SymbolInfo))
	EachSymbolOnly(fn func(symbol string, count uint64))
	Symbol(file, symbol string) (model.SymbolInfo, bool)
	MergeCallerCounts(selected []model.Location) map[string]map[uint32]uint64
}

// Calculator computes hotspot tables under a display policy.
type Calculator struct {
	policy display.Policy
	limit  int
}

// Option configures the Calculator.
type Option func(*Calculator)

// WithLimit truncates every table to its n hottest entries; 0 keeps all.
func WithLimit(n int) Option {
	return func(c *Calculator) {
		if n < 0 {
			n = 0
		}
		c.limit = n
	}
}

// NewCalculator creates a Calculator. A nil policy falls back to the default
// threshold policy.
func NewCalculator(policy display.Policy, opts ...Option) *Calculator {
	if policy == nil {
		policy = display.NewThresholdPolicy()
	}
	c := &Calculator{policy: policy}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the display policy the calculator filters with.
func (c *Calculator) Policy() display.Policy {
	return c.policy
}

// HottestLines returns every visible sampled line, hottest first.
func (c *Calculator) HottestLines(g CallGraph) []model.Entry {
	total := g.TotalCount()
	entries := make([]model.Entry, 0)

	g.EachLine(func(file string, line uint32, count uint64) {
		if !c.policy.Visible(count, total) {
			return
		}
		entries = append(entries, model.FromLocation(file, line, "", count))
	})

	return c.rank(entries)
}

// HottestSymbols returns every visible symbol, hottest first, together with
// the event total used as denominator. Symbols known only by name come from
// the symbol pseudo-file bucket.
func (c *Calculator) HottestSymbols(g CallGraph) ([]model.Entry, uint64) {
	total := g.TotalCount()
	entries := make([]model.Entry, 0)

	g.EachSymbol(func(file, symbol string, info model.SymbolInfo) {
		if !c.policy.Visible(info.Count, total) {
			return
		}
		entries = append(entries, EntryFromSymbol(g, file, symbol))
	})

	g.EachSymbolOnly(func(symbol string, count uint64) {
		if !c.policy.Visible(count, total) {
			return
		}
		entries = append(entries, model.FromLocation(model.SymbolPseudoFile, 0, symbol, count))
	})

	return c.rank(entries), total
}

// HottestCallersOfRegion returns the call sites entering region, hottest
// first, together with the region's own count. Visibility is judged against
// the region count, not the event total. Only lines with self samples
// belong to the region. A region without such lines yields no entries and a
// zero count.
func (c *Calculator) HottestCallersOfRegion(g CallGraph, region model.Region) ([]model.Entry, uint64) {
	var regionTotal uint64
	selected := make([]model.Location, 0)

	g.EachLineIn(region.File, func(line uint32, count uint64) {
		if !region.Contains(line) {
			return
		}
		regionTotal += count
		selected = append(selected, model.Location{File: region.File, Line: line})
	})

	entries := make([]model.Entry, 0)
	if len(selected) == 0 {
		return entries, 0
	}

	for file, lines := range g.MergeCallerCounts(selected) {
		for line, count := range lines {
			if !c.policy.Visible(count, regionTotal) {
				continue
			}
			entries = append(entries, model.FromLocation(file, line, "", count))
		}
	}

	return c.rank(entries), regionTotal
}

// EntryFromSymbol builds the entry for symbol of file from the graph's symbol
// table, located at the symbol's lowest line.
func EntryFromSymbol(g CallGraph, file, symbol string) model.Entry {
	info, _ := g.Symbol(file, symbol)
	return model.NewSymbolAtEntry(symbol, file, info.MinLine, info.Count)
}

// rank sorts entries hottest first and applies the limit. Ties are broken
// by symbol, file and line so that output is reproducible.
func (c *Calculator) rank(entries []model.Entry) []model.Entry {
	sort.Slice(entries, func(i, j int) bool {
		return less(entries[i], entries[j])
	})
	if c.limit > 0 && len(entries) > c.limit {
		entries = entries[:c.limit]
	}
	return entries
}

func less(a, b model.Entry) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	as, _ := a.Symbol()
	bs, _ := b.Symbol()
	if as != bs {
		return as < bs
	}
	af, _ := a.File()
	bf, _ := b.File()
	if af != bf {
		return af < bf
	}
	al, _ := a.Line()
	bl, _ := b.Line()
	return al < bl
}
