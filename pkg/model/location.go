package model

import (
	"fmt"
)

// Location is a source position. Line is 1-indexed; 0 means unknown.
type Location struct {
	File string `json:"file"`
	Line uint32 `json:"line"`
}

// String renders the location as file:line.
func (l Location) String() string {
	if l.Line == 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Region is an inclusive, 1-indexed line range within one file.
type Region struct {
	File  string `json:"file"`
	Begin uint32 `json:"begin"`
	End   uint32 `json:"end"`
}

// NewRegion creates a region, swapping the bounds if they are reversed.
func NewRegion(file string, begin, end uint32) Region {
	if begin > end {
		begin, end = end, begin
	}
	return Region{File: file, Begin: begin, End: end}
}

// Contains reports whether line falls inside the region.
func (r Region) Contains(line uint32) bool {
	return line >= r.Begin && line <= r.End
}

// String renders the region as file:begin-end.
func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.File, r.Begin, r.End)
}

// Frame is one level of a sampled call stack.
type Frame struct {
	Symbol string `json:"symbol,omitempty"`
	File   string `json:"file,omitempty"`
	Line   uint32 `json:"line,omitempty"`
}

// HasLocation reports whether the frame resolves to a file and line.
func (f Frame) HasLocation() bool {
	return f.File != "" && f.Line > 0
}

// Location returns the frame's file:line.
func (f Frame) Location() Location {
	return Location{File: f.File, Line: f.Line}
}

// Sample is a single stack observation for one event. Stack is ordered
// from the root caller to the leaf.
type Sample struct {
	Stack []Frame `json:"stack"`
	Value uint64  `json:"value"`
}

// Leaf returns the innermost frame of the sample.
func (s *Sample) Leaf() (Frame, bool) {
	if len(s.Stack) == 0 {
		return Frame{}, false
	}
	return s.Stack[len(s.Stack)-1], true
}

// SymbolInfo is the aggregate of one symbol within one file: its event
// count and the lowest line observed for it.
type SymbolInfo struct {
	Count   uint64 `json:"count"`
	MinLine uint32 `json:"min_line"`
}
