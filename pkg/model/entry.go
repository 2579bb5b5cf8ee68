// Package model defines the records shared by the profile loaders, the
// hotspot table builders and the presentation layer.
package model

import (
	"encoding/json"
)

// SymbolPseudoFile is the reserved node_info file key under which samples
// that resolve to a symbol but to no file/line are counted.
const SymbolPseudoFile = "symbol"

// EntryKind tags which of the Entry variants a value holds.
type EntryKind uint8

const (
	// EntryUnknown carries neither a symbol nor a location. It is the zero
	// value and only rendered as "??".
	EntryUnknown EntryKind = iota
	// EntryLine is a file:line location without a known symbol.
	EntryLine
	// EntrySymbol is a bare symbol without a known location.
	EntrySymbol
	// EntrySymbolAt is a symbol located at the lowest line of its body.
	EntrySymbolAt
)

// String returns the string representation of EntryKind.
func (k EntryKind) String() string {
	switch k {
	case EntryLine:
		return "line"
	case EntrySymbol:
		return "symbol"
	case EntrySymbolAt:
		return "symbol_at"
	default:
		return "unknown"
	}
}

// Entry is one row of a hotspot table.
//
// The fields are unexported so a line can never be set without a file;
// use the constructors and the (value, ok) accessors.
type Entry struct {
	kind   EntryKind
	symbol string
	file   string
	line   uint32

	// Count is the number of events attributed to the entry.
	Count uint64
}

// NewLineEntry creates a location-bound entry. An empty file yields an
// EntryUnknown value.
func NewLineEntry(file string, line uint32, count uint64) Entry {
	if file == "" {
		return Entry{Count: count}
	}
	return Entry{kind: EntryLine, file: file, line: line, Count: count}
}

// NewSymbolEntry creates an entry for a symbol with no known location.
func NewSymbolEntry(symbol string, count uint64) Entry {
	if symbol == "" {
		return Entry{Count: count}
	}
	return Entry{kind: EntrySymbol, symbol: symbol, Count: count}
}

// NewSymbolAtEntry creates an entry for a symbol located at file:line.
// It degrades to the symbol-only or line-only variant when a part is missing.
func NewSymbolAtEntry(symbol, file string, line uint32, count uint64) Entry {
	switch {
	case symbol == "":
		return NewLineEntry(file, line, count)
	case file == "":
		return NewSymbolEntry(symbol, count)
	}
	return Entry{kind: EntrySymbolAt, symbol: symbol, file: file, line: line, Count: count}
}

// FromLocation builds the entry for a single node_info cell. When file is
// SymbolPseudoFile the cell is keyed by the bare symbol name and line is
// ignored; otherwise name is ignored and file:line is used.
func FromLocation(file string, line uint32, name string, count uint64) Entry {
	if file == SymbolPseudoFile {
		return NewSymbolEntry(name, count)
	}
	return NewLineEntry(file, line, count)
}

// Kind returns the entry variant.
func (e Entry) Kind() EntryKind {
	return e.kind
}

// Symbol returns the symbol name, if known.
func (e Entry) Symbol() (string, bool) {
	return e.symbol, e.kind == EntrySymbol || e.kind == EntrySymbolAt
}

// File returns the source file, if known.
func (e Entry) File() (string, bool) {
	return e.file, e.kind == EntryLine || e.kind == EntrySymbolAt
}

// Line returns the 1-indexed line, if known. A line is only ever known
// together with a file.
func (e Entry) Line() (uint32, bool) {
	_, ok := e.File()
	return e.line, ok && e.line > 0
}

// Location returns the file:line pair when both are known.
func (e Entry) Location() (Location, bool) {
	file, ok := e.File()
	if !ok {
		return Location{}, false
	}
	line, ok := e.Line()
	if !ok {
		return Location{}, false
	}
	return Location{File: file, Line: line}, true
}

type entryJSON struct {
	Kind   string `json:"kind"`
	Symbol string `json:"symbol,omitempty"`
	File   string `json:"file,omitempty"`
	Line   uint32 `json:"line,omitempty"`
	Count  uint64 `json:"count"`
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		Kind:   e.kind.String(),
		Symbol: e.symbol,
		File:   e.file,
		Line:   e.line,
		Count:  e.Count,
	})
}
