package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryConstructors(t *testing.T) {
	tests := []struct {
		name       string
		entry      Entry
		kind       EntryKind
		wantSymbol string
		wantFile   string
		wantLine   uint32
	}{
		{"line", NewLineEntry("a.c", 10, 100), EntryLine, "", "a.c", 10},
		{"line without file", NewLineEntry("", 10, 100), EntryUnknown, "", "", 0},
		{"symbol", NewSymbolEntry("foo", 5), EntrySymbol, "foo", "", 0},
		{"empty symbol", NewSymbolEntry("", 5), EntryUnknown, "", "", 0},
		{"symbol at", NewSymbolAtEntry("foo", "a.c", 3, 50), EntrySymbolAt, "foo", "a.c", 3},
		{"symbol at without file", NewSymbolAtEntry("foo", "", 3, 50), EntrySymbol, "foo", "", 0},
		{"symbol at without symbol", NewSymbolAtEntry("", "a.c", 3, 50), EntryLine, "", "a.c", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.entry.Kind())

			sym, ok := tt.entry.Symbol()
			assert.Equal(t, tt.wantSymbol != "", ok)
			if ok {
				assert.Equal(t, tt.wantSymbol, sym)
			}

			file, ok := tt.entry.File()
			assert.Equal(t, tt.wantFile != "", ok)
			if ok {
				assert.Equal(t, tt.wantFile, file)
			}

			line, ok := tt.entry.Line()
			assert.Equal(t, tt.wantLine != 0, ok)
			if ok {
				assert.Equal(t, tt.wantLine, line)
			}
		})
	}
}

func TestEntry_LineNeverWithoutFile(t *testing.T) {
	entries := []Entry{
		{},
		NewLineEntry("", 7, 1),
		NewSymbolEntry("foo", 1),
		NewSymbolAtEntry("foo", "", 7, 1),
	}
	for _, e := range entries {
		_, hasFile := e.File()
		_, hasLine := e.Line()
		assert.False(t, hasFile)
		assert.False(t, hasLine)
	}
}

func TestFromLocation(t *testing.T) {
	e := FromLocation("a.c", 10, "ignored", 100)
	assert.Equal(t, EntryLine, e.Kind())
	loc, ok := e.Location()
	require.True(t, ok)
	assert.Equal(t, Location{File: "a.c", Line: 10}, loc)
	_, ok = e.Symbol()
	assert.False(t, ok)

	e = FromLocation(SymbolPseudoFile, 0, "memcpy", 7)
	assert.Equal(t, EntrySymbol, e.Kind())
	sym, ok := e.Symbol()
	require.True(t, ok)
	assert.Equal(t, "memcpy", sym)
	_, ok = e.File()
	assert.False(t, ok, "pseudo-file must not leak into the entry as a real file")
	assert.Equal(t, uint64(7), e.Count)
}

func TestEntry_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewSymbolAtEntry("foo", "a.c", 3, 50))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"symbol_at","symbol":"foo","file":"a.c","line":3,"count":50}`, string(data))

	data, err = json.Marshal(NewSymbolEntry("bar", 2))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"symbol","symbol":"bar","count":2}`, string(data))
}

func TestRegion(t *testing.T) {
	r := NewRegion("a.c", 20, 10)
	assert.Equal(t, uint32(10), r.Begin)
	assert.Equal(t, uint32(20), r.End)
	assert.True(t, r.Contains(10))
	assert.True(t, r.Contains(20))
	assert.False(t, r.Contains(21))
	assert.Equal(t, "a.c:10-20", r.String())
}

func TestSample_Leaf(t *testing.T) {
	s := &Sample{Stack: []Frame{{Symbol: "main"}, {Symbol: "foo", File: "a.c", Line: 4}}, Value: 1}
	leaf, ok := s.Leaf()
	require.True(t, ok)
	assert.Equal(t, "foo", leaf.Symbol)
	assert.True(t, leaf.HasLocation())

	_, ok = (&Sample{}).Leaf()
	assert.False(t, ok)
}
