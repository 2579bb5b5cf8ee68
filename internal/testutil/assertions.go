package testutil

import (
	"fmt"
	"sort"
	"testing"

	"github.com/perf-annotate/pkg/model"
)

// AssertSortedByCount asserts that entries are in non-increasing count order.
func AssertSortedByCount(t *testing.T, entries []model.Entry) {
	t.Helper()
	for i := 1; i < len(entries); i++ {
		if entries[i].Count > entries[i-1].Count {
			t.Errorf("entry %d (count %d) ranks below entry %d (count %d)",
				i, entries[i].Count, i-1, entries[i-1].Count)
		}
	}
}

// EntryKey renders an entry as a comparable string.
func EntryKey(e model.Entry) string {
	sym, _ := e.Symbol()
	file, _ := e.File()
	line, _ := e.Line()
	return fmt.Sprintf("%s|%s|%s|%d|%d", e.Kind(), sym, file, line, e.Count)
}

// EntrySet returns the sorted keys of entries, for membership comparisons
// that ignore order.
func EntrySet(entries []model.Entry) []string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = EntryKey(e)
	}
	sort.Strings(keys)
	return keys
}

// SumCounts sums the counts of entries.
func SumCounts(entries []model.Entry) uint64 {
	var sum uint64
	for _, e := range entries {
		sum += e.Count
	}
	return sum
}
