package callgraph

import (
	"github.com/perf-annotate/pkg/model"
)

// MergeCallerCounts returns, for every call site that enters the selected
// lines from outside, the total value of the samples whose stack passes
// through it into the selection.
//
// A caller is the frame directly above a frame located on one of the selected
// lines, provided the caller itself is located outside the selection. Each
// sample credits a given caller location at most once, however many times
// the stack re-enters the selection.
func (g *Graph) MergeCallerCounts(selected []model.Location) map[string]map[uint32]uint64 {
	result := make(map[string]map[uint32]uint64)
	if len(selected) == 0 {
		return result
	}

	inside := make(map[model.Location]struct{}, len(selected))
	for _, loc := range selected {
		inside[loc] = struct{}{}
	}

	seen := make(map[model.Location]struct{})
	for _, sample := range g.samples {
		for k := range seen {
			delete(seen, k)
		}

		for i := 1; i < len(sample.Stack); i++ {
			callee := sample.Stack[i]
			if !callee.HasLocation() {
				continue
			}
			if _, ok := inside[callee.Location()]; !ok {
				continue
			}
			caller := sample.Stack[i-1]
			if !caller.HasLocation() {
				continue
			}
			if _, ok := inside[caller.Location()]; ok {
				continue
			}
			seen[caller.Location()] = struct{}{}
		}

		for loc := range seen {
			lines, ok := result[loc.File]
			if !ok {
				lines = make(map[uint32]uint64)
				result[loc.File] = lines
			}
			lines[loc.Line] += sample.Value
		}
	}

	return result
}
