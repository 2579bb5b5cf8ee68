// Package pprof provides parsing of pprof profile data into per-event call graphs.
package pprof

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/google/pprof/profile"

	"github.com/perf-annotate/internal/callgraph"
	"github.com/perf-annotate/internal/parser"
	"github.com/perf-annotate/pkg/model"
)

// SampleType represents the type of sample in a pprof profile.
type SampleType string

const (
	// CPU sample types
	SampleTypeCPU     SampleType = "cpu"
	SampleTypeSamples SampleType = "samples"

	// Heap sample types
	SampleTypeInuseSpace   SampleType = "inuse_space"
	SampleTypeInuseObjects SampleType = "inuse_objects"
	SampleTypeAllocSpace   SampleType = "alloc_space"
	SampleTypeAllocObjects SampleType = "alloc_objects"

	// Goroutine sample types
	SampleTypeGoroutine SampleType = "goroutine"

	// Block/Mutex sample types
	SampleTypeContentions SampleType = "contentions"
	SampleTypeDelay       SampleType = "delay"
)

var alternatives = map[SampleType][]string{
	SampleTypeCPU:          {"cpu", "nanoseconds", "samples"},
	SampleTypeSamples:      {"samples", "count"},
	SampleTypeInuseSpace:   {"inuse_space", "inuse_bytes"},
	SampleTypeInuseObjects: {"inuse_objects", "inuse_count"},
	SampleTypeAllocSpace:   {"alloc_space", "alloc_bytes"},
	SampleTypeAllocObjects: {"alloc_objects", "alloc_count"},
	SampleTypeGoroutine:    {"goroutine", "count"},
	SampleTypeContentions:  {"contentions", "count"},
	SampleTypeDelay:        {"delay", "nanoseconds"},
}

// ParserOptions holds configuration options for the pprof parser.
type ParserOptions struct {
	// Events restricts the sample types turned into graphs. Names may be
	// aliases (e.g. "cpu" for "nanoseconds"). Empty keeps every sample type.
	Events []string

	// StrictMode fails when a requested event is missing from the profile.
	StrictMode bool

	// MaxSamples limits the number of samples read per event; 0 means no limit.
	MaxSamples int64
}

// DefaultParserOptions returns default parser options.
func DefaultParserOptions() *ParserOptions {
	return &ParserOptions{}
}

// Parser parses pprof data.
type Parser struct {
	opts *ParserOptions
}

// NewParser creates a new pprof parser.
func NewParser(opts *ParserOptions) *Parser {
	if opts == nil {
		opts = DefaultParserOptions()
	}
	return &Parser{opts: opts}
}

// Parse reads a pprof profile (gzipped or not) and builds one graph per
// selected sample type. The event of each graph is the sample type name.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*callgraph.GraphSet, error) {
	prof, err := profile.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pprof: %w", err)
	}
	return p.FromProfile(ctx, prof)
}

// FromProfile builds the graph set of an already decoded profile.
func (p *Parser) FromProfile(ctx context.Context, prof *profile.Profile) (*callgraph.GraphSet, error) {
	indexes, err := p.selectSampleTypes(prof)
	if err != nil {
		return nil, err
	}

	builders := make([]*callgraph.Builder, len(indexes))
	counts := make([]int64, len(indexes))
	for i, idx := range indexes {
		builders[i] = callgraph.NewBuilder(prof.SampleType[idx].Type)
	}

	for n, sample := range prof.Sample {
		if n%1024 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		frames := StackFrames(sample.Location)
		if len(frames) == 0 {
			continue
		}

		for i, idx := range indexes {
			if idx >= len(sample.Value) || sample.Value[idx] <= 0 {
				continue
			}
			if p.opts.MaxSamples > 0 && counts[i] >= p.opts.MaxSamples {
				continue
			}
			builders[i].Add(&model.Sample{Stack: frames, Value: uint64(sample.Value[idx])})
			counts[i]++
		}
	}

	graphs := make([]*callgraph.Graph, len(builders))
	for i, b := range builders {
		graphs[i] = b.Build()
	}
	return callgraph.NewGraphSet(graphs...)
}

// selectSampleTypes returns the indexes of the sample types to build.
func (p *Parser) selectSampleTypes(prof *profile.Profile) ([]int, error) {
	if len(p.opts.Events) == 0 {
		indexes := make([]int, len(prof.SampleType))
		for i := range prof.SampleType {
			indexes[i] = i
		}
		return indexes, nil
	}

	names := SampleTypes(prof)
	seen := make(map[int]struct{})
	var indexes []int
	for _, event := range p.opts.Events {
		idx := indexOf(names, ResolveEvent(event, names))
		if idx < 0 {
			if p.opts.StrictMode {
				return nil, fmt.Errorf("%w: sample type %q not found in profile", parser.ErrInvalidFormat, event)
			}
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	return indexes, nil
}

// SupportedFormats returns the formats supported by this parser.
func (p *Parser) SupportedFormats() []string {
	return []string{"pprof"}
}

// Name returns the name of this parser.
func (p *Parser) Name() string {
	return "pprof"
}

// StackFrames converts pprof locations (leaf first) into root-to-leaf frames.
// Inlined calls of a location expand into one frame each. Frames without a
// function name are named by their address.
func StackFrames(locations []*profile.Location) []model.Frame {
	if len(locations) == 0 {
		return nil
	}

	frames := make([]model.Frame, 0, len(locations))
	for i := len(locations) - 1; i >= 0; i-- {
		loc := locations[i]
		if len(loc.Line) == 0 {
			frames = append(frames, model.Frame{Symbol: fmt.Sprintf("0x%x", loc.Address)})
			continue
		}
		for j := len(loc.Line) - 1; j >= 0; j-- {
			frames = append(frames, lineFrame(loc, loc.Line[j]))
		}
	}
	return frames
}

func lineFrame(loc *profile.Location, line profile.Line) model.Frame {
	var frame model.Frame
	if line.Function != nil {
		frame.Symbol = line.Function.Name
		frame.File = line.Function.Filename
	}
	if frame.Symbol == "" {
		frame.Symbol = fmt.Sprintf("0x%x", loc.Address)
	}
	if frame.File != "" && line.Line > 0 {
		frame.Line = uint32(line.Line)
	} else {
		frame.File = ""
	}
	return frame
}

// SampleTypes returns the sample type names of a profile.
func SampleTypes(prof *profile.Profile) []string {
	if prof == nil {
		return nil
	}
	types := make([]string, 0, len(prof.SampleType))
	for _, st := range prof.SampleType {
		types = append(types, st.Type)
	}
	return types
}

// ResolveEvent maps an event name onto one of events. An exact match wins,
// then the first known alternative name present. It returns "" when nothing
// matches.
func ResolveEvent(name string, events []string) string {
	if indexOf(events, name) >= 0 {
		return name
	}
	for _, alt := range alternatives[SampleType(name)] {
		if indexOf(events, alt) >= 0 {
			return alt
		}
	}
	return ""
}

func indexOf(names []string, name string) int {
	if name == "" {
		return -1
	}
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
