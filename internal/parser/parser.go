// Package parser defines the interfaces for loading profiling data into
// per-event call graphs.
package parser

import (
	"context"
	"io"
	"sort"

	"github.com/perf-annotate/internal/callgraph"
)

// Parser is the interface for parsing profiling data.
type Parser interface {
	// Parse reads profiling data and builds one call graph per event.
	Parse(ctx context.Context, reader io.Reader) (*callgraph.GraphSet, error)

	// SupportedFormats returns the formats supported by this parser.
	SupportedFormats() []string

	// Name returns the name of this parser.
	Name() string
}

// ParserOption is a function that configures a Parser.
type ParserOption func(interface{})

// Registry holds registered parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a new parser Registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]Parser),
	}
}

// Register registers a parser under every format it supports.
func (r *Registry) Register(p Parser) {
	for _, format := range p.SupportedFormats() {
		r.parsers[format] = p
	}
}

// Get returns a parser for the given format.
func (r *Registry) Get(format string) (Parser, bool) {
	p, ok := r.parsers[format]
	return p, ok
}

// Formats lists the registered formats in sorted order.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.parsers))
	for f := range r.parsers {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// ParseOptions holds common parsing options.
type ParseOptions struct {
	// StrictMode enables strict parsing that fails on any error.
	StrictMode bool

	// MaxSamples limits the number of samples read per event; 0 means no limit.
	MaxSamples int64
}

// DefaultParseOptions returns default parsing options.
func DefaultParseOptions() *ParseOptions {
	return &ParseOptions{
		StrictMode: false,
		MaxSamples: 0,
	}
}
