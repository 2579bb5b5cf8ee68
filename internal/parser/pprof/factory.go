package pprof

import (
	"github.com/perf-annotate/internal/parser"
)

// Factory creates new pprof parsers.
type Factory struct{}

// NewFactory creates a new pprof parser factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a new pprof parser with the given options.
func (f *Factory) Create(opts ...parser.ParserOption) (parser.Parser, error) {
	parserOpts := DefaultParserOptions()

	for _, opt := range opts {
		opt(parserOpts)
	}

	return NewParser(parserOpts), nil
}

// RegisterWithRegistry registers the pprof parser with the given registry.
func RegisterWithRegistry(registry *parser.Registry, opts ...parser.ParserOption) {
	p, _ := NewFactory().Create(opts...)
	registry.Register(p)
}

// WithEventsOption returns a parser option that keeps only the named sample types.
func WithEventsOption(events ...string) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*ParserOptions); ok {
			o.Events = events
		}
	}
}

// WithParseOptions applies the common parse options.
func WithParseOptions(common *parser.ParseOptions) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*ParserOptions); ok && common != nil {
			o.StrictMode = common.StrictMode
			o.MaxSamples = common.MaxSamples
		}
	}
}
