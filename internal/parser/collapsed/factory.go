package collapsed

import (
	"github.com/perf-annotate/internal/parser"
)

// Factory creates new Collapsed format parsers.
type Factory struct{}

// NewFactory creates a new CollapsedParserFactory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a new Collapsed format parser with the given options.
func (f *Factory) Create(opts ...parser.ParserOption) (parser.Parser, error) {
	parserOpts := DefaultParserOptions()

	for _, opt := range opts {
		opt(parserOpts)
	}

	return NewParser(parserOpts), nil
}

// RegisterWithRegistry registers the collapsed parser with the given registry.
func RegisterWithRegistry(registry *parser.Registry, opts ...parser.ParserOption) {
	p, _ := NewFactory().Create(opts...)
	registry.Register(p)
}

// WithEventOption returns a parser option that names the event.
func WithEventOption(event string) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*ParserOptions); ok {
			o.Event = event
		}
	}
}

// WithThreadPrefixOption returns a parser option that treats the first frame
// as a thread name.
func WithThreadPrefixOption(enabled bool) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*ParserOptions); ok {
			o.ThreadPrefix = enabled
		}
	}
}

// WithStrictModeOption returns a parser option that enables strict mode.
func WithStrictModeOption(strict bool) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*ParserOptions); ok {
			o.StrictMode = strict
		}
	}
}

// WithIncludeSwapperOption returns a parser option that includes swapper.
func WithIncludeSwapperOption(include bool) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*ParserOptions); ok {
			o.IncludeSwapper = include
		}
	}
}

// WithMaxSamplesOption returns a parser option that caps the lines read.
func WithMaxSamplesOption(n int64) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*ParserOptions); ok {
			o.MaxSamples = n
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
