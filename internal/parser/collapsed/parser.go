package collapsed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/perf-annotate/internal/callgraph"
	"github.com/perf-annotate/internal/parser"
	"github.com/perf-annotate/pkg/model"
)

// DefaultEvent names the single event of a collapsed input when none is given.
const DefaultEvent = "samples"

// maxLineSize bounds a single stack line; deep C++ stacks exceed bufio's default.
const maxLineSize = 4 * 1024 * 1024

// ParserOptions holds configuration options for the collapsed parser.
type ParserOptions struct {
	// Event names the event the samples are counted for.
	Event string

	// ThreadPrefix treats the first frame of every stack as a perf thread
	// name ("comm-pid/tid") rather than a call frame.
	ThreadPrefix bool

	// IncludeSwapper keeps samples of the swapper (idle) thread. It only
	// applies with ThreadPrefix.
	IncludeSwapper bool

	// StrictMode enables strict parsing that fails on any error.
	StrictMode bool

	// MaxSamples limits the number of stack lines read; 0 means no limit.
	MaxSamples int64
}

// DefaultParserOptions returns default parser options.
func DefaultParserOptions() *ParserOptions {
	return &ParserOptions{
		Event:          DefaultEvent,
		ThreadPrefix:   false,
		IncludeSwapper: false,
		StrictMode:     false,
	}
}

// Parser implements the collapsed format parser.
type Parser struct {
	opts *ParserOptions
}

// NewParser creates a new collapsed format parser.
func NewParser(opts *ParserOptions) *Parser {
	if opts == nil {
		opts = DefaultParserOptions()
	}
	if opts.Event == "" {
		opts.Event = DefaultEvent
	}
	return &Parser{opts: opts}
}

// Parse parses collapsed format data into a single-event graph set.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) (*callgraph.GraphSet, error) {
	builder := callgraph.NewBuilder(p.opts.Event)

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNum := 0
	var read int64

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		sample, err := p.parseLine(line)
		if err != nil {
			if p.opts.StrictMode {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			continue
		}
		if sample == nil {
			continue
		}

		builder.Add(sample)

		read++
		if p.opts.MaxSamples > 0 && read >= p.opts.MaxSamples {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	return callgraph.NewGraphSet(builder.Build())
}

// SupportedFormats returns the formats supported by this parser.
func (p *Parser) SupportedFormats() []string {
	return []string{"collapsed", "folded"}
}

// Name returns the name of this parser.
func (p *Parser) Name() string {
	return "collapsed"
}

// parseLine parses a single line of collapsed format data.
// Format: stack count
// Example: main (b.c:20);foo (a.c:10) 30
// It returns nil for lines that are skipped on purpose.
func (p *Parser) parseLine(line string) (*model.Sample, error) {
	lastSpace := strings.LastIndexAny(line, " \t")
	if lastSpace == -1 {
		return nil, ErrInvalidFormat
	}

	stack := strings.TrimSpace(line[:lastSpace])
	count, err := strconv.ParseUint(strings.TrimSpace(line[lastSpace+1:]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid count value: %w", err)
	}
	if stack == "" {
		return nil, ErrInvalidFormat
	}

	if p.opts.ThreadPrefix {
		first, _, _ := strings.Cut(stack, ";")
		if IsInvalidData(first) {
			return nil, nil
		}
		if !p.opts.IncludeSwapper && IsSwapperThread(first) {
			return nil, nil
		}
	}

	_, frames := ParseCallStack(stack, p.opts.ThreadPrefix)
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames", parser.ErrInvalidStackFrame)
	}

	return &model.Sample{Stack: frames, Value: count}, nil
}

var collapsedLine = regexp.MustCompile(`^[^;]+(;[^;]+)*\s\d+$`)

// IsCollapsedFormat checks if the content appears to be in collapsed format.
// Collapsed format: stack_trace count
// Example: main (b.c:20);foo (a.c:10) 30
func IsCollapsedFormat(line string) bool {
	return collapsedLine.MatchString(strings.TrimSpace(line))
}

// Error definitions for the parser.
var (
	ErrInvalidFormat = fmt.Errorf("invalid collapsed format: %w", parser.ErrInvalidFormat)
)
