// Package formatter renders hotspot entries as display lines.
package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/perf-annotate/internal/display"
	"github.com/perf-annotate/pkg/model"
)

// unknownLabel is rendered for entries that carry neither symbol nor location.
const unknownLabel = "??"

// Formatter renders entries with a display policy, shortening file paths
// relative to a base directory.
type Formatter struct {
	policy    display.Policy
	baseDir   string
	maxSymbol int
}

// Option configures the Formatter.
type Option func(*Formatter)

// WithBaseDir sets the directory file paths are shortened against. An empty
// dir disables shortening.
func WithBaseDir(dir string) Option {
	return func(f *Formatter) {
		f.baseDir = dir
	}
}

// WithMaxSymbolWidth truncates symbol labels longer than n runes; 0 disables it.
func WithMaxSymbolWidth(n int) Option {
	return func(f *Formatter) {
		f.maxSymbol = n
	}
}

// New creates a Formatter. By default paths are shortened against the
// process working directory.
func New(policy display.Policy, opts ...Option) *Formatter {
	if policy == nil {
		policy = display.NewThresholdPolicy()
	}
	f := &Formatter{policy: policy}
	if wd, err := os.Getwd(); err == nil {
		f.baseDir = wd
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FormatEntry renders e against total with a one-off Formatter.
func FormatEntry(e model.Entry, total uint64, policy display.Policy, opts ...Option) string {
	return New(policy, opts...).Format(e, total)
}

// Format renders e against the denominator total:
//
//	<count> <symbol> at <file>:<line>
//	<count> <file>:<line>
//	<count> <symbol>
//	<count> ??
//
// The count prefix always comes from the policy, even for entries the policy
// would hide.
func (f *Formatter) Format(e model.Entry, total uint64) string {
	count := f.policy.Format(e.Count, total)

	switch e.Kind() {
	case model.EntrySymbolAt:
		sym, _ := e.Symbol()
		return fmt.Sprintf("%s %s at %s", count, f.symbol(sym), f.Location(e))
	case model.EntryLine:
		return fmt.Sprintf("%s %s", count, f.Location(e))
	case model.EntrySymbol:
		sym, _ := e.Symbol()
		return fmt.Sprintf("%s %s", count, f.symbol(sym))
	default:
		return fmt.Sprintf("%s %s", count, unknownLabel)
	}
}

// Bind returns a formatting function with total fixed, for renderers that
// format lazily.
func (f *Formatter) Bind(total uint64) func(model.Entry) string {
	return func(e model.Entry) string {
		return f.Format(e, total)
	}
}

// Location renders the entry's location as "file:line", or "file" when the
// line is unknown. It returns "" for entries without a file.
func (f *Formatter) Location(e model.Entry) string {
	file, ok := e.File()
	if !ok {
		return ""
	}
	file = f.ShortenPath(file)
	if line, ok := e.Line(); ok {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return file
}

// ShortenPath returns path relative to the base directory when it lies
// beneath it, and path unchanged otherwise.
func (f *Formatter) ShortenPath(path string) string {
	if f.baseDir == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(f.baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

func (f *Formatter) symbol(s string) string {
	return truncateString(s, f.maxSymbol)
}

// truncateString truncates a string to the specified rune length.
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
