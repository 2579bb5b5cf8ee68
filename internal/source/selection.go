package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/perf-annotate/pkg/errors"
	"github.com/perf-annotate/pkg/model"
)

// Cursor is a position in a source file. Line and Column are 1-indexed;
// Column 0 means unknown.
type Cursor struct {
	File   string
	Line   uint32
	Column uint32
}

// Selection is an active selection in a file. Only the line bounds take part
// in queries.
type Selection struct {
	BeginLine uint32
	BeginCol  uint32
	EndLine   uint32
	EndCol    uint32
}

// Region returns the inclusive line region of the selection in file.
func (s Selection) Region(file string) model.Region {
	return model.NewRegion(file, s.BeginLine, s.EndLine)
}

// String formats the selection as "L1:C1-L2:C2".
func (s Selection) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", s.BeginLine, s.BeginCol, s.EndLine, s.EndCol)
}

// ParseSelection parses "L1:C1-L2:C2", "L1-L2" or a single line "L". Lines
// must be positive.
func ParseSelection(s string) (Selection, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Selection{}, errors.New(errors.CodeRegionUnresolved, "no active selection")
	}

	begin, end, found := strings.Cut(s, "-")
	if !found {
		end = begin
	}

	bl, bc, err := parsePosition(begin)
	if err != nil {
		return Selection{}, errors.Wrap(errors.CodeInvalidInput, fmt.Sprintf("invalid selection %q", s), err)
	}
	el, ec, err := parsePosition(end)
	if err != nil {
		return Selection{}, errors.Wrap(errors.CodeInvalidInput, fmt.Sprintf("invalid selection %q", s), err)
	}

	return Selection{BeginLine: bl, BeginCol: bc, EndLine: el, EndCol: ec}, nil
}

func parsePosition(s string) (line, col uint32, err error) {
	lineStr, colStr, hasCol := strings.Cut(strings.TrimSpace(s), ":")

	l, err := strconv.ParseUint(lineStr, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("line: %w", err)
	}
	if l == 0 {
		return 0, 0, fmt.Errorf("line must be positive")
	}
	if !hasCol {
		return uint32(l), 0, nil
	}

	c, err := strconv.ParseUint(colStr, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("column: %w", err)
	}
	return uint32(l), uint32(c), nil
}

// CanonicalFile returns the absolute, symlink-free path of an existing
// regular file. It fails with a FILE_UNRESOLVABLE error otherwise.
func CanonicalFile(path string) (string, error) {
	if path == "" {
		return "", errors.New(errors.CodeFileUnresolvable, "current buffer has no file")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(errors.CodeFileUnresolvable, path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.Wrap(errors.CodeFileUnresolvable, path, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", errors.Wrap(errors.CodeFileUnresolvable, path, err)
	}
	if !info.Mode().IsRegular() {
		return "", errors.Newf(errors.CodeFileUnresolvable, "%s is not a regular file", path)
	}

	return resolved, nil
}
