package parser

import "errors"

var (
	// ErrInvalidFormat is returned when the input format is invalid.
	ErrInvalidFormat = errors.New("invalid input format")

	// ErrEmptyInput is returned when the input holds no samples.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnsupportedFormat is returned when the format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrInvalidStackFrame is returned when a stack frame is invalid.
	ErrInvalidStackFrame = errors.New("invalid stack frame")
)
