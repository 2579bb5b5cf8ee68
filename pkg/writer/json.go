// Package writer writes reports as JSON, optionally compressed.
package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/perf-annotate/pkg/compression"
)

// JSONWriter writes data as JSON.
type JSONWriter[T any] struct {
	// Indent specifies the indentation for pretty printing.
	// Empty string means compact output.
	Indent string
}

// NewJSONWriter creates a new JSON writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: ""}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write writes the data as JSON to the writer.
func (w *JSONWriter[T]) Write(data T, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	return encoder.Encode(data)
}

// WriteToFile writes the data as JSON to a file.
func (w *JSONWriter[T]) WriteToFile(data T, path string) error {
	return createAndWrite(path, func(f io.Writer) error {
		return w.Write(data, f)
	})
}

// CompressedWriter writes data as compressed compact JSON.
type CompressedWriter[T any] struct {
	Type  compression.Type
	Level compression.Level
}

// NewCompressedWriter creates a compressed writer with the default level.
func NewCompressedWriter[T any](t compression.Type) *CompressedWriter[T] {
	return &CompressedWriter[T]{Type: t, Level: compression.LevelDefault}
}

// Write writes the data as compressed JSON to the writer.
func (w *CompressedWriter[T]) Write(data T, writer io.Writer) error {
	cw, err := compression.NewWriter(writer, w.Type, w.Level)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(cw).Encode(data); err != nil {
		cw.Close()
		return fmt.Errorf("failed to encode data: %w", err)
	}

	return cw.Close()
}

// WriteToFile writes the data as compressed JSON to a file.
func (w *CompressedWriter[T]) WriteToFile(data T, path string) error {
	return createAndWrite(path, func(f io.Writer) error {
		return w.Write(data, f)
	})
}

// WriteFor writes data to writer in the encoding implied by name: compressed
// JSON for ".gz" or ".zst" names, pretty JSON otherwise.
func WriteFor[T any](writer io.Writer, name string, data T) error {
	if t := compression.TypeFromPath(name); t != compression.TypeNone {
		return NewCompressedWriter[T](t).Write(data, writer)
	}
	return NewPrettyJSONWriter[T]().Write(data, writer)
}

// WriteFile writes data to path in the encoding implied by its extension.
func WriteFile[T any](path string, data T) error {
	return createAndWrite(path, func(f io.Writer) error {
		return WriteFor(f, path, data)
	})
}

func createAndWrite(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
