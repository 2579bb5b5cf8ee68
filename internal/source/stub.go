//go:build !cgo

package source

import (
	"context"

	"github.com/perf-annotate/pkg/model"
)

// Function is a named function body found in a source file.
type Function struct {
	Name   string
	Region model.Region
}

// Resolver finds enclosing functions with tree-sitter.
// This stub is used when CGO is not available and never resolves anything.
type Resolver struct{}

// NewResolver creates a resolver that resolves nothing.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Available reports whether enclosing-function resolution is supported in
// this build.
func Available() bool {
	return false
}

// EnclosingFunction always reports no enclosing function.
func (r *Resolver) EnclosingFunction(ctx context.Context, cur Cursor) (model.Region, bool, error) {
	return model.Region{}, false, nil
}

// FunctionAt always reports no function.
func (r *Resolver) FunctionAt(ctx context.Context, file string, line uint32) (Function, bool, error) {
	return Function{}, false, nil
}

// FunctionIn always reports no function.
func (r *Resolver) FunctionIn(ctx context.Context, file string, src []byte, lang Language, line uint32) (Function, bool, error) {
	return Function{}, false, nil
}

// Functions returns no functions.
func (r *Resolver) Functions(ctx context.Context, file string, src []byte, lang Language) ([]Function, error) {
	return nil, nil
}
