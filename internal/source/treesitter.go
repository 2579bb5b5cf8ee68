//go:build cgo

package source

import (
	"context"
	"fmt"
	"os"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/perf-annotate/pkg/model"
)

// Function is a named function body found in a source file.
type Function struct {
	Name   string
	Region model.Region
}

// Resolver finds enclosing functions with tree-sitter.
type Resolver struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// NewResolver creates a tree-sitter backed resolver.
func NewResolver() *Resolver {
	return &Resolver{parser: sitter.NewParser()}
}

// Available reports whether enclosing-function resolution is supported in
// this build.
func Available() bool {
	return true
}

// EnclosingFunction returns the line region of the innermost named function
// containing the cursor. It returns false when the file's language is not
// supported or no function encloses the cursor line.
func (r *Resolver) EnclosingFunction(ctx context.Context, cur Cursor) (model.Region, bool, error) {
	fn, ok, err := r.FunctionAt(ctx, cur.File, cur.Line)
	if err != nil || !ok {
		return model.Region{}, false, err
	}
	return fn.Region, true, nil
}

// FunctionAt reads file and returns the innermost function containing line.
func (r *Resolver) FunctionAt(ctx context.Context, file string, line uint32) (Function, bool, error) {
	lang, ok := LanguageFromPath(file)
	if !ok {
		return Function{}, false, nil
	}

	src, err := os.ReadFile(file)
	if err != nil {
		return Function{}, false, err
	}

	return r.FunctionIn(ctx, file, src, lang, line)
}

// FunctionIn is FunctionAt over source bytes already in memory.
func (r *Resolver) FunctionIn(ctx context.Context, file string, src []byte, lang Language, line uint32) (Function, bool, error) {
	fns, err := r.Functions(ctx, file, src, lang)
	if err != nil {
		return Function{}, false, err
	}

	var best Function
	found := false
	for _, fn := range fns {
		if !fn.Region.Contains(line) {
			continue
		}
		if !found || fn.Region.End-fn.Region.Begin < best.Region.End-best.Region.Begin {
			best = fn
			found = true
		}
	}
	return best, found, nil
}

// Functions lists every named function of src in document order.
func (r *Resolver) Functions(ctx context.Context, file string, src []byte, lang Language) ([]Function, error) {
	root, err := r.parse(ctx, src, lang)
	if err != nil {
		return nil, err
	}

	var fns []Function
	for _, node := range findNodes(root, functionNodeTypes(lang)) {
		fns = append(fns, Function{
			Name: functionName(node, src),
			Region: model.NewRegion(file,
				node.StartPoint().Row+1,
				node.EndPoint().Row+1),
		})
	}
	return fns, nil
}

func (r *Resolver) parse(ctx context.Context, src []byte, lang Language) (*sitter.Node, error) {
	tsLang, err := getLanguage(lang)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.parser.SetLanguage(tsLang)
	tree, err := r.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return tree.RootNode(), nil
}

func getLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangC:
		return c.GetLanguage(), nil
	case LangCPP:
		return cpp.GetLanguage(), nil
	case LangGo:
		return golang.GetLanguage(), nil
	case LangRust:
		return rust.GetLanguage(), nil
	case LangPython:
		return python.GetLanguage(), nil
	case LangJava:
		return java.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// findNodes collects every node whose type is in types, depth first.
func findNodes(node *sitter.Node, types []string) []*sitter.Node {
	if node == nil || len(types) == 0 {
		return nil
	}

	var result []*sitter.Node
	for _, t := range types {
		if node.Type() == t {
			result = append(result, node)
			break
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		result = append(result, findNodes(node.Child(i), types)...)
	}
	return result
}

// functionName returns the declared name of a function node. C and C++
// definitions nest the name inside declarators.
func functionName(node *sitter.Node, src []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}

	decl := node.ChildByFieldName("declarator")
	for decl != nil {
		switch decl.Type() {
		case "identifier", "field_identifier", "qualified_identifier", "destructor_name", "operator_name":
			return decl.Content(src)
		}
		next := decl.ChildByFieldName("declarator")
		if next == nil {
			break
		}
		decl = next
	}
	if decl != nil {
		return decl.Content(src)
	}
	return ""
}
