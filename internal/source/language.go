// Package source maps editor positions to source regions: canonical file
// paths, selection bounds and, with tree-sitter, the function enclosing a
// cursor.
package source

import (
	"path/filepath"
	"strings"
)

// Language identifies a source language the resolver can parse.
type Language string

const (
	LangC      Language = "c"
	LangCPP    Language = "cpp"
	LangGo     Language = "go"
	LangRust   Language = "rust"
	LangPython Language = "python"
	LangJava   Language = "java"
)

var extensions = map[string]Language{
	".c":    LangC,
	".h":    LangC,
	".cc":   LangCPP,
	".cpp":  LangCPP,
	".cxx":  LangCPP,
	".hh":   LangCPP,
	".hpp":  LangCPP,
	".hxx":  LangCPP,
	".go":   LangGo,
	".rs":   LangRust,
	".py":   LangPython,
	".java": LangJava,
}

// LanguageFromPath returns the language for path's extension.
func LanguageFromPath(path string) (Language, bool) {
	lang, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// functionNodeTypes returns the named-function node types of lang. Closures
// and lambdas are left out so the enclosing function is the one a profiler
// attributes samples to.
func functionNodeTypes(lang Language) []string {
	switch lang {
	case LangC, LangCPP:
		return []string{"function_definition"}
	case LangGo:
		return []string{"function_declaration", "method_declaration"}
	case LangRust:
		return []string{"function_item"}
	case LangPython:
		return []string{"function_definition"}
	case LangJava:
		return []string{"method_declaration", "constructor_declaration"}
	default:
		return nil
	}
}
