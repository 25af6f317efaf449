package syntax

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".go":  "go",
	".ts":  "typescript",
	".tsx": "typescript",
	".js":  "javascript",
	".jsx": "javascript",
	".py":  "python",
	".rs":  "rust",
}

// langToGrammar maps language names to tree-sitter Language objects.
// Lazily initialized on first call via sync.Once.
var (
	langToGrammar map[string]*sitter.Language
	grammarsOnce  sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		langToGrammar = map[string]*sitter.Language{
			"go":         golang.GetLanguage(),
			"typescript": ts.GetLanguage(),
			"javascript": javascript.GetLanguage(),
			"python":     python.GetLanguage(),
			"rust":       rust.GetLanguage(),
		}
	})
}

// grammarRules says which node types declare a function and which leaf
// node types are identifier tokens.
type grammarRules struct {
	decls  map[string]bool
	idents map[string]bool
}

var rulesByLanguage = map[string]grammarRules{
	"go": {
		decls:  set("function_declaration", "method_declaration"),
		idents: set("identifier", "field_identifier"),
	},
	"typescript": {
		decls:  set("function_declaration", "method_definition", "method_signature"),
		idents: set("identifier", "property_identifier"),
	},
	"javascript": {
		decls:  set("function_declaration", "method_definition"),
		idents: set("identifier", "property_identifier"),
	},
	"python": {
		decls:  set("function_definition"),
		idents: set("identifier"),
	},
	"rust": {
		decls:  set("function_item"),
		idents: set("identifier", "field_identifier"),
	},
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// ParserForLanguage returns the tree-sitter Language for a canonical language
// name. Returns (nil, false) if the language is not supported.
func ParserForLanguage(lang string) (*sitter.Language, bool) {
	initGrammars()
	l, ok := langToGrammar[lang]
	return l, ok
}
