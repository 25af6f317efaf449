// Package syntax extracts function declarations and identifier tokens from
// source files with tree-sitter. Unlike a line-oriented pattern match it
// follows multi-line signatures and ignores comments and string literals.
package syntax

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrUnsupportedLanguage is returned for files whose extension has no
// grammar.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Token is a name and the 1-based line it starts on.
type Token struct {
	Name string
	Line int
}

// File is the result of parsing one source file.
type File struct {
	Language string
	// Decls are declared function and method names in source order.
	Decls []Token
	// Idents are every identifier token in source order, including the
	// names in Decls.
	Idents []Token
}

// Parse parses src as the language implied by path's extension.
func Parse(ctx context.Context, path string, src []byte) (*File, error) {
	lang, ok := LanguageForFile(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, path)
	}
	grammar, _ := ParserForLanguage(lang)
	rules := rulesByLanguage[lang]

	// A parser is not safe for concurrent use; each call gets its own.
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse %s: %w", path, err)
	}
	defer tree.Close()

	f := &File{Language: lang}
	walk(tree.RootNode(), src, rules, f)
	return f, nil
}

func walk(node *sitter.Node, src []byte, rules grammarRules, f *File) {
	if rules.decls[node.Type()] {
		if name := node.ChildByFieldName("name"); name != nil {
			f.Decls = append(f.Decls, tokenOf(name, src))
		}
	}
	count := int(node.ChildCount())
	if count == 0 {
		if rules.idents[node.Type()] {
			f.Idents = append(f.Idents, tokenOf(node, src))
		}
		return
	}
	for i := 0; i < count; i++ {
		walk(node.Child(i), src, rules, f)
	}
}

func tokenOf(node *sitter.Node, src []byte) Token {
	return Token{
		Name: node.Content(src),
		Line: int(node.StartPoint().Row) + 1,
	}
}
