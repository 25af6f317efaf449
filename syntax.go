package deadscan

import (
	"context"
	"fmt"
	"strings"

	"github.com/jward/deadscan/internal/syntax"
)

// SyntaxExtractor finds declarations with a tree-sitter parse instead of a
// line pattern. Files in a language without a grammar are reported to warn
// and contribute nothing.
type SyntaxExtractor struct{}

func (SyntaxExtractor) Extract(ctx context.Context, file SourceFile, table SymbolTable, warn func(error)) error {
	_, parsed, ok, err := parseSource(ctx, file, warn)
	if !ok {
		return err
	}
	for _, d := range parsed.Decls {
		table.Add(d.Name, DefinitionSite{File: file.Path, Line: d.Line})
	}
	return nil
}

// SyntaxScanner counts identifier tokens from a tree-sitter parse, so
// names that appear only in comments or string literals are not counted.
type SyntaxScanner struct{}

func (SyntaxScanner) Scan(ctx context.Context, file SourceFile, names NameSet, collect bool, warn func(error)) (Tally, error) {
	tally := Tally{Counts: make(Counts)}
	src, parsed, ok, err := parseSource(ctx, file, warn)
	if !ok {
		return tally, err
	}
	var lines []string
	if collect {
		for _, line := range splitLines(src) {
			lines = append(lines, line)
		}
	}
	for _, id := range parsed.Idents {
		if !names.Has(id.Name) {
			continue
		}
		tally.Counts[id.Name]++
		if collect {
			var text string
			if id.Line <= len(lines) {
				text = lines[id.Line-1]
			}
			tally.References = append(tally.References, newReference(id.Name, file.Path, id.Line, text))
		}
	}
	return tally, nil
}

// parseSource reads and parses file, returning the source it parsed. ok is
// false when the file contributes nothing; err is non-nil only when the run
// must abort.
func parseSource(ctx context.Context, file SourceFile, warn func(error)) (src []byte, parsed *syntax.File, ok bool, err error) {
	src, err = file.Content()
	if err != nil {
		if warn != nil {
			warn(err)
		}
		return nil, nil, false, nil
	}
	src = normalizeLoneCR(src)
	parsed, err = syntax.Parse(ctx, file.Path, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, false, ctxErr
		}
		if warn != nil {
			warn(&FileReadError{Path: file.Path, Err: err})
		}
		return nil, nil, false, nil
	}
	return src, parsed, true, nil
}

// Backend names accepted by BackendByName.
const (
	BackendText       = "text"
	BackendTreeSitter = "treesitter"
)

// BackendByName returns the extractor and scanner pair for a backend name.
func BackendByName(name string) (Extractor, Scanner, error) {
	switch strings.ToLower(name) {
	case "", BackendText:
		return TextExtractor{}, TextScanner{}, nil
	case BackendTreeSitter, "tree-sitter":
		return SyntaxExtractor{}, SyntaxScanner{}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown parser %q (want %s or %s)", ErrInvalidConfig, name, BackendText, BackendTreeSitter)
	}
}
