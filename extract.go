package deadscan

import (
	"context"
	"regexp"
)

// identPattern is a run of Unicode letters, digits and underscores.
const identPattern = `[\p{L}\p{N}_]+`

// declPattern matches a function or method declaration line:
// "func name(" or "func (recv T) name(". It is a single-line match and does
// not follow signatures or bodies across lines.
var declPattern = regexp.MustCompile(`^\s*func\s+(?:\([^)]+\)\s+)?(` + identPattern + `)`)

// Extractor adds the declarations found in one file to a SymbolTable.
// Read failures go to warn and are not returned; a returned error aborts
// the run.
type Extractor interface {
	Extract(ctx context.Context, file SourceFile, table SymbolTable, warn func(error)) error
}

// TextExtractor finds declarations by matching each line against a
// declaration pattern.
type TextExtractor struct{}

func (TextExtractor) Extract(_ context.Context, file SourceFile, table SymbolTable, warn func(error)) error {
	for n, line := range file.Lines(warn) {
		if m := declPattern.FindStringSubmatch(line); m != nil {
			table.Add(m[1], DefinitionSite{File: file.Path, Line: n})
		}
	}
	return nil
}
