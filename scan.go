package deadscan

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"
)

// contextWidth is the maximum length, in characters, of a reference snippet.
const contextWidth = 80

var tokenPattern = regexp.MustCompile(identPattern)

// Scanner counts occurrences of known names in one file. When collect is
// set it also records a ReferenceRecord per match. Read failures go to warn
// and yield an empty Tally.
type Scanner interface {
	Scan(ctx context.Context, file SourceFile, names NameSet, collect bool, warn func(error)) (Tally, error)
}

// TextScanner splits every line into identifier tokens. Tokens inside
// comments and string literals count like any other.
type TextScanner struct{}

func (TextScanner) Scan(_ context.Context, file SourceFile, names NameSet, collect bool, warn func(error)) (Tally, error) {
	tally := Tally{Counts: make(Counts)}
	for n, line := range file.Lines(warn) {
		for _, tok := range tokenPattern.FindAllString(line, -1) {
			if !names.Has(tok) {
				continue
			}
			tally.Counts[tok]++
			if collect {
				tally.References = append(tally.References, newReference(tok, file.Path, n, line))
			}
		}
	}
	return tally, nil
}

func newReference(name, path string, line int, text string) ReferenceRecord {
	return ReferenceRecord{
		Name:    name,
		File:    path,
		Line:    line,
		Context: snippet(text),
	}
}

// snippet trims surrounding whitespace and truncates to contextWidth runes.
func snippet(line string) string {
	s := strings.TrimSpace(line)
	if utf8.RuneCountInString(s) <= contextWidth {
		return s
	}
	runes := []rune(s)
	return string(runes[:contextWidth])
}
