package deadscan

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jward/deadscan/internal/runtime"
)

// testPrefix marks test functions, which are called by the test runner.
const testPrefix = "Test"

// implicitNames are invoked by the runtime or through interfaces, never by
// name at a call site.
var implicitNames = map[string]bool{
	"init":   true,
	"main":   true,
	"String": true,
	"Error":  true,
}

// RuleCandidate is the symbol passed to an ExclusionRule.
type RuleCandidate = runtime.Candidate

// ExclusionRule is an extra, user-defined exclusion applied after the
// built-in ones. *runtime.Runtime satisfies it.
type ExclusionRule interface {
	Exclude(ctx context.Context, c RuleCandidate) (bool, error)
}

// IsExported reports whether name follows the exported naming convention.
func IsExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// exclusion returns a non-empty reason when a symbol is excluded by the
// built-in rules.
func exclusion(name string, th Thresholds) string {
	switch {
	case !th.IncludeTests && strings.HasPrefix(name, testPrefix):
		return "test"
	case !th.IncludeExported && IsExported(name):
		return "exported"
	case implicitNames[name]:
		return "implicit"
	}
	return ""
}

// categorize applies the threshold tests to a symbol that survived the
// exclusions. extra is occurrences beyond the declarations.
func categorize(occurrences, definitions, maxRefs int) (Category, int) {
	switch {
	case occurrences <= definitions:
		return Dead, 0
	case occurrences <= definitions+maxRefs:
		return LowUsage, occurrences - definitions
	default:
		return Normal, occurrences - definitions
	}
}

// classifySymbol returns the category of one symbol: Excluded when a
// built-in exclusion or rule applies, otherwise the threshold outcome.
func classifySymbol(ctx context.Context, sym *Symbol, occ int, th Thresholds, rule ExclusionRule) (Category, int, error) {
	defs := len(sym.Definitions)
	if exclusion(sym.Name, th) != "" {
		return Excluded, 0, nil
	}
	if rule != nil {
		skip, err := rule.Exclude(ctx, RuleCandidate{
			Name:        sym.Name,
			Definitions: defs,
			Occurrences: occ,
			File:        sym.Definitions[0].File,
			Exported:    IsExported(sym.Name),
		})
		if err != nil {
			return Normal, 0, fmt.Errorf("%w: exclusion rule for %s: %v", ErrInvalidConfig, sym.Name, err)
		}
		if skip {
			return Excluded, 0, nil
		}
	}
	cat, extra := categorize(occ, defs, th.MaxRefs)
	return cat, extra, nil
}

// Classify partitions the symbols in table by name order. rule may be nil.
// Stats.FilesScanned is left for the caller to fill in.
func Classify(ctx context.Context, table SymbolTable, counts Counts, th Thresholds, rule ExclusionRule) (*Result, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	res := &Result{
		Thresholds: th,
		Stats:      Stats{SymbolsFound: len(table)},
	}

	for _, name := range table.Names() {
		sym := table[name]
		occ := counts[name]
		cat, extra, err := classifySymbol(ctx, sym, occ, th, rule)
		if err != nil {
			return nil, err
		}
		f := Finding{
			Name:        name,
			Category:    cat,
			Definitions: sym.Definitions,
			Occurrences: occ,
			Extra:       extra,
		}
		switch cat {
		case Excluded:
			res.Stats.Excluded++
		case Dead:
			res.Dead = append(res.Dead, f)
		case LowUsage:
			res.LowUsage = append(res.LowUsage, f)
		}
	}

	res.Stats.Dead = len(res.Dead)
	res.Stats.LowUsage = len(res.LowUsage)
	return res, nil
}
