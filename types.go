package deadscan

import (
	"fmt"
	"sort"

	"github.com/jward/deadscan/internal/store"
)

// ReferenceRecord is one token match of a known symbol name. It is a type
// alias for the ledger's row type so callers need no conversion.
type ReferenceRecord = store.Reference

// DefinitionSite is a file and 1-based line where a symbol is declared.
type DefinitionSite struct {
	File string
	Line int
}

// Symbol is a declared function or method name. Declarations sharing a bare
// name (methods on unrelated types, build-tagged variants) are merged into a
// single Symbol with several definition sites.
type Symbol struct {
	Name        string
	Definitions []DefinitionSite
}

// SymbolTable maps a symbol name to its merged declarations.
type SymbolTable map[string]*Symbol

// Add appends a definition site for name, creating the symbol if needed.
func (t SymbolTable) Add(name string, site DefinitionSite) {
	sym, ok := t[name]
	if !ok {
		sym = &Symbol{Name: name}
		t[name] = sym
	}
	sym.Definitions = append(sym.Definitions, site)
}

// Names returns all symbol names in sorted order.
func (t SymbolTable) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NameSet returns the table's names as a lookup set for a Scanner.
func (t SymbolTable) NameSet() NameSet {
	set := make(NameSet, len(t))
	for name := range t {
		set[name] = struct{}{}
	}
	return set
}

// NameSet is the set of symbol names a Scanner looks for.
type NameSet map[string]struct{}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Counts maps a symbol name to its total occurrences across the tree.
type Counts map[string]int

// Merge adds every count in other to c.
func (c Counts) Merge(other Counts) {
	for name, n := range other {
		c[name] += n
	}
}

// Tally is the output of a reference pass: occurrence counts and, when
// collection was requested, every matching reference in scan order.
type Tally struct {
	Counts     Counts
	References []ReferenceRecord
}

// Merge folds other into t. References are appended, so merging per-file
// tallies in file order reproduces the sequential scan order.
func (t *Tally) Merge(other Tally) {
	if t.Counts == nil {
		t.Counts = make(Counts, len(other.Counts))
	}
	t.Counts.Merge(other.Counts)
	t.References = append(t.References, other.References...)
}

// Category is the classification outcome for a symbol.
type Category int

const (
	Normal Category = iota
	Dead
	LowUsage
	Excluded
)

func (c Category) String() string {
	switch c {
	case Dead:
		return "dead"
	case LowUsage:
		return "low-usage"
	case Excluded:
		return "excluded"
	default:
		return "normal"
	}
}

// Thresholds controls classification.
type Thresholds struct {
	// MaxRefs is the largest number of references beyond the declarations
	// that still counts as low usage.
	MaxRefs         int
	IncludeExported bool
	IncludeTests    bool
}

// DefaultThresholds returns MaxRefs=1 with exported and test symbols
// excluded.
func DefaultThresholds() Thresholds {
	return Thresholds{MaxRefs: 1}
}

// Validate rejects thresholds that cannot be applied.
func (t Thresholds) Validate() error {
	if t.MaxRefs < 0 {
		return fmt.Errorf("%w: max-refs must be >= 0, got %d", ErrInvalidConfig, t.MaxRefs)
	}
	return nil
}

// Finding is a symbol that landed in the dead or low-usage category.
type Finding struct {
	Name        string
	Category    Category
	Definitions []DefinitionSite
	Occurrences int
	// Extra is Occurrences minus the number of definitions: the references
	// that are not the declarations themselves.
	Extra int
	// References is filled only when reference collection is enabled.
	References []ReferenceRecord
}

// Stats summarizes a run.
type Stats struct {
	FilesScanned int
	SymbolsFound int
	Dead         int
	LowUsage     int
	Excluded     int
}

// Result is the classified outcome of an analysis run.
type Result struct {
	Stats      Stats
	Thresholds Thresholds
	Dead       []Finding
	LowUsage   []Finding
}
