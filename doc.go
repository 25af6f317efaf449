// Package deadscan provides a heuristic dead-code and low-usage detector for
// Go source trees. It does not type-check or build a call graph; it counts
// textual occurrences of declared function and method names and reports the
// ones that are never, or only rarely, mentioned outside their declarations.
//
// # Pipeline
//
// An [Analyzer] runs five stages over a directory tree:
//
//  1. Walk: [ListFiles] enumerates files matching a glob, skipping
//     vendored, generated and version-control directories.
//  2. Extract: an [Extractor] builds a [SymbolTable] from declaration lines.
//  3. Scan: a [Scanner] counts every token that matches a known symbol name,
//     declaration lines included.
//  4. Classify: [Classify] partitions symbols into dead, low-usage, excluded
//     and normal using [Thresholds].
//  5. Render: [WriteReport] projects the [Result] into a text report.
//
// # Usage
//
//	a, err := deadscan.New(".", deadscan.WithWorkers(4))
//	if err != nil { ... }
//	defer a.Close()
//
//	res, err := a.Run(ctx, deadscan.DefaultThresholds())
//	if err != nil { ... }
//	err = deadscan.WriteReport(os.Stdout, res, deadscan.RenderOptions{})
//
// # Accuracy
//
// Results are heuristic. Names reached through reflection, interface
// satisfaction or other modules show up as false positives, and a name that
// is shadowed or reused elsewhere in the tree hides a genuinely unused
// declaration. Exported names are skipped by default for that reason.
//
// The textual backend may be swapped for the tree-sitter backend with
// [WithBackend]; the classification and report are unaffected.
package deadscan
