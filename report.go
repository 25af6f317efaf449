package deadscan

import (
	"fmt"
	"io"
	"strings"
)

// DefaultLowUsageLimit is how many low-usage symbols are listed unless
// RenderOptions.AllLowUsage is set.
const DefaultLowUsageLimit = 20

const reportWidth = 70

var (
	heavyRule = strings.Repeat("=", reportWidth)
	lightRule = strings.Repeat("─", reportWidth)
)

// RenderOptions selects which report sections are written.
type RenderOptions struct {
	// SummaryOnly keeps the statistics banner and the closing note and
	// drops every per-symbol section.
	SummaryOnly bool
	// ShowRefs lists every reference under each symbol. The Result must
	// have been produced with reference collection enabled.
	ShowRefs bool
	// AllLowUsage lifts the DefaultLowUsageLimit cap.
	AllLowUsage bool
}

// WriteReport renders r as text. It performs no analysis: the output is a
// function of r and opts alone, so identical inputs give identical bytes.
// The report is assembled in memory and written with a single call.
func WriteReport(w io.Writer, r *Result, opts RenderOptions) error {
	var b strings.Builder
	maxRefs := r.Thresholds.MaxRefs

	fmt.Fprintf(&b, "\n%s\n", heavyRule)
	b.WriteString("DEAD CODE ANALYSIS REPORT\n")
	fmt.Fprintf(&b, "%s\n", heavyRule)

	b.WriteString("\nStatistics:\n")
	fmt.Fprintf(&b, "  - Files scanned:         %d\n", r.Stats.FilesScanned)
	fmt.Fprintf(&b, "  - Functions found:       %d\n", r.Stats.SymbolsFound)
	fmt.Fprintf(&b, "  - Potentially dead:      %d\n", r.Stats.Dead)
	fmt.Fprintf(&b, "  - Low usage (≤%d refs): %d\n", maxRefs, r.Stats.LowUsage)

	if !opts.SummaryOnly {
		writeDead(&b, r.Dead, opts)
		writeLowUsage(&b, r.LowUsage, maxRefs, opts)
	}

	fmt.Fprintf(&b, "\n%s\n", heavyRule)
	b.WriteString("NOTE: Exported functions (capitalized) are excluded by default.\n")
	b.WriteString("      Use --include-exported to include them.\n")
	b.WriteString("      False positives may occur for reflection, interfaces, or external usage.\n")
	fmt.Fprintf(&b, "%s\n\n", heavyRule)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeDead(b *strings.Builder, dead []Finding, opts RenderOptions) {
	if len(dead) == 0 {
		b.WriteString("\n✓ No dead code candidates found!\n")
		return
	}
	fmt.Fprintf(b, "\n%s\n", lightRule)
	b.WriteString("POTENTIALLY DEAD CODE (only referenced at definition)\n")
	fmt.Fprintf(b, "%s\n", lightRule)
	for _, f := range dead {
		for _, d := range f.Definitions {
			fmt.Fprintf(b, "  %s:%-6d %s\n", d.File, d.Line, f.Name)
		}
		if opts.ShowRefs {
			writeReferences(b, "References", f.References)
		}
	}
}

func writeLowUsage(b *strings.Builder, low []Finding, maxRefs int, opts RenderOptions) {
	if len(low) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", lightRule)
	fmt.Fprintf(b, "LOW USAGE FUNCTIONS (≤%d references beyond definition)\n", maxRefs)
	fmt.Fprintf(b, "%s\n", lightRule)

	shown := low
	if !opts.AllLowUsage && len(shown) > DefaultLowUsageLimit {
		shown = shown[:DefaultLowUsageLimit]
	}
	for _, f := range shown {
		for _, d := range f.Definitions {
			fmt.Fprintf(b, "  %s:%-6d %s (%d refs)\n", d.File, d.Line, f.Name, f.Extra)
		}
		if opts.ShowRefs {
			writeReferences(b, "All references", f.References)
		}
	}
	if hidden := len(low) - len(shown); hidden > 0 {
		fmt.Fprintf(b, "  ... and %d more (use --all-low-usage to show all)\n", hidden)
	}
}

func writeReferences(b *strings.Builder, title string, refs []ReferenceRecord) {
	if len(refs) == 0 {
		return
	}
	fmt.Fprintf(b, "    %s (%d):\n", title, len(refs))
	for _, ref := range refs {
		fmt.Fprintf(b, "      %s:%d\n", ref.File, ref.Line)
		fmt.Fprintf(b, "        → %s\n", ref.Context)
	}
	b.WriteString("\n")
}
