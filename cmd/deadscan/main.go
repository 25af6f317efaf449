package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jward/deadscan"
	rules "github.com/jward/deadscan/internal/runtime"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deadscan",
		Short: "Detect potentially unused Go functions and methods",
		Long: `deadscan scans every Go file under the current directory, finds function and
method declarations, and counts how often each name appears anywhere in the
tree. Names that only appear at their own declarations are reported as
potentially dead; names with a handful of extra mentions as low usage.

The analysis is textual. Reflection, interface satisfaction and callers in
other modules are invisible to it, so exported names are skipped by default.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runScan(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.BoolP("verbose", "v", false, "show progress and statistics on stderr")
	f.Int("max-refs", 1, "show functions with at most N references beyond definition")
	f.Bool("include-exported", false, "include exported (capitalized) functions in analysis")
	f.Bool("include-tests", false, "include Test* functions in analysis")
	f.Bool("summary", false, "show only summary statistics, no detailed list")
	f.Bool("show-refs", false, "show all references for each function (where it's used)")
	f.Bool("all-low-usage", false, fmt.Sprintf("show all low-usage functions (not just first %d)", deadscan.DefaultLowUsageLimit))
	f.String("pattern", deadscan.DefaultPattern, "glob selecting source files (matched against the base name unless it contains '/')")
	f.StringSlice("exclude-dir", nil, "additional directory names to skip")
	f.String("parser", deadscan.BackendText, "declaration and reference backend: text|treesitter")
	f.Int("jobs", 1, "reference-pass workers (0 uses every CPU)")
	f.String("rules", "", "Risor script; symbols for which it evaluates truthy are excluded")
	f.Bool("progress", false, "draw a progress bar on stderr")

	return cmd
}

func runScan(cmd *cobra.Command, cfg *config) error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	ex, sc, err := deadscan.BackendByName(cfg.Parser)
	if err != nil {
		return err
	}
	jobs := cfg.Jobs
	if jobs == 0 {
		jobs = runtime.NumCPU()
	}

	stderr := cmd.ErrOrStderr()
	opts := []deadscan.Option{
		deadscan.WithPattern(cfg.Pattern),
		deadscan.WithExcludeDirs(cfg.ExcludeDirs...),
		deadscan.WithBackend(ex, sc),
		deadscan.WithWorkers(jobs),
		deadscan.WithReferences(cfg.ShowRefs && !cfg.Summary),
		deadscan.WithLogger(newLogger(stderr, cfg.Verbose)),
	}
	if cfg.Progress {
		opts = append(opts, deadscan.WithProgress(newBarProgress(stderr)))
	}
	if cfg.Rules != "" {
		rt, err := rules.LoadScript(cfg.Rules)
		if err != nil {
			return fmt.Errorf("%w: %v", deadscan.ErrInvalidConfig, err)
		}
		opts = append(opts, deadscan.WithExclusionRule(rt))
	}

	analyzer, err := deadscan.New(root, opts...)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := analyzer.Run(ctx, cfg.Thresholds)
	if err != nil {
		return err
	}
	return deadscan.WriteReport(cmd.OutOrStdout(), res, deadscan.RenderOptions{
		SummaryOnly: cfg.Summary,
		ShowRefs:    cfg.ShowRefs,
		AllLowUsage: cfg.AllLowUsage,
	})
}
