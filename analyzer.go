package deadscan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jward/deadscan/internal/store"
)

// progressLogEvery controls how often the reference pass logs its position.
const progressLogEvery = 50

// busiestFilesLogged caps the per-file reference counts logged after the
// ledger is filled.
const busiestFilesLogged = 5

// Progress receives per-file notifications during the two passes. Calls
// are made from a single goroutine.
type Progress interface {
	StartPass(name string, total int)
	FileDone()
	FinishPass()
}

type noProgress struct{}

func (noProgress) StartPass(string, int) {}
func (noProgress) FileDone()             {}
func (noProgress) FinishPass()           {}

// Analyzer orchestrates the pipeline: walk, extract, scan, classify.
type Analyzer struct {
	root        string
	pattern     string
	excludeDirs []string
	extractor   Extractor
	scanner     Scanner
	workers     int
	rule        ExclusionRule
	logger      *slog.Logger
	progress    Progress
	collectRefs bool

	// store holds reference records; nil unless collectRefs is set.
	store *store.Store

	// warned holds the files already reported in the current Run. Both
	// passes read every file, so a bad file would otherwise warn twice.
	warnMu sync.Mutex
	warned map[string]bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithPattern sets the file glob. See ListFiles for matching rules.
func WithPattern(pattern string) Option {
	return func(a *Analyzer) {
		a.pattern = pattern
	}
}

// WithExcludeDirs adds directory names to skip on top of
// DefaultExcludeDirs.
func WithExcludeDirs(dirs ...string) Option {
	return func(a *Analyzer) {
		a.excludeDirs = append(a.excludeDirs, dirs...)
	}
}

// WithBackend replaces the textual extractor and scanner.
func WithBackend(ex Extractor, sc Scanner) Option {
	return func(a *Analyzer) {
		a.extractor = ex
		a.scanner = sc
	}
}

// WithWorkers sets the number of goroutines used by the reference pass.
// 1 (the default) scans sequentially.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithReferences enables collection of every reference record so that
// findings carry their References. Records are kept in an in-memory
// SQLite ledger for the lifetime of the Analyzer.
func WithReferences(collect bool) Option {
	return func(a *Analyzer) {
		a.collectRefs = collect
	}
}

// WithExclusionRule adds a user-defined exclusion applied after the
// built-in ones.
func WithExclusionRule(rule ExclusionRule) Option {
	return func(a *Analyzer) {
		a.rule = rule
	}
}

// WithLogger sets the logger for progress and per-file warnings.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// WithProgress sets a per-file progress observer.
func WithProgress(p Progress) Option {
	return func(a *Analyzer) {
		a.progress = p
	}
}

// New creates an Analyzer rooted at root. Invalid options are reported as
// ErrInvalidConfig before any file is read.
func New(root string, opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		root:        root,
		pattern:     DefaultPattern,
		excludeDirs: append([]string(nil), DefaultExcludeDirs...),
		extractor:   TextExtractor{},
		scanner:     TextScanner{},
		workers:     1,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		progress:    noProgress{},
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.workers < 1 {
		return nil, fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, a.workers)
	}
	if _, err := newFileMatcher(a.pattern); err != nil {
		return nil, err
	}

	if a.collectRefs {
		s, err := store.NewMemoryStore()
		if err != nil {
			return nil, fmt.Errorf("deadscan: create reference store: %w", err)
		}
		a.store = s
	}
	return a, nil
}

// Close releases the reference ledger, if one was opened.
func (a *Analyzer) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Files walks the root and returns the candidate source files. It returns
// ErrNoSourceFiles when nothing matches.
func (a *Analyzer) Files() ([]SourceFile, error) {
	paths, err := ListFiles(a.root, a.pattern, a.excludeDirs)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("deadscan: %w in %s matching %q", ErrNoSourceFiles, a.root, a.pattern)
	}
	files := make([]SourceFile, len(paths))
	for i, p := range paths {
		files[i] = SourceFile{Root: a.root, Path: p}
	}
	return files, nil
}

// Run executes the whole pipeline and returns the classified result. It
// fails without a partial result on an invalid threshold, an empty or
// unreadable root, a cancelled context or a failing exclusion rule.
// Unreadable individual files are logged and skipped.
func (a *Analyzer) Run(ctx context.Context, th Thresholds) (*Result, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}

	a.warnMu.Lock()
	a.warned = make(map[string]bool)
	a.warnMu.Unlock()

	a.logger.Info("Starting dead code detection...")
	files, err := a.Files()
	if err != nil {
		return nil, err
	}
	a.logger.Info(fmt.Sprintf("Found %d source files", len(files)))

	table, err := a.Extract(ctx, files)
	if err != nil {
		return nil, err
	}
	a.logger.Info(fmt.Sprintf("Found %d unique function/method names", len(table)))

	tally, err := a.Scan(ctx, files, table.NameSet())
	if err != nil {
		return nil, err
	}
	a.logger.Info(fmt.Sprintf("Scanned %d files for references", len(files)))

	res, err := Classify(ctx, table, tally.Counts, th, a.rule)
	if err != nil {
		return nil, err
	}
	res.Stats.FilesScanned = len(files)

	if a.collectRefs {
		if err := a.attachReferences(tally, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Extract runs the definition pass over files in order.
func (a *Analyzer) Extract(ctx context.Context, files []SourceFile) (SymbolTable, error) {
	table := make(SymbolTable)
	a.progress.StartPass("Finding definitions", len(files))
	defer a.progress.FinishPass()
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.extractor.Extract(ctx, f, table, a.warn); err != nil {
			return nil, fmt.Errorf("deadscan: extract %s: %w", f.Path, err)
		}
		a.progress.FileDone()
	}
	return table, nil
}

// Scan runs the reference pass over files, in parallel when more than one
// worker is configured. The result does not depend on the worker count.
func (a *Analyzer) Scan(ctx context.Context, files []SourceFile, names NameSet) (Tally, error) {
	a.progress.StartPass("Counting references", len(files))
	defer a.progress.FinishPass()
	if a.workers > 1 && len(files) > 1 {
		return a.scanParallel(ctx, files, names)
	}

	total := Tally{Counts: make(Counts)}
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return Tally{}, err
		}
		t, err := a.scanner.Scan(ctx, f, names, a.collectRefs, a.warn)
		if err != nil {
			return Tally{}, fmt.Errorf("deadscan: scan %s: %w", f.Path, err)
		}
		total.Merge(t)
		a.fileScanned(i, len(files), f)
	}
	return total, nil
}

func (a *Analyzer) fileScanned(i, total int, f SourceFile) {
	a.progress.FileDone()
	if (i+1)%progressLogEvery == 0 {
		a.logger.Info(fmt.Sprintf("Scanning file %d/%d: %s", i+1, total, f.Path))
	}
}

// attachReferences replaces the ledger's contents with this run's records
// and copies each reported symbol's references onto its finding.
func (a *Analyzer) attachReferences(tally Tally, res *Result) error {
	if err := a.store.Reset(); err != nil {
		return fmt.Errorf("deadscan: reset references: %w", err)
	}
	if err := a.store.CommitReferences(tally.References); err != nil {
		return fmt.Errorf("deadscan: record references: %w", err)
	}
	if err := a.logFileCounts(len(tally.References)); err != nil {
		return err
	}
	names := make([]string, 0, len(res.Dead)+len(res.LowUsage))
	for _, f := range res.Dead {
		names = append(names, f.Name)
	}
	for _, f := range res.LowUsage {
		names = append(names, f.Name)
	}
	refs, err := a.store.ReferencesByNames(names)
	if err != nil {
		return fmt.Errorf("deadscan: load references: %w", err)
	}
	for i := range res.Dead {
		res.Dead[i].References = refs[res.Dead[i].Name]
	}
	for i := range res.LowUsage {
		res.LowUsage[i].References = refs[res.LowUsage[i].Name]
	}
	return nil
}

// logFileCounts reports how the recorded references spread over files.
func (a *Analyzer) logFileCounts(total int) error {
	counts, err := a.store.FileReferenceCounts()
	if err != nil {
		return fmt.Errorf("deadscan: count references: %w", err)
	}
	a.logger.Info(fmt.Sprintf("Recorded %d references across %d files", total, len(counts)))
	for _, fc := range counts[:min(len(counts), busiestFilesLogged)] {
		a.logger.Info(fmt.Sprintf("  %s: %d references", fc.Path, fc.References))
	}
	return nil
}

// warn logs a per-file failure once per run. It never aborts the run and is
// safe for concurrent use.
func (a *Analyzer) warn(err error) {
	var fe *FileReadError
	msg := err.Error()
	key := msg
	if errors.As(err, &fe) {
		msg = fmt.Sprintf("Could not read %s: %v", fe.Path, fe.Err)
		key = fe.Path
	}

	a.warnMu.Lock()
	seen := a.warned[key]
	if a.warned == nil {
		a.warned = make(map[string]bool)
	}
	a.warned[key] = true
	a.warnMu.Unlock()

	if !seen {
		a.logger.Warn(msg)
	}
}
