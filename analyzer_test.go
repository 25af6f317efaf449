package deadscan

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer(t *testing.T, root string, opts ...Option) *Analyzer {
	t.Helper()
	a, err := New(root, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func findingNames(fs []Finding) []string {
	names := make([]string, 0, len(fs))
	for _, f := range fs {
		names = append(names, f.Name)
	}
	return names
}

func TestRun_HelperOnlyDeclared(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n\nfunc helper() {}\n",
	})

	res, err := newTestAnalyzer(t, root).Run(context.Background(), DefaultThresholds())
	require.NoError(t, err)

	require.Len(t, res.Dead, 1)
	assert.Equal(t, "helper", res.Dead[0].Name)
	assert.Equal(t, []DefinitionSite{{"a.go", 3}}, res.Dead[0].Definitions)
	assert.Equal(t, 0, res.Dead[0].Extra)
	assert.Empty(t, res.LowUsage)
	assert.Equal(t, Stats{FilesScanned: 1, SymbolsFound: 1, Dead: 1}, res.Stats)
}

func TestRun_HelperCalledOnce(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n\nfunc helper() {}\n",
		"b.go": "package a\n\nfunc use() {\n\thelper()\n}\n",
	})
	a := newTestAnalyzer(t, root)

	res, err := a.Run(context.Background(), Thresholds{MaxRefs: 1})
	require.NoError(t, err)
	require.Len(t, res.LowUsage, 1)
	assert.Equal(t, "helper", res.LowUsage[0].Name)
	assert.Equal(t, 1, res.LowUsage[0].Extra)
	assert.Equal(t, []string{"use"}, findingNames(res.Dead))

	res, err = a.Run(context.Background(), Thresholds{MaxRefs: 0})
	require.NoError(t, err)
	assert.Empty(t, res.LowUsage)
	assert.Equal(t, []string{"use"}, findingNames(res.Dead))
}

func TestRun_ConventionalNamesNeverReported(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package main\n\nfunc init() {}\nfunc main() {}\nfunc (e E) Error() string { return \"\" }\nfunc (e E) String() string { return \"\" }\n",
	})

	for _, th := range []Thresholds{
		DefaultThresholds(),
		{MaxRefs: 100, IncludeExported: true, IncludeTests: true},
	} {
		res, err := newTestAnalyzer(t, root).Run(context.Background(), th)
		require.NoError(t, err)
		assert.Empty(t, res.Dead)
		assert.Empty(t, res.LowUsage)
		assert.Equal(t, 4, res.Stats.Excluded)
	}
}

func TestRun_Invariants(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go":     "package a\n\nfunc a1() {}\nfunc a2() {}\nfunc Exp() {}\n",
		"b/b.go":   "package b\n\nfunc b1() { b1(); b1() }\nfunc (x X) a1() {}\n",
		"c/c.go":   "package c\n\nfunc TestC() {}\nfunc c1() { a2(); a2(); a2() }\n",
		"c/c_x.go": "package c\n\n// a2 c1\n",
	})

	res, err := newTestAnalyzer(t, root).Run(context.Background(), DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, 6, res.Stats.SymbolsFound)
	assert.Equal(t, 2, res.Stats.Excluded)
	assert.Equal(t, len(res.Dead), res.Stats.Dead)
	assert.Equal(t, len(res.LowUsage), res.Stats.LowUsage)
	for _, f := range res.Dead {
		assert.LessOrEqual(t, f.Occurrences, len(f.Definitions))
		assert.NotEmpty(t, f.Definitions)
	}
	for _, f := range res.LowUsage {
		assert.Greater(t, f.Occurrences, len(f.Definitions))
		assert.LessOrEqual(t, f.Extra, res.Thresholds.MaxRefs)
	}
	assert.Equal(t, []string{"a1"}, findingNames(res.Dead))
	assert.Equal(t, []string{"c1"}, findingNames(res.LowUsage))
}

func TestRun_Idempotent(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n\nfunc x() { y() }\nfunc y() {}\nfunc z() {}\n",
	})
	a := newTestAnalyzer(t, root, WithReferences(true))

	var outputs []string
	for range 2 {
		res, err := a.Run(context.Background(), DefaultThresholds())
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, res, RenderOptions{ShowRefs: true}))
		outputs = append(outputs, buf.String())
	}
	assert.Equal(t, outputs[0], outputs[1])
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	files := make(map[string]string)
	for i := range 120 {
		files[fmt.Sprintf("pkg%d/f%03d.go", i%7, i)] = fmt.Sprintf(
			"package p\n\nfunc f%d() { f%d() }\n\nfunc shared() {}\n// shared f%d\n",
			i, (i*31)%120, (i+1)%120,
		)
	}
	root := writeTree(t, files)

	run := func(workers int) (*Result, string) {
		a := newTestAnalyzer(t, root, WithWorkers(workers), WithReferences(true))
		res, err := a.Run(context.Background(), Thresholds{MaxRefs: 2})
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, res, RenderOptions{ShowRefs: true, AllLowUsage: true}))
		return res, buf.String()
	}

	seqRes, seqOut := run(1)
	parRes, parOut := run(8)
	assert.Equal(t, seqRes, parRes)
	assert.Equal(t, seqOut, parOut)
}

func TestRun_TreeSitterIgnoresComments(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n\n// helper is mentioned here\nfunc helper() {}\n\nvar s = \"helper\"\n",
	})

	th := Thresholds{MaxRefs: 2}
	res, err := newTestAnalyzer(t, root).Run(context.Background(), th)
	require.NoError(t, err)
	assert.Equal(t, []string{"helper"}, findingNames(res.LowUsage), "text backend counts comments and strings")
	assert.Equal(t, 2, res.LowUsage[0].Extra)

	a := newTestAnalyzer(t, root, WithBackend(SyntaxExtractor{}, SyntaxScanner{}))
	res, err = a.Run(context.Background(), th)
	require.NoError(t, err)
	assert.Equal(t, []string{"helper"}, findingNames(res.Dead))
	assert.Equal(t, []DefinitionSite{{"a.go", 4}}, res.Dead[0].Definitions)
}

func TestRun_NoSourceFiles(t *testing.T) {
	root := writeTree(t, map[string]string{"README.md": "# nothing"})

	_, err := newTestAnalyzer(t, root).Run(context.Background(), DefaultThresholds())
	require.ErrorIs(t, err, ErrNoSourceFiles)
}

func TestRun_ZeroSymbolsStillReports(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "package a\n\nvar x = 1\n"})

	res, err := newTestAnalyzer(t, root).Run(context.Background(), DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, Stats{FilesScanned: 1}, res.Stats)
}

func TestRun_NegativeMaxRefs(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "package a\n"})

	_, err := newTestAnalyzer(t, root).Run(context.Background(), Thresholds{MaxRefs: -1})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRun_CancelledContext(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "package a\n\nfunc f() {}\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestAnalyzer(t, root).Run(ctx, DefaultThresholds())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_UnreadableFileIsSkipped(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n\nfunc helper() {}\n",
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.go"), []byte("func helper() {}\n\xff\n"), 0o644))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	res, err := newTestAnalyzer(t, root, WithLogger(logger)).Run(context.Background(), DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Stats.FilesScanned)
	require.Len(t, res.Dead, 1)
	assert.Equal(t, []DefinitionSite{{"a.go", 3}}, res.Dead[0].Definitions)
	assert.Contains(t, logs.String(), "Could not read bad.go: invalid UTF-8")
}

func TestRun_UnreadableFileWarnsOncePerRun(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n\nfunc helper() {}\n",
		"b.go": "package a\n\nfunc use() {\n\thelper()\n}\n",
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.go"), []byte{0xff, 0xfe}, 0o644))

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			a := newTestAnalyzer(t, root, WithLogger(logger), WithWorkers(workers))

			_, err := a.Run(context.Background(), DefaultThresholds())
			require.NoError(t, err)
			assert.Equal(t, 1, strings.Count(logs.String(), "Could not read bad.go"))

			_, err = a.Run(context.Background(), DefaultThresholds())
			require.NoError(t, err)
			assert.Equal(t, 2, strings.Count(logs.String(), "Could not read bad.go"))
		})
	}
}

func TestRun_LogsReferenceCountsPerFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n\nfunc helper() {}\n",
		"b.go": "package a\n\nfunc use() {\n\thelper()\n}\n",
	})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	_, err := newTestAnalyzer(t, root, WithReferences(true), WithLogger(logger)).Run(context.Background(), DefaultThresholds())
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, "Recorded 3 references across 2 files")
	require.Contains(t, out, "b.go: 2 references")
	require.Contains(t, out, "a.go: 1 references")
	assert.Less(t, strings.Index(out, "b.go: 2 references"), strings.Index(out, "a.go: 1 references"))
}

func TestRun_AttachesReferences(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n\nfunc helper() {}\n",
		"b.go": "package a\n\nfunc use() {\n\thelper()\n}\n",
	})

	res, err := newTestAnalyzer(t, root, WithReferences(true)).Run(context.Background(), DefaultThresholds())
	require.NoError(t, err)

	require.Len(t, res.LowUsage, 1)
	refs := res.LowUsage[0].References
	require.Len(t, refs, 2)
	assert.Equal(t, "a.go", refs[0].File)
	assert.Equal(t, 3, refs[0].Line)
	assert.Equal(t, "func helper() {}", refs[0].Context)
	assert.Equal(t, "b.go", refs[1].File)
	assert.Equal(t, 4, refs[1].Line)
	assert.Equal(t, "helper()", refs[1].Context)

	require.Len(t, res.Dead, 1)
	assert.Len(t, res.Dead[0].References, 1)
}

func TestRun_WithoutReferencesLeavesFindingsBare(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "package a\n\nfunc helper() {}\n"})

	res, err := newTestAnalyzer(t, root).Run(context.Background(), DefaultThresholds())
	require.NoError(t, err)
	require.Len(t, res.Dead, 1)
	assert.Nil(t, res.Dead[0].References)
}

type recordingProgress struct {
	passes []string
	totals []int
	done   int
	closed int
}

func (p *recordingProgress) StartPass(name string, total int) {
	p.passes = append(p.passes, name)
	p.totals = append(p.totals, total)
}
func (p *recordingProgress) FileDone()   { p.done++ }
func (p *recordingProgress) FinishPass() { p.closed++ }

func TestRun_ReportsProgressAndLogs(t *testing.T) {
	files := make(map[string]string)
	for i := range 55 {
		files[fmt.Sprintf("f%02d.go", i)] = "package p\n"
	}
	root := writeTree(t, files)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	p := &recordingProgress{}
	_, err := newTestAnalyzer(t, root, WithProgress(p), WithLogger(logger)).Run(context.Background(), DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, []string{"Finding definitions", "Counting references"}, p.passes)
	assert.Equal(t, []int{55, 55}, p.totals)
	assert.Equal(t, 110, p.done)
	assert.Equal(t, 2, p.closed)

	out := logs.String()
	assert.Contains(t, out, "Found 55 source files")
	assert.Contains(t, out, "Scanning file 50/55: f49.go")
	assert.Contains(t, out, "Scanned 55 files for references")
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(t.TempDir(), WithWorkers(0))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(t.TempDir(), WithPattern("[*"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_ExtraExcludeDirs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go":         "package a\n",
		"gen/z.go":     "package gen\n",
		"vendor/v.go":  "package v\n",
		"sub/keep.go":  "package sub\n",
		"sub/gen/x.go": "package gen\n",
	})

	files, err := newTestAnalyzer(t, root, WithExcludeDirs("gen")).Files()
	require.NoError(t, err)
	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"a.go", "sub/keep.go"}, paths)
}
