package deadscan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultPattern matches Go source files by base name.
const DefaultPattern = "*.go"

// DefaultExcludeDirs are directory names never descended into: version
// control metadata, vendored dependencies, test fixtures and generated mocks.
var DefaultExcludeDirs = []string{".git", "vendor", "testdata", "mocks"}

// fileMatcher decides whether a relative, slash-separated path is a
// candidate source file.
type fileMatcher struct {
	glob     glob.Glob
	fullPath bool
}

func newFileMatcher(pattern string) (*fileMatcher, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %v", ErrInvalidConfig, pattern, err)
	}
	return &fileMatcher{
		glob:     g,
		fullPath: strings.Contains(pattern, "/"),
	}, nil
}

func (m *fileMatcher) match(relPath string) bool {
	if m.fullPath {
		return m.glob.Match(relPath)
	}
	return m.glob.Match(relPath[strings.LastIndexByte(relPath, '/')+1:])
}

// ListFiles walks root and returns the slash-separated paths, relative to
// root, of every regular file matching pattern. A pattern without '/' is
// matched against the base name; otherwise against the whole relative path.
// Directories named in excludeDirs are skipped wherever they appear below
// root. The result is sorted component by component.
//
// Walk errors, such as unreadable directories, are returned rather than
// skipped.
func ListFiles(root, pattern string, excludeDirs []string) ([]string, error) {
	matcher, err := newFileMatcher(pattern)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("deadscan: root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("deadscan: root %s: not a directory", root)
	}

	skip := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		skip[d] = true
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if matcher.match(rel) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("deadscan: walk %s: %w", root, err)
	}

	slices.SortFunc(paths, comparePaths)
	return paths, nil
}

// comparePaths orders slash-separated paths by their components, so that a
// directory's contents sort together ("a/b.go" before "a.go").
func comparePaths(a, b string) int {
	return slices.Compare(strings.Split(a, "/"), strings.Split(b, "/"))
}
