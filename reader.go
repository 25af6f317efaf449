package deadscan

import (
	"bytes"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"unicode/utf8"
)

var errInvalidUTF8 = errors.New("invalid UTF-8")

// SourceFile is a candidate file found by the walk. Path is relative to Root
// and slash-separated; it is the name used in definition sites and reports.
type SourceFile struct {
	Root string
	Path string
}

// AbsPath returns the file's location on disk.
func (f SourceFile) AbsPath() string {
	return filepath.Join(f.Root, filepath.FromSlash(f.Path))
}

// Content reads the whole file and checks that it is valid UTF-8. Failures
// are returned as *FileReadError.
func (f SourceFile) Content() ([]byte, error) {
	data, err := os.ReadFile(f.AbsPath())
	if err != nil {
		return nil, &FileReadError{Path: f.Path, Err: err}
	}
	if !utf8.Valid(data) {
		return nil, &FileReadError{Path: f.Path, Err: errInvalidUTF8}
	}
	return data, nil
}

// Lines returns the file's lines with 1-based line numbers. If the file
// cannot be read or decoded, warn is called once with a *FileReadError and
// the sequence is empty. The file is read when iteration starts.
func (f SourceFile) Lines(warn func(error)) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		data, err := f.Content()
		if err != nil {
			if warn != nil {
				warn(err)
			}
			return
		}
		for n, line := range splitLines(data) {
			if !yield(n, line) {
				return
			}
		}
	}
}

// ReadLines is Lines for a path relative to the working directory.
func ReadLines(path string, warn func(error)) iter.Seq2[int, string] {
	return SourceFile{Path: filepath.ToSlash(path)}.Lines(warn)
}

// splitLines yields lines without their terminator. "\r\n", "\n" and a lone
// "\r" each end one line. A final line without a terminator is yielded; a
// trailing terminator does not produce an extra empty line.
func splitLines(data []byte) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		n := 0
		for len(data) > 0 {
			n++
			var line []byte
			if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
				end := i + 1
				if data[i] == '\r' && end < len(data) && data[end] == '\n' {
					end++
				}
				line, data = data[:i], data[end:]
			} else {
				line, data = data, nil
			}
			if !yield(n, string(line)) {
				return
			}
		}
	}
}

// normalizeLoneCR rewrites each "\r" not followed by "\n" to "\n" so that
// row numbers from a parser agree with splitLines. Byte offsets are
// unchanged.
func normalizeLoneCR(data []byte) []byte {
	if bytes.IndexByte(data, '\r') < 0 {
		return data
	}
	out := bytes.Clone(data)
	for i, b := range out {
		if b == '\r' && (i+1 == len(out) || out[i+1] != '\n') {
			out[i] = '\n'
		}
	}
	return out
}
