package deadscan

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSourceFiles indicates the walk found nothing matching the pattern.
	ErrNoSourceFiles = errors.New("no source files found")

	// ErrInvalidConfig indicates a flag or option value that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// FileReadError reports a single file that could not be opened or decoded.
// It is never fatal: the file contributes no definitions and no references.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("could not read %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}
