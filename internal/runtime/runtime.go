// Package runtime evaluates user-supplied Risor exclusion scripts. A script
// is evaluated once per candidate symbol; a truthy result excludes the
// symbol from the report.
//
// Scripts see these globals:
//
//	name         symbol name (string)
//	definitions  number of declaration sites (int)
//	occurrences  total token matches, declarations included (int)
//	extra        occurrences minus definitions (int)
//	file         file of the first declaration site (string)
//	exported     whether the name starts with an upper-case letter (bool)
//
// Example:
//
//	name == "ServeHTTP" || file.has_suffix("_gen.go")
package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/parser"
)

// Candidate is the symbol an exclusion script is asked about.
type Candidate struct {
	Name        string
	Definitions int
	Occurrences int
	File        string
	Exported    bool
}

// Runtime holds a compiled exclusion script.
type Runtime struct {
	code  *compiler.Code
	label string
}

// NewRuntime parses and compiles Risor source code once. Syntax errors and
// references to unknown names are reported here, before any candidate is
// evaluated. label names the script in errors.
func NewRuntime(source, label string) (*Runtime, error) {
	program, err := parser.Parse(context.Background(), source, parser.WithFile(label))
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	// Global names are fixed, so one compilation serves every candidate.
	cfg := risor.NewConfig(globalOptions(Candidate{})...)
	code, err := compiler.Compile(program, cfg.CompilerOpts()...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return &Runtime{code: code, label: label}, nil
}

// LoadScript reads and compiles a .risor file from disk.
func LoadScript(path string) (*Runtime, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("runtime: loading script %s: %w", path, err)
	}
	return NewRuntime(string(data), filepath.Base(path))
}

// Exclude evaluates the script for c and reports whether the result is
// truthy.
func (r *Runtime) Exclude(ctx context.Context, c Candidate) (bool, error) {
	result, err := risor.EvalCode(ctx, r.code, globalOptions(c)...)
	if err != nil {
		return false, fmt.Errorf("runtime: script %s: %w", r.label, err)
	}
	if result == nil {
		return false, nil
	}
	return result.IsTruthy(), nil
}

func globalOptions(c Candidate) []risor.Option {
	return []risor.Option{
		risor.WithGlobal("name", c.Name),
		risor.WithGlobal("definitions", c.Definitions),
		risor.WithGlobal("occurrences", c.Occurrences),
		risor.WithGlobal("extra", c.Occurrences-c.Definitions),
		risor.WithGlobal("file", c.File),
		risor.WithGlobal("exported", c.Exported),
	}
}
