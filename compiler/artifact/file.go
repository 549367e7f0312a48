package artifact

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/dave/jennifer/jen"
)

// File groups artifacts of one package into a single source file.
type File struct {
	// Path is the import path of the package.
	Path string
	// Package is the package name.
	Package string
	// Header is rendered as the leading comment of the file.
	Header string
	// Names maps import paths to package names that differ from the last
	// path element, e.g. "github.com/labstack/echo/v4" to "echo".
	Names     map[string]string
	artifacts []Artifact
}

// NewFile returns an empty file of package pkg at import path path.
func NewFile(path, pkg string) *File {
	return &File{Path: path, Package: pkg}
}

// Add appends artifacts. Every artifact must belong to the file's package.
func (f *File) Add(as ...Artifact) error {
	for _, a := range as {
		if a.Path() != f.Path {
			return fmt.Errorf("artifact: %s %s belongs to %q, not %q", a.Kind(), a.Name(), a.Path(), f.Path)
		}
		f.artifacts = append(f.artifacts, a)
	}
	return nil
}

// Artifacts returns the artifacts in insertion order.
func (f *File) Artifacts() []Artifact { return slices.Clone(f.artifacts) }

// Imports returns the union of the artifacts' imports in first-seen order.
func (f *File) Imports() []string {
	var out []string
	for _, a := range f.artifacts {
		for _, p := range a.Imports() {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// Jen renders the file into a jennifer file. References to the file's own
// package are rendered unqualified.
func (f *File) Jen() *jen.File {
	jf := jen.NewFilePathName(f.Path, f.Package)
	if f.Header != "" {
		jf.HeaderComment(f.Header)
	}
	for path, name := range f.Names {
		jf.ImportName(path, name)
	}
	for _, a := range f.artifacts {
		a.render(jf)
	}
	return jf
}

// Render writes the gofmt-formatted source of the file.
func (f *File) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Jen().Render(&buf); err != nil {
		return nil, fmt.Errorf("artifact: render %s: %w", f.Path, err)
	}
	return buf.Bytes(), nil
}
